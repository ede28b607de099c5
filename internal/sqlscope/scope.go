// Copyright 2026 The myAdmin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlscope

import (
	"strings"
)

// Scoper appends a tenant predicate to SQL statements.
type Scoper struct {
	Column  Column
	Dialect Dialect
	// Alias qualifies the column (e.g. "m" -> m.administration) when the
	// statement joins several tenant tables.
	Alias string
}

// Default scopes MySQL statements on the administration column.
var Default = Scoper{Column: Administration, Dialect: Question}

// AddTenantFilter scopes query to tenant using the default scoper.
//
//	SELECT * FROM mutaties WHERE date > ?   ['2024-01-01']
//	SELECT * FROM mutaties WHERE date > ? AND administration = ?   ['2024-01-01', tenant]
func AddTenantFilter(query string, args []any, tenant string) (string, []any, error) {
	return Default.Apply(query, args, tenant)
}

// WithAlias returns a copy of s that qualifies the column with alias.
func (s Scoper) WithAlias(alias string) Scoper {
	s.Alias = alias
	return s
}

func (s Scoper) column() string {
	col := s.Column
	if col == "" {
		col = Administration
	}
	if s.Alias != "" {
		return s.Alias + "." + col.String()
	}
	return col.String()
}

// tail clauses that must stay after the WHERE clause
var tailKeywords = map[string]bool{
	"GROUP":     true,
	"HAVING":    true,
	"WINDOW":    true,
	"ORDER":     true,
	"LIMIT":     true,
	"OFFSET":    true,
	"FETCH":     true,
	"FOR":       true,
	"RETURNING": true,
}

// Apply adds "<column> = <placeholder>" to the statement's WHERE clause,
// creating the clause when absent. The predicate is placed before any
// trailing GROUP BY, ORDER BY, LIMIT or locking clause, and the tenant is
// inserted into args at the matching position. An existing condition that
// contains a top-level OR is parenthesized first so the tenant predicate
// applies to every branch; OR, XOR and "||" are the only operators that
// bind looser than AND.
func (s Scoper) Apply(query string, args []any, tenant string) (string, []any, error) {
	if tenant == "" {
		return "", nil, ErrEmptyTenant
	}

	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimSuffix(q, ";"))

	sc, err := scan(q)
	if err != nil {
		return "", nil, err
	}
	if len(sc.words) == 0 {
		return "", nil, ErrUnsupportedStatement
	}
	switch sc.words[0].text {
	case "SELECT", "UPDATE", "DELETE":
	default:
		return "", nil, ErrUnsupportedStatement
	}

	wherePos, tailPos := -1, len(q)
	for _, w := range sc.words {
		switch {
		case w.text == "UNION" || w.text == "INTERSECT" || w.text == "EXCEPT":
			return "", nil, ErrUnsupportedStatement
		case w.text == "WHERE" && wherePos < 0:
			wherePos = w.pos
		case tailKeywords[w.text] && w.pos > wherePos && tailPos == len(q):
			tailPos = w.pos
		}
	}

	if s.Dialect == Question && len(sc.marks) != len(args) {
		return "", nil, ErrArgMismatch
	}

	var placeholder string
	out := make([]any, 0, len(args)+1)
	switch s.Dialect {
	case Dollar:
		placeholder = s.Dialect.placeholder(len(args) + 1)
		out = append(out, args...)
		out = append(out, tenant)
	default:
		placeholder = "?"
		n := 0
		for _, m := range sc.marks {
			if m < tailPos {
				n++
			}
		}
		out = append(out, args[:n]...)
		out = append(out, tenant)
		out = append(out, args[n:]...)
	}
	predicate := s.column() + " = " + placeholder

	var b strings.Builder
	b.Grow(len(q) + len(predicate) + 16)
	if wherePos >= 0 {
		cond := strings.TrimSpace(q[wherePos+len("WHERE") : tailPos])
		if cond == "" {
			return "", nil, ErrMalformedQuery
		}
		b.WriteString(q[:wherePos])
		b.WriteString("WHERE ")
		if hasTopLevelOr(cond) {
			b.WriteString("(" + cond + ")")
		} else {
			b.WriteString(cond)
		}
		b.WriteString(" AND ")
	} else {
		b.WriteString(strings.TrimRight(q[:tailPos], " \t\r\n"))
		b.WriteString(" WHERE ")
	}
	b.WriteString(predicate)
	if tailPos < len(q) {
		b.WriteString(" ")
		b.WriteString(q[tailPos:])
	}

	return b.String(), out, nil
}
