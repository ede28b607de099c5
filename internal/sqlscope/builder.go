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
	"strconv"
	"strings"
)

// SelectBuilder assembles a tenant-scoped SELECT statement.
//
// Table and column names are expected to be code constants; only values
// passed to Where, ForTenant, Limit and Offset are treated as data and they
// are always bound as parameters. Build fails unless ForTenant or Unscoped
// was called.
type SelectBuilder struct {
	scoper   Scoper
	table    string
	columns  []string
	where    []string
	args     []any
	orderBy  []string
	limit    int
	offset   int
	tenant   string
	unscoped bool
}

// Select starts a MySQL statement scoped on the administration column.
func Select(table string, columns ...string) *SelectBuilder {
	return Default.Select(table, columns...)
}

// Select starts a statement using the scoper's column and dialect.
func (s Scoper) Select(table string, columns ...string) *SelectBuilder {
	return &SelectBuilder{
		scoper:  s,
		table:   table,
		columns: columns,
	}
}

// Where adds a condition written with '?' placeholders. Conditions are
// joined with AND.
func (b *SelectBuilder) Where(expr string, args ...any) *SelectBuilder {
	b.where = append(b.where, expr)
	b.args = append(b.args, args...)
	return b
}

// ForTenant restricts the statement to tenant.
func (b *SelectBuilder) ForTenant(tenant string) *SelectBuilder {
	b.tenant = tenant
	return b
}

// Unscoped marks the statement as intentionally cross-tenant.
func (b *SelectBuilder) Unscoped() *SelectBuilder {
	b.unscoped = true
	return b
}

func (b *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, terms...)
	return b
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = n
	return b
}

// Build renders the statement and its arguments in the scoper's dialect.
func (b *SelectBuilder) Build() (string, []any, error) {
	if !b.unscoped && b.tenant == "" {
		return "", nil, ErrEmptyTenant
	}

	marks := 0
	for _, expr := range b.where {
		sc, err := scan(expr)
		if err != nil {
			return "", nil, err
		}
		marks += len(sc.marks)
	}
	if marks != len(b.args) {
		return "", nil, ErrArgMismatch
	}

	conds := make([]string, 0, len(b.where)+1)
	for _, expr := range b.where {
		if hasTopLevelOr(expr) {
			expr = "(" + expr + ")"
		}
		conds = append(conds, expr)
	}
	args := make([]any, 0, len(b.args)+3)
	args = append(args, b.args...)
	if !b.unscoped {
		conds = append(conds, b.scoper.column()+" = ?")
		args = append(args, b.tenant)
	}

	cols := "*"
	if len(b.columns) > 0 {
		cols = strings.Join(b.columns, ", ")
	}

	var q strings.Builder
	q.WriteString("SELECT " + cols + " FROM " + b.table)
	if len(conds) > 0 {
		q.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	if len(b.orderBy) > 0 {
		q.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		q.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}
	if b.offset > 0 {
		q.WriteString(" OFFSET ?")
		args = append(args, b.offset)
	}

	return Rebind(b.scoper.Dialect, q.String()), args, nil
}

// String renders the statement for logging. Arguments are not included.
func (b *SelectBuilder) String() string {
	q, args, err := b.Build()
	if err != nil {
		return "invalid query: " + err.Error()
	}
	return q + " -- " + strconv.Itoa(len(args)) + " args"
}
