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

// Package sqlscope restricts SQL statements to a single tenant.
//
// Every business table shares one discriminator column. The column name is a
// typed constant so call sites cannot pass a free-text (or differently cased)
// column name, and the tenant value is always a bound parameter.
package sqlscope

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrEmptyTenant          = errors.New("sqlscope: tenant is required")
	ErrUnsupportedStatement = errors.New("sqlscope: unsupported statement")
	ErrArgMismatch          = errors.New("sqlscope: placeholder and argument count differ")
	ErrMalformedQuery       = errors.New("sqlscope: malformed query")
)

// Column is a tenant discriminator column.
type Column string

// Administration is the canonical tenant column shared by all business tables.
const Administration Column = "administration"

func (c Column) String() string { return string(c) }

// Dialect selects the placeholder syntax of the target database.
type Dialect int

const (
	// Question uses positional '?' placeholders (MySQL).
	Question Dialect = iota
	// Dollar uses numbered '$n' placeholders (PostgreSQL).
	Dollar
)

func (d Dialect) String() string {
	switch d {
	case Question:
		return "question"
	case Dollar:
		return "dollar"
	default:
		return "dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// placeholder returns the n-th (1-based) placeholder for the dialect.
func (d Dialect) placeholder(n int) string {
	if d == Dollar {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites '?' placeholders into the dialect's syntax. Quoted
// literals and comments are left untouched.
func Rebind(d Dialect, query string) string {
	if d == Question {
		return query
	}
	sc, err := scan(query)
	if err != nil || len(sc.marks) == 0 {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + len(sc.marks)*2)
	last := 0
	for i, pos := range sc.marks {
		b.WriteString(query[last:pos])
		b.WriteString(d.placeholder(i + 1))
		last = pos + 1
	}
	b.WriteString(query[last:])
	return b.String()
}
