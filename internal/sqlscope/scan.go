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

import "strings"

// word is a bare keyword or identifier found outside parentheses.
type word struct {
	text string // upper-cased
	pos  int
}

type scanResult struct {
	words []word // depth 0 only
	marks []int  // offsets of '?' placeholders at any depth
	pipes bool   // "||" seen at depth 0
}

// scan tokenizes just enough SQL to find top-level keywords and
// placeholders. String literals, quoted identifiers and comments are skipped.
func scan(q string) (scanResult, error) {
	var res scanResult
	depth := 0

	for i := 0; i < len(q); {
		c := q[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := skipQuoted(q, i)
			if end < 0 {
				return res, ErrMalformedQuery
			}
			i = end
		case c == '-' && i+1 < len(q) && q[i+1] == '-':
			nl := strings.IndexByte(q[i:], '\n')
			if nl < 0 {
				i = len(q)
			} else {
				i += nl + 1
			}
		case c == '/' && i+1 < len(q) && q[i+1] == '*':
			end := strings.Index(q[i+2:], "*/")
			if end < 0 {
				return res, ErrMalformedQuery
			}
			i += end + 4
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			if depth < 0 {
				return res, ErrMalformedQuery
			}
			i++
		case c == '|' && i+1 < len(q) && q[i+1] == '|':
			if depth == 0 {
				res.pipes = true
			}
			i += 2
		case c == '?':
			res.marks = append(res.marks, i)
			i++
		case isIdentStart(c):
			start := i
			for i < len(q) && isIdentPart(q[i]) {
				i++
			}
			qualified := start > 0 && q[start-1] == '.'
			if depth == 0 && !qualified {
				res.words = append(res.words, word{text: strings.ToUpper(q[start:i]), pos: start})
			}
		default:
			i++
		}
	}

	if depth != 0 {
		return res, ErrMalformedQuery
	}
	return res, nil
}

// skipQuoted returns the offset just past the quoted section starting at i,
// or -1 if it is not terminated. Doubled quotes and backslash escapes are
// both accepted.
func skipQuoted(q string, i int) int {
	quote := q[i]
	for j := i + 1; j < len(q); j++ {
		switch q[j] {
		case '\\':
			if quote != '`' {
				j++
			}
		case quote:
			if j+1 < len(q) && q[j+1] == quote {
				j++
				continue
			}
			return j + 1
		}
	}
	return -1
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '$'
}

// hasTopLevelOr reports whether expr contains an operator outside
// parentheses that binds looser than AND: OR, XOR or MySQL's "||".
func hasTopLevelOr(expr string) bool {
	sc, err := scan(expr)
	if err != nil || sc.pipes {
		return true
	}
	for _, w := range sc.words {
		if w.text == "OR" || w.text == "XOR" {
			return true
		}
	}
	return false
}
