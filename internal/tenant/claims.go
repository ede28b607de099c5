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

package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Token claim names issued by the identity provider.
const (
	ClaimTenants = "custom:tenants"
	ClaimGroups  = "cognito:groups"
	ClaimEmail   = "email"
	ClaimSubject = "sub"
)

var ErrMalformedClaim = errors.New("malformed tenants claim")

// ClaimStatus tags the outcome of parsing the tenants claim.
type ClaimStatus int

const (
	ClaimOK ClaimStatus = iota
	ClaimMissing
	ClaimMalformed
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimOK:
		return "ok"
	case ClaimMissing:
		return "missing"
	case ClaimMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("ClaimStatus(%d)", int(s))
	}
}

// ClaimResult is the parsed tenants claim. Only an OK result yields tenants.
type ClaimResult struct {
	Status  ClaimStatus
	Err     error
	tenants []string
}

// Tenants returns the authorized tenants, or an empty list when the claim
// was missing or malformed.
func (r ClaimResult) Tenants() []string {
	if r.Status != ClaimOK {
		return []string{}
	}
	out := make([]string, len(r.tenants))
	copy(out, r.tenants)
	return out
}

func ok(tenants []string) ClaimResult {
	return ClaimResult{Status: ClaimOK, tenants: tenants}
}

func malformed(format string, args ...any) ClaimResult {
	return ClaimResult{
		Status: ClaimMalformed,
		Err:    fmt.Errorf("%w: %s", ErrMalformedClaim, fmt.Sprintf(format, args...)),
	}
}

// ParseTenantsClaim normalizes the custom:tenants claim.
//
// The claim arrives as a JSON array, a single tenant name, or a string
// holding a JSON array whose quotes were escaped by the identity provider
// (`[\"A\",\"B\"]`). A string that looks like an array but does not decode
// is taken as one tenant name. Anything else is malformed. Blank entries
// name no tenant and are dropped; the rest are kept in order as given.
func ParseTenantsClaim(raw any) ClaimResult {
	switch v := raw.(type) {
	case nil:
		return ClaimResult{Status: ClaimMissing}
	case []string:
		tenants := make([]string, 0, len(v))
		for _, t := range v {
			if strings.TrimSpace(t) != "" {
				tenants = append(tenants, t)
			}
		}
		return ok(tenants)
	case []any:
		return fromList(v)
	case string:
		return fromString(v)
	default:
		return malformed("unsupported claim type %T", raw)
	}
}

func fromList(items []any) ClaimResult {
	tenants := make([]string, 0, len(items))
	for i, item := range items {
		s, isString := item.(string)
		if !isString {
			return malformed("element %d is %T, want string", i, item)
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		tenants = append(tenants, s)
	}
	return ok(tenants)
}

func fromString(s string) ClaimResult {
	s = strings.TrimSpace(s)
	if s == "" {
		return ClaimResult{Status: ClaimMissing}
	}
	if !strings.HasPrefix(s, "[") {
		return ok([]string{s})
	}

	candidate := s
	if strings.Contains(candidate, `\`) {
		candidate = strings.ReplaceAll(candidate, `\"`, `"`)
	}

	var items []any
	if err := json.Unmarshal([]byte(candidate), &items); err != nil {
		return ok([]string{s})
	}
	return fromList(items)
}

// ParseGroupsClaim returns the role names carried in cognito:groups.
// Unknown shapes yield no roles.
func ParseGroupsClaim(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		roles := make([]string, 0, len(v))
		for _, item := range v {
			if s, isString := item.(string); isString && s != "" {
				roles = append(roles, s)
			}
		}
		return roles
	case string:
		return strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	default:
		return nil
	}
}
