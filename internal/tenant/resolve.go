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
	"errors"
	"strings"
)

// HeaderTenant selects the active tenant of a request.
const HeaderTenant = "X-Tenant"

var (
	ErrNoTenant     = errors.New("no tenant specified")
	ErrAccessDenied = errors.New("access denied")
)

// ResolveActiveTenant picks the tenant a request acts as. An explicit
// request (the X-Tenant header) wins; otherwise the principal's first
// non-blank tenant is used. The result is always one of the principal's
// tenants and never empty.
func ResolveActiveTenant(requested string, p Principal) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		for _, t := range p.Tenants {
			if strings.TrimSpace(t) != "" {
				return t, nil
			}
		}
		return "", ErrNoTenant
	}
	if !p.HasTenant(requested) {
		return "", ErrAccessDenied
	}
	return requested, nil
}

// ResolveWithSysAdminOverride behaves like ResolveActiveTenant but lets a
// SysAdmin name any tenant explicitly. The second result reports whether
// the override was used. Only endpoints that opt in may call this.
func ResolveWithSysAdminOverride(requested string, p Principal) (string, bool, error) {
	t, err := ResolveActiveTenant(requested, p)
	if err == nil {
		return t, false, nil
	}
	requested = strings.TrimSpace(requested)
	if errors.Is(err, ErrAccessDenied) && p.IsSysAdmin() && requested != "" {
		return requested, true, nil
	}
	return "", false, err
}
