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
	"sort"
	"time"
)

// Roles as carried in cognito:groups. Role names are flat and carry no
// tenant; tenant scope comes from the tenants claim.
const (
	// RoleSysAdmin manages the platform. It grants no access to tenant
	// business data on its own.
	RoleSysAdmin = "SysAdmin"

	// RoleTenantAdmin manages config, modules and users of its tenants.
	RoleTenantAdmin = "Tenant_Admin"

	RoleFinanceCRUD   = "Finance_CRUD"
	RoleFinanceRead   = "Finance_Read"
	RoleFinanceExport = "Finance_Export"
	RoleSTRCRUD       = "STR_CRUD"
	RoleSTRRead       = "STR_Read"
)

// assignableRoles may be granted by a tenant administrator.
var assignableRoles = map[string]bool{
	RoleTenantAdmin:   true,
	RoleFinanceCRUD:   true,
	RoleFinanceRead:   true,
	RoleFinanceExport: true,
	RoleSTRCRUD:       true,
	RoleSTRRead:       true,
}

// IsAssignable reports whether role may be granted through tenant administration.
func IsAssignable(role string) bool {
	return assignableRoles[role]
}

// AssignableRoles returns the roles a tenant administrator may grant, sorted.
func AssignableRoles() []string {
	out := make([]string, 0, len(assignableRoles))
	for r := range assignableRoles {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// UserRole is a role granted to a user within one tenant.
type UserRole struct {
	ID        string    `json:"id"`
	Tenant    string    `json:"administration"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
	GrantedBy string    `json:"granted_by"`
}

// RoleSet is an unordered set of role names.
type RoleSet map[string]struct{}

func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		if r != "" {
			s[r] = struct{}{}
		}
	}
	return s
}

func (s RoleSet) Has(role string) bool {
	_, found := s[role]
	return found
}

// Slice returns the roles sorted by name.
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
