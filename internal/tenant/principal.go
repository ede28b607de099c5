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

// Principal is the authenticated caller's capabilities: the tenants they may
// act as and the roles they hold. It is built once per request from the
// verified token claims.
type Principal struct {
	Subject string
	Email   string
	Tenants []string
	Roles   RoleSet
}

// NewPrincipal builds a principal from verified token claims. The returned
// ClaimResult tells the caller whether the tenants claim was usable; a
// missing or malformed claim yields a principal without tenants.
func NewPrincipal(claims map[string]any) (Principal, ClaimResult) {
	res := ParseTenantsClaim(claims[ClaimTenants])

	p := Principal{
		Tenants: res.Tenants(),
		Roles:   NewRoleSet(ParseGroupsClaim(claims[ClaimGroups])...),
	}
	if s, isString := claims[ClaimSubject].(string); isString {
		p.Subject = s
	}
	if s, isString := claims[ClaimEmail].(string); isString {
		p.Email = s
	}
	return p, res
}

// Actor identifies the principal in audit records.
func (p Principal) Actor() string {
	if p.Email != "" {
		return p.Email
	}
	return p.Subject
}

// HasTenant reports whether the principal may act as tenant. Tenant names
// are compared exactly.
func (p Principal) HasTenant(tenant string) bool {
	if tenant == "" {
		return false
	}
	for _, t := range p.Tenants {
		if t == tenant {
			return true
		}
	}
	return false
}

func (p Principal) HasRole(role string) bool {
	return p.Roles.Has(role)
}

// HasRoleInTenant requires both the role and the tenant.
func (p Principal) HasRoleInTenant(role, tenant string) bool {
	return p.HasRole(role) && p.HasTenant(tenant)
}

// IsTenantAdmin reports whether the principal administers tenant.
func (p Principal) IsTenantAdmin(tenant string) bool {
	return p.HasRoleInTenant(RoleTenantAdmin, tenant)
}

func (p Principal) IsSysAdmin() bool {
	return p.HasRole(RoleSysAdmin)
}
