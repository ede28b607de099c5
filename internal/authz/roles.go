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

package authz

import (
	"strings"

	"github.com/myadmin/myadmin/internal/tenant"
)

// Permissions
const (
	PermFinanceRead   = "finance:read"
	PermFinanceWrite  = "finance:write"
	PermFinanceExport = "finance:export"
	PermSTRRead       = "str:read"
	PermSTRWrite      = "str:write"
	PermTenantManage  = "tenant:manage"

	PermPlatformModules = "platform:modules"
	PermPlatformCache   = "platform:cache"
)

// rolePermissions maps each role to the permissions it grants. A trailing
// "*" grants every permission with that prefix. SysAdmin holds platform
// permissions only; it has no tenant data permissions.
var rolePermissions = map[string][]string{
	tenant.RoleSysAdmin:      {"platform:*"},
	tenant.RoleTenantAdmin:   {PermTenantManage},
	tenant.RoleFinanceCRUD:   {PermFinanceRead, PermFinanceWrite},
	tenant.RoleFinanceRead:   {PermFinanceRead},
	tenant.RoleFinanceExport: {PermFinanceRead, PermFinanceExport},
	tenant.RoleSTRCRUD:       {PermSTRRead, PermSTRWrite},
	tenant.RoleSTRRead:       {PermSTRRead},
}

// modulePermissions gives the permission required per module and access level.
var modulePermissions = map[tenant.Module]map[Access]string{
	tenant.ModuleFinance: {
		AccessRead:   PermFinanceRead,
		AccessWrite:  PermFinanceWrite,
		AccessExport: PermFinanceExport,
	},
	tenant.ModuleSTR: {
		AccessRead:  PermSTRRead,
		AccessWrite: PermSTRWrite,
	},
	tenant.ModuleTenantAdmin: {
		AccessRead:  PermTenantManage,
		AccessWrite: PermTenantManage,
	},
}

// PermissionsFor returns the permissions granted by role.
func PermissionsFor(role string) []string {
	return rolePermissions[role]
}

// HasPermission reports whether any of roles grants permission.
func HasPermission(roles tenant.RoleSet, permission string) bool {
	for role := range roles {
		for _, p := range rolePermissions[role] {
			if p == permission {
				return true
			}
			if strings.HasSuffix(p, "*") && strings.HasPrefix(permission, strings.TrimSuffix(p, "*")) {
				return true
			}
		}
	}
	return false
}
