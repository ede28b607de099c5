package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myadmin/myadmin/internal/audit"
	"github.com/myadmin/myadmin/internal/tenant"
)

// TestPurpose: Validates tenant_config management including secret masking.
// Scope: Integration Test
// Security: Secret handling (CWE-312), Tenant isolation
// Expected: Secrets are stored encrypted and returned masked; entries of one tenant are invisible to another.
// Test Case ID: TEN-05
func TestTenantConfig(t *testing.T) {
	srv := newTestServer(t)
	admin := signToken(t, "admin@goodwin.nl", `["GoodwinSolutions","PeterPrive"]`, tenant.RoleTenantAdmin)

	rr := srv.do(http.MethodPost, "/api/tenant/config", admin, "GoodwinSolutions",
		strings.NewReader(`{"key":"google_drive_folder","value":"1AbC"}`), "application/json")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = srv.do(http.MethodPost, "/api/tenant/config", admin, "GoodwinSolutions",
		strings.NewReader(`{"key":"bank_api_token","value":"s3cr3t","is_secret":true}`), "application/json")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "s3cr3t")

	stored, err := srv.tenants.GetConfig(t.Context(), "GoodwinSolutions", "bank_api_token")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cr3t", stored.Value)

	rr = srv.do(http.MethodGet, "/api/tenant/config", admin, "GoodwinSolutions", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []tenant.ConfigEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "bank_api_token", entries[0].Key)
	assert.Equal(t, tenant.MaskedValue, entries[0].Value)
	assert.Equal(t, "1AbC", entries[1].Value)

	rr = srv.do(http.MethodGet, "/api/tenant/config", admin, "PeterPrive", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = srv.do(http.MethodPost, "/api/tenant/config", admin, "GoodwinSolutions",
		strings.NewReader(`{"key":"Bad Key!","value":"x"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(http.MethodPost, "/api/tenant/config", admin, "GoodwinSolutions",
		strings.NewReader(`{"key":"a","value":"x","unexpected":1}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Len(t, srv.audit.ofType(audit.TypeConfigSet), 2)
}

// TestPurpose: Validates role assignment and revocation within the active tenant.
// Scope: Integration Test
// Security: Privilege management (CWE-269)
// Expected: Assignable roles are granted once; SysAdmin cannot be granted; revoking in another tenant is 404.
// Test Case ID: TEN-06
func TestTenantRoles(t *testing.T) {
	srv := newTestServer(t)
	admin := signToken(t, "admin@goodwin.nl", `["GoodwinSolutions","PeterPrive"]`, tenant.RoleTenantAdmin)

	assign := func(active, user, role string) int {
		rr := srv.do(http.MethodPost, "/api/tenant/users/"+user+"/roles", admin, active,
			strings.NewReader(`{"role":"`+role+`"}`), "application/json")
		return rr.Code
	}

	assert.Equal(t, http.StatusCreated, assign("GoodwinSolutions", "Clerk@Goodwin.nl", tenant.RoleFinanceRead))
	assert.Equal(t, http.StatusConflict, assign("GoodwinSolutions", "clerk@goodwin.nl", tenant.RoleFinanceRead))
	assert.Equal(t, http.StatusBadRequest, assign("GoodwinSolutions", "clerk@goodwin.nl", tenant.RoleSysAdmin))
	assert.Equal(t, http.StatusBadRequest, assign("GoodwinSolutions", "not-an-email", tenant.RoleFinanceRead))

	rr := srv.do(http.MethodGet, "/api/tenant/users", admin, "GoodwinSolutions", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var users TenantUsersResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, "clerk@goodwin.nl", users.Users[0].Email)
	assert.Equal(t, []string{tenant.RoleFinanceRead}, users.Users[0].Roles)
	assert.Contains(t, users.AssignableRoles, tenant.RoleTenantAdmin)
	assert.NotContains(t, users.AssignableRoles, tenant.RoleSysAdmin)

	rr = srv.do(http.MethodDelete, "/api/tenant/users/clerk@goodwin.nl/roles/Finance_Read", admin, "PeterPrive", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = srv.do(http.MethodDelete, "/api/tenant/users/clerk@goodwin.nl/roles/Finance_Read", admin, "GoodwinSolutions", nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	assert.Len(t, srv.audit.ofType(audit.TypeRoleAssigned), 1)
	assert.Len(t, srv.audit.ofType(audit.TypeRoleRevoked), 1)
}

func TestTenantModules(t *testing.T) {
	srv := newTestServer(t)
	admin := signToken(t, "admin@goodwin.nl", `["GoodwinSolutions"]`, tenant.RoleTenantAdmin)

	rr := srv.do(http.MethodGet, "/api/tenant/modules", admin, "GoodwinSolutions", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var mods []tenant.ModuleSetting
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mods))
	require.Len(t, mods, 3)
	assert.False(t, mods[0].Enabled)
	assert.True(t, mods[2].Enabled, "tenant administration is always on")

	rr = srv.do(http.MethodPut, "/api/tenant/modules/TENADMIN", admin, "GoodwinSolutions",
		strings.NewReader(`{"enabled":false}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(http.MethodPut, "/api/tenant/modules/PAYROLL", admin, "GoodwinSolutions",
		strings.NewReader(`{"enabled":true}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
