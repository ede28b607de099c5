package tenant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that a proper JSON array claim resolves to exactly that array.
// Scope: Unit Test
// Security: Authorization claim integrity
// Expected: The tenant list equals the claim array, in order, with status OK.
// Test Case ID: CLM-01
func TestParseTenantsClaim_JSONArray(t *testing.T) {
	var claims map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"custom:tenants":["GoodwinSolutions","PeterPrive"]}`), &claims))

	res := ParseTenantsClaim(claims[ClaimTenants])

	assert.Equal(t, ClaimOK, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"GoodwinSolutions", "PeterPrive"}, res.Tenants())
}

// TestPurpose: Validates that a double-encoded (escaped) JSON array string is unescaped before parsing.
// Scope: Unit Test
// Security: Authorization claim integrity
// Expected: `[\"A\",\"B\"]` resolves to ["A","B"].
// Test Case ID: CLM-02
func TestParseTenantsClaim_EscapedJSONString(t *testing.T) {
	var claims map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"custom:tenants":"[\\\"A\\\",\\\"B\\\"]"}`), &claims))
	require.Equal(t, `[\"A\",\"B\"]`, claims[ClaimTenants])

	res := ParseTenantsClaim(claims[ClaimTenants])

	assert.Equal(t, ClaimOK, res.Status)
	assert.Equal(t, []string{"A", "B"}, res.Tenants())
}

// TestPurpose: Validates that a missing claim yields no tenants.
// Scope: Unit Test
// Security: Fail-closed authorization (CWE-285)
// Expected: Status is Missing and the tenant list is empty.
// Test Case ID: CLM-03
func TestParseTenantsClaim_Missing(t *testing.T) {
	res := ParseTenantsClaim(nil)
	assert.Equal(t, ClaimMissing, res.Status)
	assert.Empty(t, res.Tenants())
	assert.NotNil(t, res.Tenants())

	res = ParseTenantsClaim("   ")
	assert.Equal(t, ClaimMissing, res.Status)
	assert.Empty(t, res.Tenants())
}

// TestPurpose: Validates that blank claim entries never become a tenant while the remaining entries are kept as given.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement (CWE-284)
// Expected: Empty and whitespace entries are dropped from every list shape; order and duplicates of real names are preserved.
// Test Case ID: CLM-04
func TestParseTenantsClaim_DropsBlankEntries(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"decoded array", []any{"", "PeterPrive", "PeterPrive"}, []string{"PeterPrive", "PeterPrive"}},
		{"string slice", []string{" ", "GoodwinSolutions", ""}, []string{"GoodwinSolutions"}},
		{"array string", `["", "  ", "A"]`, []string{"A"}},
		{"only blanks", []any{"", " "}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseTenantsClaim(tt.raw)
			assert.Equal(t, ClaimOK, res.Status)
			assert.Equal(t, tt.want, res.Tenants())
		})
	}
}

func TestParseTenantsClaim_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		status ClaimStatus
		want   []string
	}{
		{"single string", "GoodwinSolutions", ClaimOK, []string{"GoodwinSolutions"}},
		{"single string trimmed", "  PeterPrive ", ClaimOK, []string{"PeterPrive"}},
		{"json array string", `["A","B"]`, ClaimOK, []string{"A", "B"}},
		{"broken array string is one tenant", `[A,B`, ClaimOK, []string{"[A,B"}},
		{"escaped broken array string is one tenant", `[\"A\",`, ClaimOK, []string{`[\"A\",`}},
		{"string slice", []string{"X"}, ClaimOK, []string{"X"}},
		{"empty array", []any{}, ClaimOK, []string{}},
		{"array with number", []any{"A", 1.0}, ClaimMalformed, []string{}},
		{"array string with object", `["A",{"b":1}]`, ClaimMalformed, []string{}},
		{"number", 42.0, ClaimMalformed, []string{}},
		{"object", map[string]any{"a": "b"}, ClaimMalformed, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseTenantsClaim(tt.raw)
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.want, res.Tenants())
			if tt.status == ClaimMalformed {
				assert.ErrorIs(t, res.Err, ErrMalformedClaim)
			}
		})
	}
}

func TestParseTenantsClaim_ResultIsCopied(t *testing.T) {
	res := ParseTenantsClaim([]any{"A"})
	got := res.Tenants()
	got[0] = "B"
	assert.Equal(t, []string{"A"}, res.Tenants())
}

func TestParseGroupsClaim(t *testing.T) {
	assert.Equal(t, []string{"Tenant_Admin", "Finance_CRUD"}, ParseGroupsClaim([]any{"Tenant_Admin", "Finance_CRUD"}))
	assert.Equal(t, []string{"SysAdmin"}, ParseGroupsClaim("SysAdmin"))
	assert.Equal(t, []string{"A", "B"}, ParseGroupsClaim("A, B"))
	assert.Equal(t, []string{"A"}, ParseGroupsClaim([]any{"A", 3.0, ""}))
	assert.Nil(t, ParseGroupsClaim(nil))
	assert.Nil(t, ParseGroupsClaim(12.0))
}

func TestClaimStatus_String(t *testing.T) {
	assert.Equal(t, "ok", ClaimOK.String())
	assert.Equal(t, "missing", ClaimMissing.String())
	assert.Equal(t, "malformed", ClaimMalformed.String())
}
