package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/myadmin/myadmin/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockModuleRepo struct {
	mock.Mock
}

func (m *mockModuleRepo) ListModules(ctx context.Context, tenant string) ([]ModuleSetting, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ModuleSetting), args.Error(1)
}

func (m *mockModuleRepo) SetModule(ctx context.Context, setting ModuleSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

type mockConfigRepo struct {
	mock.Mock
}

func (m *mockConfigRepo) GetConfig(ctx context.Context, tenant, key string) (*ConfigEntry, error) {
	args := m.Called(ctx, tenant, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConfigEntry), args.Error(1)
}

func (m *mockConfigRepo) ListConfig(ctx context.Context, tenant string) ([]ConfigEntry, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ConfigEntry), args.Error(1)
}

func (m *mockConfigRepo) SetConfig(ctx context.Context, entry *ConfigEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockRoleRepo struct {
	mock.Mock
}

func (m *mockRoleRepo) AssignRole(ctx context.Context, role *UserRole) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *mockRoleRepo) RevokeRole(ctx context.Context, tenant, email, role string) error {
	args := m.Called(ctx, tenant, email, role)
	return args.Error(0)
}

func (m *mockRoleRepo) ListTenantRoles(ctx context.Context, tenant string) ([]*UserRole, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*UserRole), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

type serviceFixture struct {
	modules *mockModuleRepo
	config  *mockConfigRepo
	roles   *mockRoleRepo
	audit   *mockAudit
	svc     *Service
}

func newServiceFixture(t *testing.T, secrets *SecretBox) *serviceFixture {
	f := &serviceFixture{
		modules: new(mockModuleRepo),
		config:  new(mockConfigRepo),
		roles:   new(mockRoleRepo),
		audit:   new(mockAudit),
	}
	f.svc = NewService(f.modules, f.config, f.roles, secrets, f.audit)
	return f
}

func TestService_Modules_Defaults(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	f.modules.On("ListModules", ctx, "T").Return([]ModuleSetting{
		{Tenant: "T", Module: ModuleFinance, Enabled: true},
	}, nil)

	settings, err := f.svc.Modules(ctx, "T")
	require.NoError(t, err)
	require.Len(t, settings, 3)
	assert.Equal(t, ModuleFinance, settings[0].Module)
	assert.True(t, settings[0].Enabled)
	assert.Equal(t, ModuleSTR, settings[1].Module)
	assert.False(t, settings[1].Enabled)
	assert.Equal(t, ModuleTenantAdmin, settings[2].Module)
	assert.True(t, settings[2].Enabled)

	enabled, err := f.svc.ModuleEnabled(ctx, "T", ModuleSTR)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestService_SetModule(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	f.modules.On("SetModule", ctx, mock.MatchedBy(func(s ModuleSetting) bool {
		return s.Tenant == "T" && s.Module == ModuleSTR && s.Enabled && s.UpdatedBy == "admin@example.com"
	})).Return(nil)
	f.audit.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeModuleChanged && e.Tenant == "T" && e.Resource == "STR"
	})).Return()

	require.NoError(t, f.svc.SetModule(ctx, "admin@example.com", "T", ModuleSTR, true))

	assert.ErrorIs(t, f.svc.SetModule(ctx, "admin@example.com", "T", Module("XYZ"), true), ErrInvalidModule)
	assert.ErrorIs(t, f.svc.SetModule(ctx, "admin@example.com", "T", ModuleTenantAdmin, false), ErrInvalidModule)
	assert.ErrorIs(t, f.svc.SetModule(ctx, "admin@example.com", "", ModuleSTR, true), ErrNoTenant)

	f.modules.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

// TestPurpose: Validates that secret config values are encrypted before storage and masked in listings.
// Scope: Unit Test
// Security: Protection of stored credentials (CWE-312), Data Masking (CWE-532)
// Expected: The repository receives ciphertext; the returned entry and listings show the mask; ConfigValue decrypts.
// Test Case ID: TEN-06
func TestService_SetConfig_Secret(t *testing.T) {
	box := testSecretBox(t)
	f := newServiceFixture(t, box)
	ctx := context.Background()

	var stored *ConfigEntry
	f.config.On("SetConfig", ctx, mock.AnythingOfType("*tenant.ConfigEntry")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*ConfigEntry) }).
		Return(nil)
	f.audit.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		_, leaked := e.Metadata["value"]
		return e.Type == audit.TypeConfigSet && !leaked
	})).Return()

	entry, err := f.svc.SetConfig(ctx, "admin@example.com", "T", "google_drive.token", "abc123", true)
	require.NoError(t, err)
	assert.Equal(t, MaskedValue, entry.Value)
	require.NotNil(t, stored)
	assert.NotEqual(t, "abc123", stored.Value)
	assert.True(t, stored.Secret)

	f.config.On("ListConfig", ctx, "T").Return([]ConfigEntry{*stored, {Tenant: "T", Key: "a.plain", Value: "x"}}, nil)
	entries, err := f.svc.Config(ctx, "T")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.plain", entries[0].Key)
	assert.Equal(t, "x", entries[0].Value)
	assert.Equal(t, MaskedValue, entries[1].Value)

	f.config.On("GetConfig", ctx, "T", "google_drive.token").Return(stored, nil)
	plain, err := f.svc.ConfigValue(ctx, "T", "google_drive.token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", plain)
}

func TestService_SetConfig_Validation(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SetConfig(ctx, "a", "T", "Bad Key!", "v", false)
	assert.ErrorIs(t, err, ErrInvalidConfigKey)

	_, err = f.svc.SetConfig(ctx, "a", "T", "api.token", "v", true)
	assert.ErrorIs(t, err, ErrSecretsDisabled)

	_, err = f.svc.SetConfig(ctx, "a", "", "api.token", "v", false)
	assert.ErrorIs(t, err, ErrNoTenant)

	f.config.AssertNotCalled(t, "SetConfig", mock.Anything, mock.Anything)
}

func TestService_AssignRole(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	f.roles.On("AssignRole", ctx, mock.MatchedBy(func(r *UserRole) bool {
		_, err := uuid.Parse(r.ID)
		return err == nil && r.Tenant == "T" && r.Email == "new@example.com" && r.Role == RoleFinanceRead && r.GrantedBy == "admin@example.com"
	})).Return(nil)
	f.audit.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeRoleAssigned && e.Resource == RoleFinanceRead
	})).Return()

	require.NoError(t, f.svc.AssignRole(ctx, "admin@example.com", "T", " New@Example.com ", RoleFinanceRead))

	f.roles.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

// TestPurpose: Validates that tenant administrators cannot grant platform roles.
// Scope: Unit Test
// Security: Privilege Escalation Prevention (CWE-269)
// Expected: Assigning SysAdmin fails with ErrInvalidRole and nothing is stored.
// Test Case ID: TEN-07
func TestService_AssignRole_RejectsSysAdmin(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	err := f.svc.AssignRole(ctx, "admin@example.com", "T", "user@example.com", RoleSysAdmin)
	assert.ErrorIs(t, err, ErrInvalidRole)

	err = f.svc.AssignRole(ctx, "admin@example.com", "T", "not-an-email", RoleFinanceRead)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	f.roles.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything)
}

func TestService_RevokeRole(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	f.roles.On("RevokeRole", ctx, "T", "user@example.com", RoleFinanceRead).Return(nil).Once()
	f.roles.On("RevokeRole", ctx, "T", "user@example.com", RoleSTRRead).Return(ErrRoleNotFound).Once()
	f.audit.On("Log", ctx, mock.Anything).Return().Once()

	require.NoError(t, f.svc.RevokeRole(ctx, "admin@example.com", "T", "user@example.com", RoleFinanceRead))
	assert.ErrorIs(t, f.svc.RevokeRole(ctx, "admin@example.com", "T", "user@example.com", RoleSTRRead), ErrRoleNotFound)

	f.audit.AssertExpectations(t)
}

func TestService_Users(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	f.roles.On("ListTenantRoles", ctx, "T").Return([]*UserRole{
		{Tenant: "T", Email: "b@example.com", Role: RoleFinanceRead},
		{Tenant: "T", Email: "a@example.com", Role: RoleTenantAdmin},
		{Tenant: "T", Email: "b@example.com", Role: RoleFinanceCRUD},
	}, nil)

	users, err := f.svc.Users(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, []User{
		{Email: "a@example.com", Roles: []string{RoleTenantAdmin}},
		{Email: "b@example.com", Roles: []string{RoleFinanceCRUD, RoleFinanceRead}},
	}, users)
}
