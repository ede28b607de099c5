//go:build integration

package sqlstore

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myadmin/myadmin/internal/ledger"
	"github.com/myadmin/myadmin/internal/tenant"
)

var testDB *DB

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not connect to docker: %s", err)
	}

	resource, err := pool.Run("mysql", "8.0", []string{
		"MYSQL_ROOT_PASSWORD=secret",
		"MYSQL_DATABASE=myadmin",
	})
	if err != nil {
		log.Fatalf("could not start mysql: %s", err)
	}

	cfg := Config{
		Driver:   DriverMySQL,
		Host:     "localhost",
		Port:     resource.GetPort("3306/tcp"),
		User:     "root",
		Password: "secret",
		Database: "myadmin",
	}
	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		db, err := Open(context.Background(), cfg)
		if err != nil {
			return err
		}
		testDB = db
		return nil
	})
	if err != nil {
		_ = pool.Purge(resource)
		log.Fatalf("could not connect to mysql: %s", err)
	}

	if _, err := testDB.Migrate(context.Background()); err != nil {
		_ = pool.Purge(resource)
		log.Fatalf("migrate: %s", err)
	}

	code := m.Run()

	_ = testDB.Close()
	_ = pool.Purge(resource)
	os.Exit(code)
}

func tx(admin, desc, debet, credit, amount string, date time.Time) *ledger.Transaction {
	return &ledger.Transaction{
		Date:           date,
		Description:    desc,
		Amount:         decimal.RequireFromString(amount),
		Debet:          debet,
		Credit:         credit,
		Administration: admin,
	}
}

// TestPurpose: Validates that ledger reads never return mutaties of another administration.
// Scope: Database Integration Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: Each administration sees only its own rows, for listing, template lookup and pattern history.
// Test Case ID: ISO-01
func TestLedgerRepository_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepository(testDB)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, tx("GoodwinSolutions", "Albert Heijn 1234", "4000", "1002", "12.50", day)))
	require.NoError(t, repo.InsertBatch(ctx, "PeterPrive", []*ledger.Transaction{
		tx("PeterPrive", "Albert Heijn 9876", "4100", "1010", "99.95", day.AddDate(0, 0, 1)),
		tx("PeterPrive", "Salaris maart", "1010", "8000", "2500.00", day.AddDate(0, 0, 2)),
	}))

	goodwin, err := repo.List(ctx, "GoodwinSolutions", ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, goodwin, 1)
	assert.Equal(t, "GoodwinSolutions", goodwin[0].Administration)
	assert.True(t, decimal.RequireFromString("12.50").Equal(goodwin[0].Amount))
	assert.NotZero(t, goodwin[0].ID)

	prive, err := repo.List(ctx, "PeterPrive", ledger.Filter{Account: "1010"})
	require.NoError(t, err)
	require.Len(t, prive, 2)
	assert.Equal(t, "Salaris maart", prive[0].Description)

	latest, err := repo.LatestByDescriptionPrefix(ctx, "GoodwinSolutions", "Albert Heijn")
	require.NoError(t, err)
	assert.Equal(t, "Albert Heijn 1234", latest.Description)

	_, err = repo.LatestByDescriptionPrefix(ctx, "GoodwinSolutions", "Salaris")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	history, err := repo.History(ctx, "GoodwinSolutions", "1010", day.AddDate(-1, 0, 0), 100)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = repo.List(ctx, "", ledger.Filter{})
	assert.Error(t, err)
}

func TestLedgerRepository_InsertBatchRejectsForeignRows(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepository(testDB)
	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	err := repo.InsertBatch(ctx, "Isolated", []*ledger.Transaction{
		tx("Isolated", "ok", "1", "2", "1.00", day),
		tx("Other", "foreign", "1", "2", "1.00", day),
	})
	assert.ErrorIs(t, err, ledger.ErrTenantMismatch)

	rows, err := repo.List(ctx, "Isolated", ledger.Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// TestPurpose: Validates that tenant_config, module switches and role grants are scoped by administration.
// Scope: Database Integration Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: Writes in one administration are invisible to and cannot be revoked from another.
// Test Case ID: ISO-02
func TestTenantRepository_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewTenantRepository(testDB)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.SetModule(ctx, tenant.ModuleSetting{Tenant: "A", Module: tenant.ModuleFinance, Enabled: true, UpdatedAt: now, UpdatedBy: "admin@a.nl"}))
	require.NoError(t, repo.SetModule(ctx, tenant.ModuleSetting{Tenant: "A", Module: tenant.ModuleFinance, Enabled: false, UpdatedAt: now, UpdatedBy: "admin@a.nl"}))
	mods, err := repo.ListModules(ctx, "A")
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.False(t, mods[0].Enabled)
	mods, err = repo.ListModules(ctx, "B")
	require.NoError(t, err)
	assert.Empty(t, mods)

	require.NoError(t, repo.SetConfig(ctx, &tenant.ConfigEntry{Tenant: "A", Key: "google_drive_folder", Value: "abc", UpdatedAt: now}))
	require.NoError(t, repo.SetConfig(ctx, &tenant.ConfigEntry{Tenant: "A", Key: "google_drive_folder", Value: "def", UpdatedAt: now}))
	entry, err := repo.GetConfig(ctx, "A", "google_drive_folder")
	require.NoError(t, err)
	assert.Equal(t, "def", entry.Value)
	_, err = repo.GetConfig(ctx, "B", "google_drive_folder")
	assert.ErrorIs(t, err, tenant.ErrConfigNotFound)

	grant := &tenant.UserRole{ID: "6f1c5a5e-0000-4000-8000-000000000001", Tenant: "A", Email: "user@a.nl", Role: tenant.RoleFinanceRead, GrantedAt: now}
	require.NoError(t, repo.AssignRole(ctx, grant))
	dup := *grant
	dup.ID = "6f1c5a5e-0000-4000-8000-000000000002"
	assert.ErrorIs(t, repo.AssignRole(ctx, &dup), tenant.ErrRoleAlreadyExists)

	assert.ErrorIs(t, repo.RevokeRole(ctx, "B", "user@a.nl", tenant.RoleFinanceRead), tenant.ErrRoleNotFound)
	roles, err := repo.ListTenantRoles(ctx, "A")
	require.NoError(t, err)
	require.Len(t, roles, 1)

	require.NoError(t, repo.RevokeRole(ctx, "A", "user@a.nl", tenant.RoleFinanceRead))
	roles, err = repo.ListTenantRoles(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestMigrate_Idempotent(t *testing.T) {
	applied, err := testDB.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

// TestPurpose: Validates that purging one administration leaves every other administration intact.
// Scope: Database Integration Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: All rows of the purged tenant are removed; the other tenant's mutaties and roles remain.
// Test Case ID: ISO-03
func TestDB_PurgeTenant(t *testing.T) {
	ctx := context.Background()
	ledgerRepo := NewLedgerRepository(testDB)
	tenantRepo := NewTenantRepository(testDB)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, ledgerRepo.Insert(ctx, tx("PurgeMe", "Huur mei", "4300", "1002", "950.00", day)))
	require.NoError(t, ledgerRepo.Insert(ctx, tx("KeepMe", "Huur mei", "4300", "1002", "800.00", day)))
	require.NoError(t, tenantRepo.AssignRole(ctx, &tenant.UserRole{ID: "6f1c5a5e-0000-4000-8000-000000000010", Tenant: "PurgeMe", Email: "a@purge.nl", Role: tenant.RoleFinanceRead, GrantedAt: now}))
	require.NoError(t, tenantRepo.AssignRole(ctx, &tenant.UserRole{ID: "6f1c5a5e-0000-4000-8000-000000000011", Tenant: "KeepMe", Email: "a@keep.nl", Role: tenant.RoleFinanceRead, GrantedAt: now}))

	removed, err := testDB.PurgeTenant(ctx, "PurgeMe")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed["mutaties"])
	assert.Equal(t, int64(1), removed["user_roles"])

	rows, err := ledgerRepo.List(ctx, "PurgeMe", ledger.Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	kept, err := ledgerRepo.List(ctx, "KeepMe", ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, kept, 1)
	roles, err := tenantRepo.ListTenantRoles(ctx, "KeepMe")
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	_, err = testDB.PurgeTenant(ctx, "")
	assert.Error(t, err)
}
