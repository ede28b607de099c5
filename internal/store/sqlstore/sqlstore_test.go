package sqlstore

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN_MySQL(t *testing.T) {
	dsn, err := Config{Host: "db", Port: "3306", User: "myadmin", Password: "s3cret", Database: "finance"}.DSN()
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "myadmin", parsed.User)
	assert.Equal(t, "s3cret", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "finance", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "UTC", parsed.Loc.String())
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])
	assert.False(t, parsed.MultiStatements)
}

func TestConfig_DSN_Postgres(t *testing.T) {
	dsn, err := Config{Driver: DriverPostgres, Host: "pg", Port: "5432", User: "u", Password: "p", Database: "finance"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@pg:5432/finance?sslmode=disable", dsn)

	_, err = Config{Driver: "sqlite"}.DSN()
	assert.Error(t, err)
}

// TestPurpose: Validates that repository statements receive the administration predicate in the dialect of the driver.
// Scope: Unit Test
// Security: Multi-tenant Data Separation (CWE-284), SQL Injection (CWE-89)
// Expected: The tenant is bound as the last parameter; placeholders are renumbered for PostgreSQL.
// Test Case ID: SQL-01
func TestDB_Scoped(t *testing.T) {
	const q = `DELETE FROM user_roles WHERE email = ? AND role = ?`
	args := []any{"a@example.com", "Finance_Read"}

	got, gotArgs, err := Wrap(nil, DriverMySQL).scoped(q, args, "GoodwinSolutions")
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM user_roles WHERE email = ? AND role = ? AND administration = ?`, got)
	assert.Equal(t, []any{"a@example.com", "Finance_Read", "GoodwinSolutions"}, gotArgs)

	got, gotArgs, err = Wrap(nil, DriverPostgres).scoped(q, args, "GoodwinSolutions")
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM user_roles WHERE email = $1 AND role = $2 AND administration = $3`, got)
	assert.Equal(t, []any{"a@example.com", "Finance_Read", "GoodwinSolutions"}, gotArgs)

	_, _, err = Wrap(nil, DriverMySQL).scoped(q, args, "")
	assert.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	script := `-- schema
CREATE TABLE a (
    id INT
);

-- second
CREATE INDEX idx_a ON a (id);
INSERT INTO a VALUES (1)`

	stmts := SplitStatements(script)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a (\n    id INT\n)", stmts[0])
	assert.Equal(t, "CREATE INDEX idx_a ON a (id)", stmts[1])
	assert.Equal(t, "INSERT INTO a VALUES (1)", stmts[2])

	assert.Empty(t, SplitStatements("-- nothing\n\n"))
}

func TestMigrations_PerDialect(t *testing.T) {
	for _, driver := range []string{DriverMySQL, DriverPostgres} {
		t.Run(driver, func(t *testing.T) {
			migrations, err := Wrap(nil, driver).Migrations()
			require.NoError(t, err)
			require.NotEmpty(t, migrations)
			assert.Equal(t, "001_initial_schema", migrations[0].Version)
			for _, table := range []string{"mutaties", "tenant_modules", "tenant_config", "user_roles"} {
				assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS "+table)
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "Albert Heijn", escapeLike("Albert Heijn"))
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1146}))
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isDuplicate(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, isDuplicate(fmt.Errorf("boom")))
}

func TestDB_PurgeStatements(t *testing.T) {
	stmts, err := Wrap(nil, DriverPostgres).purgeStatements("GoodwinSolutions")
	require.NoError(t, err)
	require.Len(t, stmts, len(TenantTables))
	for i, s := range stmts {
		assert.Equal(t, "DELETE FROM "+TenantTables[i]+" WHERE administration = $1", s.query)
		assert.Equal(t, []any{"GoodwinSolutions"}, s.args)
	}

	_, err = Wrap(nil, DriverMySQL).purgeStatements("")
	assert.Error(t, err)
}
