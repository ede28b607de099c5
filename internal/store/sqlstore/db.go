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

// Package sqlstore implements the repositories on MySQL (go-sql-driver) or
// PostgreSQL (pgx). Every tenant-scoped statement is passed through
// sqlscope.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/myadmin/myadmin/internal/sqlscope"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

// Config holds database configuration
type Config struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the driver-specific connection string.
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case DriverMySQL, "":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.Host + ":" + c.Port
		mc.DBName = c.Database
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		mc.MultiStatements = false
		return mc.FormatDSN(), nil
	case DriverPostgres:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host + ":" + c.Port,
			Path:     "/" + c.Database,
			RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// DB wraps a database/sql pool with the dialect of its driver.
type DB struct {
	sql     *sql.DB
	driver  string
	dialect sqlscope.Dialect
}

// Open connects and pings the database.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverMySQL
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return Wrap(pool, cfg.Driver), nil
}

// Wrap adopts an existing pool.
func Wrap(pool *sql.DB, driver string) *DB {
	dialect := sqlscope.Question
	if driver == DriverPostgres {
		dialect = sqlscope.Dollar
	}
	return &DB{sql: pool, driver: driver, dialect: dialect}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.sql.Close()
}

// Ping checks connectivity, for readiness probes.
func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

func (db *DB) postgres() bool {
	return db.driver == DriverPostgres
}

// scoper returns the tenant scoper in this database's dialect.
func (db *DB) scoper() sqlscope.Scoper {
	return sqlscope.Scoper{Column: sqlscope.Administration, Dialect: db.dialect}
}

// scoped adds the tenant predicate to a statement written with '?'
// placeholders and rebinds it for the driver.
func (db *DB) scoped(query string, args []any, administration string) (string, []any, error) {
	q, a, err := sqlscope.AddTenantFilter(query, args, administration)
	if err != nil {
		return "", nil, err
	}
	return sqlscope.Rebind(db.dialect, q), a, nil
}

func (db *DB) rebind(query string) string {
	return sqlscope.Rebind(db.dialect, query)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertReturningID runs an INSERT written with '?' placeholders and
// returns the generated id. PostgreSQL has no LastInsertId, so the
// statement gets a RETURNING clause there.
func (db *DB) insertReturningID(ctx context.Context, ex execer, query string, args ...any) (int64, error) {
	if db.postgres() {
		var id int64
		if err := ex.QueryRowContext(ctx, db.rebind(query)+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// isDuplicate reports a unique key violation on either driver.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
