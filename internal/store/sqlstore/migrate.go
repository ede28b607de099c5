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

package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/myadmin/myadmin/internal/observability/logger"
)

//go:embed migrations
var migrationFS embed.FS

// Migration is one embedded schema script.
type Migration struct {
	Version string
	SQL     string
}

// Migrations returns the scripts for the database's dialect in order.
func (db *DB) Migrations() ([]Migration, error) {
	dir := "migrations/mysql"
	if db.postgres() {
		dir = "migrations/postgres"
	}
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		body, err := fs.ReadFile(migrationFS, dir+"/"+e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: strings.TrimSuffix(e.Name(), ".up.sql"), SQL: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Migrate applies pending migrations and records them in
// schema_migrations. It returns the versions applied.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	if _, err := db.sql.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(100) NOT NULL PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	migrations, err := db.Migrations()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range migrations {
		var n int
		if err := db.sql.QueryRowContext(ctx, db.rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), m.Version).Scan(&n); err != nil {
			return applied, fmt.Errorf("failed to check migration %s: %w", m.Version, err)
		}
		if n > 0 {
			continue
		}

		// multiStatements is off, so each statement gets its own Exec.
		for _, stmt := range SplitStatements(m.SQL) {
			if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
				return applied, fmt.Errorf("migration %s failed: %w", m.Version, err)
			}
		}
		if _, err := db.sql.ExecContext(ctx, db.rebind(`INSERT INTO schema_migrations (version) VALUES (?)`), m.Version); err != nil {
			return applied, fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		slog.InfoContext(ctx, "migration applied", logger.Component("sqlstore"), slog.String("version", m.Version))
		applied = append(applied, m.Version)
	}
	return applied, nil
}

// SplitStatements splits a script on semicolons that end a line. Line
// comments are dropped.
func SplitStatements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(cur.String()), ";")
			out = append(out, stmt)
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
