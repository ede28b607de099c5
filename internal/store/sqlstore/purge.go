package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myadmin/myadmin/internal/observability/logger"
)

// TenantTables lists every table keyed by administration, children first.
var TenantTables = []string{"mutaties", "tenant_config", "tenant_modules", "user_roles"}

type purgeStatement struct {
	table string
	query string
	args  []any
}

func (db *DB) purgeStatements(administration string) ([]purgeStatement, error) {
	if administration == "" {
		return nil, errors.New("purge requires an administration")
	}
	out := make([]purgeStatement, 0, len(TenantTables))
	for _, table := range TenantTables {
		q, args, err := db.scoped("DELETE FROM "+table, nil, administration)
		if err != nil {
			return nil, err
		}
		out = append(out, purgeStatement{table: table, query: q, args: args})
	}
	return out, nil
}

// PurgeTenant deletes every row of administration in one transaction and
// returns the rows removed per table.
func (db *DB) PurgeTenant(ctx context.Context, administration string) (map[string]int64, error) {
	stmts, err := db.purgeStatements(administration)
	if err != nil {
		return nil, err
	}

	sqlTx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	removed := make(map[string]int64, len(stmts))
	for _, s := range stmts {
		res, err := sqlTx.ExecContext(ctx, s.query, s.args...)
		if err != nil {
			return nil, fmt.Errorf("failed to purge %s: %w", s.table, err)
		}
		n, _ := res.RowsAffected()
		removed[s.table] = n
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purge: %w", err)
	}

	slog.WarnContext(ctx, "tenant data purged",
		logger.Component("sqlstore"),
		logger.Tenant(administration),
		slog.Any("rows", removed),
	)
	return removed, nil
}
