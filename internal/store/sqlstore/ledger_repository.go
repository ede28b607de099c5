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
	"fmt"
	"strings"
	"time"

	"github.com/myadmin/myadmin/internal/ledger"
)

var mutatieColumns = []string{
	"id", "transaction_date", "description", "amount", "debet", "credit",
	"ref1", "ref2", "ref3", "ref4", "administration",
}

const insertMutatie = `INSERT INTO mutaties
	(transaction_date, description, amount, debet, credit, ref1, ref2, ref3, ref4, administration)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// LedgerRepository implements ledger.Repository on the mutaties table.
type LedgerRepository struct {
	db *DB
}

func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func insertArgs(tx *ledger.Transaction) []any {
	return []any{
		tx.Date, tx.Description, tx.Amount, tx.Debet, tx.Credit,
		tx.Ref1, tx.Ref2, tx.Ref3, tx.Ref4, tx.Administration,
	}
}

// Insert stores tx and sets its ID.
func (r *LedgerRepository) Insert(ctx context.Context, tx *ledger.Transaction) error {
	if tx.Administration == "" {
		return ledger.ErrTenantRequired
	}
	id, err := r.db.insertReturningID(ctx, r.db.sql, insertMutatie, insertArgs(tx)...)
	if err != nil {
		return fmt.Errorf("failed to insert mutatie: %w", err)
	}
	tx.ID = id
	return nil
}

// InsertBatch stores all rows in one database transaction. Every row must
// belong to administration.
func (r *LedgerRepository) InsertBatch(ctx context.Context, administration string, txs []*ledger.Transaction) error {
	if administration == "" {
		return ledger.ErrTenantRequired
	}
	for _, tx := range txs {
		if tx.Administration != administration {
			return ledger.ErrTenantMismatch
		}
	}

	sqlTx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	for _, tx := range txs {
		id, err := r.db.insertReturningID(ctx, sqlTx, insertMutatie, insertArgs(tx)...)
		if err != nil {
			return fmt.Errorf("failed to insert mutatie: %w", err)
		}
		tx.ID = id
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// List returns rows of administration, newest first.
func (r *LedgerRepository) List(ctx context.Context, administration string, f ledger.Filter) ([]*ledger.Transaction, error) {
	f = f.Normalize()
	b := r.db.scoper().Select("mutaties", mutatieColumns...).ForTenant(administration)
	if !f.From.IsZero() {
		b.Where("transaction_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		b.Where("transaction_date <= ?", f.To)
	}
	if f.Account != "" {
		b.Where("debet = ? OR credit = ?", f.Account, f.Account)
	}
	b.OrderBy("transaction_date DESC", "id DESC").Limit(f.Limit).Offset(f.Offset)
	return r.query(ctx, b.Build)
}

// LatestByDescriptionPrefix returns the newest row whose description
// starts with prefix.
func (r *LedgerRepository) LatestByDescriptionPrefix(ctx context.Context, administration, prefix string) (*ledger.Transaction, error) {
	b := r.db.scoper().Select("mutaties", mutatieColumns...).
		Where("description LIKE ?", escapeLike(prefix)+"%").
		ForTenant(administration).
		OrderBy("transaction_date DESC", "id DESC").
		Limit(1)
	rows, err := r.query(ctx, b.Build)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ledger.ErrNotFound
	}
	return rows[0], nil
}

// History returns rows booked on account since the given date.
func (r *LedgerRepository) History(ctx context.Context, administration, account string, since time.Time, limit int) ([]*ledger.Transaction, error) {
	b := r.db.scoper().Select("mutaties", mutatieColumns...).
		Where("debet = ? OR credit = ?", account, account).
		Where("transaction_date >= ?", since).
		ForTenant(administration).
		OrderBy("transaction_date DESC", "id DESC").
		Limit(limit)
	return r.query(ctx, b.Build)
}

func (r *LedgerRepository) query(ctx context.Context, build func() (string, []any, error)) ([]*ledger.Transaction, error) {
	q, args, err := build()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutaties: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Transaction
	for rows.Next() {
		var tx ledger.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.Date, &tx.Description, &tx.Amount, &tx.Debet, &tx.Credit,
			&tx.Ref1, &tx.Ref2, &tx.Ref3, &tx.Ref4, &tx.Administration,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mutatie: %w", err)
		}
		out = append(out, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mutaties: %w", err)
	}
	return out, nil
}

// escapeLike escapes LIKE wildcards with the default backslash escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
