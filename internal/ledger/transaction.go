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

// Package ledger holds the mutaties ledger: tenant-tagged double-entry
// rows, bank statement import and counter-account pattern learning.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrTenantRequired = errors.New("transaction has no administration")
	ErrTenantMismatch = errors.New("transaction administration does not match active tenant")
	ErrInvalidAccount = errors.New("debet and credit accounts are required")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrNotFound       = errors.New("transaction not found")
	ErrEmptyBatch     = errors.New("import batch is empty")
)

// DateLayout is the wire format of transaction dates.
const DateLayout = "2006-01-02"

// Transaction is one row of the mutaties table. Amount is always positive;
// Debet and Credit carry the direction.
type Transaction struct {
	ID             int64           `json:"id"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Debet          string          `json:"debet"`
	Credit         string          `json:"credit"`
	Ref1           string          `json:"ref1,omitempty"`
	Ref2           string          `json:"ref2,omitempty"`
	Ref3           string          `json:"ref3,omitempty"`
	Ref4           string          `json:"ref4,omitempty"`
	Administration string          `json:"administration"`
}

// Validate checks the fields required for insertion.
func (t *Transaction) Validate() error {
	if t.Administration == "" {
		return ErrTenantRequired
	}
	if t.Debet == "" || t.Credit == "" {
		return ErrInvalidAccount
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Filter narrows a transaction listing. Zero values mean no restriction.
type Filter struct {
	From    time.Time `json:"from,omitempty"`
	To      time.Time `json:"to,omitempty"`
	Account string    `json:"account,omitempty"`
	Limit   int       `json:"limit,omitempty"`
	Offset  int       `json:"offset,omitempty"`
}

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Normalize clamps the paging fields.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Repository persists transactions. Every method is scoped to one
// administration.
type Repository interface {
	Insert(ctx context.Context, tx *Transaction) error
	// InsertBatch inserts all rows in one database transaction.
	InsertBatch(ctx context.Context, administration string, txs []*Transaction) error
	List(ctx context.Context, administration string, f Filter) ([]*Transaction, error)
	// LatestByDescriptionPrefix returns the newest row whose description
	// starts with prefix, or ErrNotFound.
	LatestByDescriptionPrefix(ctx context.Context, administration, prefix string) (*Transaction, error)
	// History returns rows touching account since the given date, newest first.
	History(ctx context.Context, administration, account string, since time.Time, limit int) ([]*Transaction, error)
}
