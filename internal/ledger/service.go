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

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/myadmin/myadmin/internal/audit"
	"github.com/myadmin/myadmin/internal/authz"
	"github.com/myadmin/myadmin/internal/cache"
	"github.com/myadmin/myadmin/internal/events"
	"github.com/myadmin/myadmin/internal/observability/logger"
	"github.com/myadmin/myadmin/internal/observability/metrics"
	"github.com/myadmin/myadmin/internal/observability/tracing"
	"github.com/myadmin/myadmin/internal/tenant"
)

const tracerName = "github.com/myadmin/myadmin/internal/ledger"

// Dataset names in the tenant cache.
const (
	DatasetTransactions = "transactions"
)

// patternWindow is how far back history is read to learn patterns.
const (
	patternWindow = 2 * 365 * 24 * time.Hour
	patternRows   = 5000
)

// Publisher announces committed imports.
type Publisher interface {
	PublishImported(ctx context.Context, ev events.ImportedEvent) error
}

// Service is the ledger use-case layer.
type Service struct {
	repo        Repository
	cache       *cache.Cache
	publisher   Publisher
	auditLogger audit.Logger
	instruments *metrics.Ledger
	registry    *metrics.Registry
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithInstruments records OpenTelemetry metrics.
func WithInstruments(i *metrics.Ledger) Option {
	return func(s *Service) { s.instruments = i }
}

// WithRegistry records Prometheus metrics.
func WithRegistry(r *metrics.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// NewService creates the ledger service. c and publisher may be nil. The
// default transaction listing is registered as a cache warmer.
func NewService(repo Repository, c *cache.Cache, publisher Publisher, auditLogger audit.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		cache:       c,
		publisher:   publisher,
		auditLogger: auditLogger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if c != nil {
		c.Register(DatasetTransactions, func(ctx context.Context, administration string) error {
			_, err := s.List(ctx, administration, Filter{})
			return err
		})
	}
	return s
}

// Create inserts one transaction. The row must be tagged with the active
// tenant, and p must be a member of that tenant holding finance write.
func (s *Service) Create(ctx context.Context, p tenant.Principal, active string, tx *Transaction) error {
	if active == "" {
		return tenant.ErrNoTenant
	}
	if tx.Administration == "" {
		return ErrTenantRequired
	}
	if tx.Administration != active {
		return ErrTenantMismatch
	}
	if !p.HasTenant(active) || !authz.HasPermission(p.Roles, authz.PermFinanceWrite) {
		return authz.ErrAccessDenied
	}
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return err
	}

	ctx, span := tracing.Start(ctx, tracerName, "ledger.create", active)
	defer span.End()

	if err := s.repo.Insert(ctx, tx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	span.SetAttributes(attribute.Int64("ledger.transaction_id", tx.ID))

	s.invalidate(ctx, active, "create")
	if s.instruments != nil {
		s.instruments.TransactionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("administration", active)))
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTransactionCreated,
		Tenant:   active,
		Actor:    p.Actor(),
		Resource: fmt.Sprintf("mutaties/%d", tx.ID),
		Metadata: map[string]any{"debet": tx.Debet, "credit": tx.Credit, "amount": tx.Amount.String()},
	})
	return nil
}

// List returns transactions of administration, served from the tenant cache
// when possible.
func (s *Service) List(ctx context.Context, administration string, f Filter) ([]*Transaction, error) {
	if administration == "" {
		return nil, tenant.ErrNoTenant
	}
	f = f.Normalize()
	return cache.GetOrLoad(ctx, s.cache, administration, DatasetTransactions, f, func(ctx context.Context) ([]*Transaction, error) {
		txs, err := s.repo.List(ctx, administration, f)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}
		if txs == nil {
			txs = []*Transaction{}
		}
		return txs, nil
	})
}

// LatestTemplate returns the newest transaction whose description starts
// with prefix, used to prefill recurring bookings.
func (s *Service) LatestTemplate(ctx context.Context, administration, prefix string) (*Transaction, error) {
	if administration == "" {
		return nil, tenant.ErrNoTenant
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, ErrNotFound
	}
	return s.repo.LatestByDescriptionPrefix(ctx, administration, prefix)
}

// ImportBatch is a set of parsed bank rows for one tenant.
type ImportBatch struct {
	Tenant  string
	Source  string
	Profile *Profile
	Rows    []*Transaction
}

// ImportResult summarises an import.
type ImportResult struct {
	BatchID   string         `json:"batch_id"`
	Rows      int            `json:"rows"`
	Matched   int            `json:"matched"`
	Suspense  int            `json:"suspense"`
	DryRun    bool           `json:"dry_run"`
	Preview   []*Transaction `json:"preview,omitempty"`
	Published bool           `json:"published"`
}

// Prepare tags and validates batch rows and fills counter accounts from
// learned patterns. Rows no pattern places are booked on the suspense
// account.
func (s *Service) Prepare(ctx context.Context, batch ImportBatch) (*ImportResult, error) {
	if batch.Tenant == "" {
		return nil, tenant.ErrNoTenant
	}
	if batch.Profile == nil {
		return nil, fmt.Errorf("%w: no profile", ErrInvalidProfile)
	}
	if len(batch.Rows) == 0 {
		return nil, ErrEmptyBatch
	}
	for _, tx := range batch.Rows {
		if tx.Administration == "" {
			tx.Administration = batch.Tenant
		}
		if tx.Administration != batch.Tenant {
			return nil, ErrTenantMismatch
		}
	}

	bank := batch.Profile.BankAccount
	history, err := s.repo.History(ctx, batch.Tenant, bank, s.now().Add(-patternWindow), patternRows)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	matched := LearnPatterns(bank, history).Apply(batch.Rows)

	suspense := 0
	for _, tx := range batch.Rows {
		switch {
		case tx.Debet == "":
			tx.Debet = batch.Profile.SuspenseAccount
			suspense++
		case tx.Credit == "":
			tx.Credit = batch.Profile.SuspenseAccount
			suspense++
		}
		if err := tx.Validate(); err != nil {
			return nil, err
		}
	}

	return &ImportResult{
		BatchID:  uuid.NewString(),
		Rows:     len(batch.Rows),
		Matched:  matched,
		Suspense: suspense,
	}, nil
}

// Import prepares batch and inserts it in one database transaction, then
// invalidates the tenant cache and publishes ledger.imported. A failed
// publish is logged; the rows stay committed.
func (s *Service) Import(ctx context.Context, actor string, batch ImportBatch, dryRun bool) (*ImportResult, error) {
	ctx, span := tracing.Start(ctx, tracerName, "ledger.import", batch.Tenant,
		attribute.String("ledger.source", batch.Source),
		attribute.Bool("ledger.dry_run", dryRun),
	)
	defer span.End()
	start := s.now()

	res, err := s.Prepare(ctx, batch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if dryRun {
		res.DryRun = true
		res.Preview = batch.Rows
		return res, nil
	}

	if err := s.repo.InsertBatch(ctx, batch.Tenant, batch.Rows); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}
	span.SetAttributes(attribute.Int("ledger.rows", res.Rows))

	s.invalidate(ctx, batch.Tenant, "import")
	if s.registry != nil {
		s.registry.RowsImported.WithLabelValues(batch.Tenant).Add(float64(res.Rows))
	}
	s.instruments.RecordImport(ctx, batch.Tenant, s.now().Sub(start))

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLedgerImported,
		Tenant:   batch.Tenant,
		Actor:    actor,
		Resource: batch.Source,
		Metadata: map[string]any{
			"batch_id": res.BatchID,
			"rows":     res.Rows,
			"matched":  res.Matched,
			"suspense": res.Suspense,
		},
	})

	if s.publisher != nil {
		ev := events.NewImportedEvent(batch.Tenant, batch.Source, res.Rows)
		ev.ID = res.BatchID
		if err := s.publisher.PublishImported(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to publish import event",
				logger.Tenant(batch.Tenant),
				logger.Error(err),
			)
		} else {
			res.Published = true
		}
	}
	return res, nil
}

func (s *Service) invalidate(ctx context.Context, administration, trigger string) {
	if !s.cache.Enabled() {
		return
	}
	if _, err := s.cache.InvalidateTenant(ctx, administration); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", logger.Tenant(administration), logger.Error(err))
		return
	}
	if s.registry != nil {
		s.registry.CacheInvalidated.WithLabelValues(trigger).Inc()
	}
}
