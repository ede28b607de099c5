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

package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter hands out the OpenTelemetry instruments of the service. Instruments
// bind to the global provider and stay no-ops until one is installed.
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{meter: otel.Meter("noop")}, nil
	}
	return &Meter{meter: otel.Meter(serviceName)}, nil
}

func (m *Meter) counter(name, description string) (metric.Int64Counter, error) {
	c, err := m.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return c, nil
}

func (m *Meter) histogram(name, description, unit string) (metric.Float64Histogram, error) {
	h, err := m.meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return h, nil
}

// Ledger holds the instruments of the ledger service.
type Ledger struct {
	TransactionsCreated metric.Int64Counter
	ImportDuration      metric.Float64Histogram
}

// LedgerInstruments creates the ledger instruments on m.
func (m *Meter) LedgerInstruments() (*Ledger, error) {
	created, err := m.counter("ledger.transactions.created", "Transactions created through the API")
	if err != nil {
		return nil, err
	}
	duration, err := m.histogram("ledger.import.duration", "Time spent importing a batch", "s")
	if err != nil {
		return nil, err
	}
	return &Ledger{TransactionsCreated: created, ImportDuration: duration}, nil
}

// RecordImport records the duration of one committed import. Safe on nil.
func (l *Ledger) RecordImport(ctx context.Context, administration string, d time.Duration) {
	if l == nil {
		return
	}
	l.ImportDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("administration", administration)))
}

// Auth counts how tenants claims parse, by status.
type Auth struct {
	ClaimResults metric.Int64Counter
}

// AuthInstruments creates the authentication instruments on m.
func (m *Meter) AuthInstruments() (*Auth, error) {
	results, err := m.counter("auth.tenants_claim.parsed", "Tenants claims parsed, by result")
	if err != nil {
		return nil, err
	}
	return &Auth{ClaimResults: results}, nil
}

// RecordClaim counts one parsed claim. Safe on nil.
func (a *Auth) RecordClaim(ctx context.Context, status string) {
	if a == nil {
		return
	}
	a.ClaimResults.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
