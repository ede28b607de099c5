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

// Package events carries ledger events between the API, ingestion and
// cache maintenance over RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueueLedgerImported receives one message per committed import batch.
const QueueLedgerImported = "ledger.imported"

var ErrInvalidEvent = errors.New("invalid event")

// ImportedEvent announces that rows were written to a tenant's ledger.
type ImportedEvent struct {
	ID         string    `json:"id"`
	Tenant     string    `json:"administration"`
	Rows       int       `json:"rows"`
	Source     string    `json:"source"`
	ImportedAt time.Time `json:"imported_at"`
}

// NewImportedEvent stamps a new event with an ID and the current time.
func NewImportedEvent(tenant, source string, rows int) ImportedEvent {
	return ImportedEvent{
		ID:         uuid.NewString(),
		Tenant:     tenant,
		Rows:       rows,
		Source:     source,
		ImportedAt: time.Now().UTC(),
	}
}

// Decode parses and validates a message body.
func Decode(body []byte) (ImportedEvent, error) {
	var ev ImportedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ImportedEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if ev.Tenant == "" {
		return ImportedEvent{}, fmt.Errorf("%w: missing administration", ErrInvalidEvent)
	}
	return ev, nil
}

// Handler processes one event.
type Handler func(ctx context.Context, ev ImportedEvent) error

// LocalPublisher delivers events to a handler in-process. It stands in for
// the broker when none is configured.
type LocalPublisher struct {
	Handler Handler
}

func (p LocalPublisher) PublishImported(ctx context.Context, ev ImportedEvent) error {
	if p.Handler == nil {
		return nil
	}
	return p.Handler(ctx, ev)
}
