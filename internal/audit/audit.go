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

package audit

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Event types
const (
	TypeTenantAccessDenied = "tenant_access_denied"
	TypeSysAdminOverride   = "sysadmin_override"
	TypeRoleAssigned       = "role_assigned"
	TypeRoleRevoked        = "role_revoked"
	TypeModuleChanged      = "module_changed"
	TypeConfigSet          = "config_set"
	TypeTransactionCreated = "transaction_created"
	TypeLedgerImported     = "ledger_imported"
	TypeCacheInvalidated   = "cache_invalidated"
	TypeCacheRefreshed     = "cache_refreshed"
)

// Event represents an auditable action. Tenant is the administration the
// action was performed in; Actor is the caller's email (or "system").
type Event struct {
	Type      string
	Tenant    string
	Actor     string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates an audit logger writing to l, or to the default
// logger when l is nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("tenant", event.Tenant),
		slog.String("actor", event.Actor),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
		slog.String("component", "audit"),
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		keys := make([]string, 0, len(event.Metadata))
		for k := range event.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		group := make([]any, 0, len(keys))
		for _, k := range keys {
			v := event.Metadata[k]
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "AUDIT_EVENT", attrs...)
}

var secretMarkers = []string{"password", "secret", "token", "key", "hash", "credential", "authorization"}

// isSecret checks if a metadata key likely holds a secret value.
// "config_key" names a setting, not a secret, and is allowed through.
func isSecret(key string) bool {
	k := strings.ToLower(key)
	if k == "config_key" {
		return false
	}
	for _, s := range secretMarkers {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
