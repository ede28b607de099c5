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

package logger

import (
	"context"
	"log/slog"
)

// SecurityEvent is an authentication or authorization decision worth
// keeping in the log stream.
type SecurityEvent struct {
	EventType string
	Email     string
	Tenant    string
	IPAddress string
	Action    string
	Resource  string
	Result    string // success, failure, denied
	Reason    string
	Metadata  map[string]any
}

// SecurityLogger writes security events under the "security" component.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new security logger. A nil logger uses the
// process default.
func NewSecurityLogger(logger *slog.Logger) *SecurityLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityLogger{
		logger: logger.With(Component("security")),
	}
}

// Log logs a security event. Denials and failures are logged at warn.
func (s *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	attrs := []slog.Attr{
		slog.String("event_type", event.EventType),
		slog.String("action", event.Action),
		slog.String("result", event.Result),
	}

	if event.Email != "" {
		attrs = append(attrs, Email(event.Email))
	}
	if event.Tenant != "" {
		attrs = append(attrs, Tenant(event.Tenant))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Resource != "" {
		attrs = append(attrs, slog.String("resource", event.Resource))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", event.Metadata))
	}

	level := slog.LevelInfo
	if event.Result != "success" {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "security_event", attrs...)
}

// Authentication events
func (s *SecurityLogger) TokenRejected(ctx context.Context, reason, ipAddr string) {
	s.Log(ctx, SecurityEvent{
		EventType: "authentication",
		IPAddress: ipAddr,
		Action:    "verify_token",
		Result:    "failure",
		Reason:    reason,
	})
}

// ClaimMalformed records a tenants claim that could not be parsed. The user
// continues with no tenants.
func (s *SecurityLogger) ClaimMalformed(ctx context.Context, email, claim, reason string) {
	s.Log(ctx, SecurityEvent{
		EventType: "authentication",
		Email:     email,
		Action:    "parse_claim",
		Resource:  claim,
		Result:    "failure",
		Reason:    reason,
	})
}

// Authorization events
func (s *SecurityLogger) TenantDenied(ctx context.Context, email, tenant, ipAddr string) {
	s.Log(ctx, SecurityEvent{
		EventType: "access_control",
		Email:     email,
		Tenant:    tenant,
		IPAddress: ipAddr,
		Action:    "select_tenant",
		Result:    "denied",
	})
}

func (s *SecurityLogger) AccessDenied(ctx context.Context, email, tenant, resource, reason, ipAddr string) {
	s.Log(ctx, SecurityEvent{
		EventType: "access_control",
		Email:     email,
		Tenant:    tenant,
		IPAddress: ipAddr,
		Action:    "access",
		Resource:  resource,
		Result:    "denied",
		Reason:    reason,
	})
}
