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

package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/myadmin/myadmin/internal/audit"
	"github.com/myadmin/myadmin/internal/authz"
	"github.com/myadmin/myadmin/internal/observability/logger"
	"github.com/myadmin/myadmin/internal/oidc"
	"github.com/myadmin/myadmin/internal/tenant"
)

// Tenant Isolation Principles:
// 1. Authentication completes before any tenant logic runs
// 2. The active tenant is always one of the principal's tenants
// 3. SysAdmin reaches a foreign tenant only on routes built with Policy.AllowSysAdmin
// 4. Role and tenant membership are checked together, never one alone

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.DebugContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// MetricsMiddleware records request counts and latency per route pattern.
func (h *Handler) MetricsMiddleware(next http.Handler) http.Handler {
	if h.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		h.metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// AuthMiddleware verifies the bearer token and puts the principal in the
// request context. A malformed tenants claim is logged here and nowhere
// else; the principal then carries no tenants.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw, err := oidc.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := h.verifier.Verify(ctx, raw)
		if err != nil {
			h.security.TokenRejected(ctx, err.Error(), h.proxies.ClientIP(r))
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		p, res := tenant.NewPrincipal(claims)
		h.claimMetrics.RecordClaim(ctx, res.Status.String())
		switch res.Status {
		case tenant.ClaimMalformed:
			h.security.ClaimMalformed(ctx, p.Email, tenant.ClaimTenants, res.Err.Error())
		case tenant.ClaimMissing:
			slog.DebugContext(ctx, "token carries no tenants claim",
				logger.Email(p.Email),
				logger.ClaimStatus(res.Status.String()),
			)
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, p)))
	})
}

// TenantMiddleware resolves the active tenant from the X-Tenant header.
// With policy.AllowSysAdmin a SysAdmin may name a tenant outside their
// list; the override is recorded and audited by the authorization step.
func (h *Handler) TenantMiddleware(policy authz.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, ok := GetPrincipal(ctx)
			if !ok {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			requested := r.Header.Get(tenant.HeaderTenant)
			var (
				active   string
				override bool
				err      error
			)
			if policy.AllowSysAdmin {
				active, override, err = tenant.ResolveWithSysAdminOverride(requested, p)
			} else {
				active, err = tenant.ResolveActiveTenant(requested, p)
			}

			switch {
			case errors.Is(err, tenant.ErrNoTenant):
				h.denied("no_tenant")
				respondError(w, http.StatusBadRequest, tenant.ErrNoTenant.Error())
				return
			case errors.Is(err, tenant.ErrAccessDenied):
				h.denied("tenant")
				h.security.TenantDenied(ctx, p.Email, requested, h.proxies.ClientIP(r))
				respondError(w, http.StatusForbidden, tenant.ErrAccessDenied.Error())
				return
			case err != nil:
				respondError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(withTenant(ctx, active, override)))
		})
	}
}

// RequireTenantAdmin allows principals holding Tenant_Admin in the active
// tenant.
func (h *Handler) RequireTenantAdmin(policy authz.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, _ := GetPrincipal(ctx)
			active := GetTenant(ctx)

			d, err := h.authz.RequireTenantAdmin(p, active, policy)
			if err != nil {
				h.rejectAuthz(w, r, p, active, "tenant_admin", err)
				return
			}
			h.auditOverride(r, p, d)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModule allows principals whose role grants access on module in
// the active tenant, provided the module is enabled there.
func (h *Handler) RequireModule(module tenant.Module, access authz.Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, _ := GetPrincipal(ctx)
			active := GetTenant(ctx)

			if _, err := h.authz.RequireModule(ctx, p, active, module, access, authz.Policy{}); err != nil {
				h.rejectAuthz(w, r, p, active, string(module)+":"+string(access), err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) rejectAuthz(w http.ResponseWriter, r *http.Request, p tenant.Principal, active, resource string, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, tenant.ErrNoTenant):
		respondError(w, http.StatusBadRequest, tenant.ErrNoTenant.Error())
	case errors.Is(err, authz.ErrModuleDisabled):
		h.denied("module")
		h.security.AccessDenied(ctx, p.Email, active, resource, "module disabled", h.proxies.ClientIP(r))
		respondError(w, http.StatusForbidden, "module not enabled for tenant")
	case errors.Is(err, authz.ErrAccessDenied):
		h.denied("role")
		h.security.AccessDenied(ctx, p.Email, active, resource, "missing role", h.proxies.ClientIP(r))
		h.auditLogger.Log(ctx, audit.Event{
			Type:      audit.TypeTenantAccessDenied,
			Tenant:    active,
			Actor:     p.Actor(),
			Resource:  resource,
			IPAddress: h.proxies.ClientIP(r),
			UserAgent: r.UserAgent(),
		})
		respondError(w, http.StatusForbidden, "access denied")
	default:
		slog.ErrorContext(ctx, "authorization check failed", logger.Tenant(active), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) auditOverride(r *http.Request, p tenant.Principal, d authz.Decision) {
	if !d.Override && !isOverride(r.Context()) {
		return
	}
	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeSysAdminOverride,
		Tenant:    d.Tenant,
		Actor:     p.Actor(),
		Resource:  r.Method + " " + r.URL.Path,
		IPAddress: h.proxies.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}

func (h *Handler) denied(reason string) {
	if h.metrics != nil {
		h.metrics.TenantDenials.WithLabelValues(reason).Inc()
	}
}
