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

// @title myAdmin API
// @version 1.0.0
// @description Multi-tenant bookkeeping API. Every tenant-scoped call selects its administration with the X-Tenant header.

// @contact.name myAdmin Support
// @contact.email support@myadmin.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:5000
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/myadmin/myadmin/internal/audit"
	"github.com/myadmin/myadmin/internal/authz"
	"github.com/myadmin/myadmin/internal/cache"
	"github.com/myadmin/myadmin/internal/ledger"
	"github.com/myadmin/myadmin/internal/observability/logger"
	"github.com/myadmin/myadmin/internal/observability/metrics"
	"github.com/myadmin/myadmin/internal/tenant"
)

// TokenVerifier validates bearer tokens and returns their claims.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (jwt.MapClaims, error)
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the HTTP layer dispatches to. Metrics,
// Cache, DB and Frontend are optional.
type Dependencies struct {
	Verifier       TokenVerifier
	Authz          *authz.Service
	Tenants        *tenant.Service
	Ledger         *ledger.Service
	Cache          *cache.Cache
	Profiles       map[string]*ledger.Profile
	AuditLogger    audit.Logger
	SecurityLogger *logger.SecurityLogger
	Metrics        *metrics.Registry
	ClaimMetrics   *metrics.Auth
	DB             Pinger
	Frontend       fs.FS
	TrustedProxies TrustedProxies
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	verifier     TokenVerifier
	authz        *authz.Service
	tenants      *tenant.Service
	ledger       *ledger.Service
	cache        *cache.Cache
	profiles     map[string]*ledger.Profile
	auditLogger  audit.Logger
	security     *logger.SecurityLogger
	metrics      *metrics.Registry
	claimMetrics *metrics.Auth
	db           Pinger
	frontend     fs.FS
	proxies      TrustedProxies
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	h := &Handler{
		verifier:     deps.Verifier,
		authz:        deps.Authz,
		tenants:      deps.Tenants,
		ledger:       deps.Ledger,
		cache:        deps.Cache,
		profiles:     deps.Profiles,
		auditLogger:  deps.AuditLogger,
		security:     deps.SecurityLogger,
		metrics:      deps.Metrics,
		claimMetrics: deps.ClaimMetrics,
		db:           deps.DB,
		frontend:     deps.Frontend,
		proxies:      deps.TrustedProxies,
	}
	if h.auditLogger == nil {
		h.auditLogger = audit.NewSlogLogger(nil)
	}
	if h.security == nil {
		h.security = logger.NewSecurityLogger(nil)
	}
	if h.profiles == nil {
		h.profiles = map[string]*ledger.Profile{}
	}
	return h
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter, h.proxies))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(h.MetricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.HealthCheck)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	strict := authz.Policy{}
	sysAdmin := authz.Policy{AllowSysAdmin: true}

	r.Route("/api", func(r chi.Router) {
		// Authentication precedes every tenant check.
		r.Use(h.AuthMiddleware)

		r.Get("/me", h.Me)

		r.Route("/tenant", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.TenantMiddleware(strict))
				r.Use(h.RequireTenantAdmin(strict))
				r.Get("/modules", h.ListModules)
				r.Get("/config", h.ListConfig)
				r.Post("/config", h.SetConfig)
				r.Get("/users", h.ListTenantUsers)
				r.Post("/users/{user}/roles", h.AssignTenantRole)
				r.Delete("/users/{user}/roles/{role}", h.RevokeTenantRole)
			})

			// Module provisioning is the one tenant route open to SysAdmin.
			r.With(h.TenantMiddleware(sysAdmin), h.RequireTenantAdmin(sysAdmin)).
				Put("/modules/{module}", h.SetModule)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Use(h.TenantMiddleware(strict))
			read := h.RequireModule(tenant.ModuleFinance, authz.AccessRead)
			write := h.RequireModule(tenant.ModuleFinance, authz.AccessWrite)

			r.With(read).Get("/transactions", h.ListTransactions)
			r.With(write).Post("/transactions", h.CreateTransaction)
			r.With(read).Get("/templates", h.LatestTemplate)
			r.With(write).Post("/import", h.ImportTransactions)
		})

		r.Route("/cache", func(r chi.Router) {
			r.Use(h.TenantMiddleware(strict))
			r.Use(h.RequireTenantAdmin(strict))
			r.Post("/invalidate", h.InvalidateCache)
			r.Post("/refresh", h.RefreshCache)
		})
	})

	if h.frontend != nil {
		r.Handle("/*", SPAHandler{StaticFS: h.frontend})
	}

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service and its database are up
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "health check failed", logger.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "myadmin",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "myadmin",
	})
}

// MeResponse describes the caller.
type MeResponse struct {
	Email        string                     `json:"email"`
	Tenants      []string                   `json:"tenants"`
	Roles        []string                   `json:"roles"`
	ActiveTenant string                     `json:"active_tenant,omitempty"`
	Modules      map[string][]tenant.Module `json:"modules"`
}

// Me returns the caller's tenants, roles and the modules they may open
// per tenant.
// @Summary Current user
// @Description Returns the authenticated principal. The active tenant is the X-Tenant header when authorized, else the first tenant.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string false "Active tenant"
// @Success 200 {object} MeResponse
// @Failure 401 {object} map[string]string
// @Router /api/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := GetPrincipal(ctx)

	resp := MeResponse{
		Email:   p.Email,
		Tenants: p.Tenants,
		Roles:   p.Roles.Slice(),
		Modules: make(map[string][]tenant.Module, len(p.Tenants)),
	}
	if active, err := tenant.ResolveActiveTenant(r.Header.Get(tenant.HeaderTenant), p); err == nil {
		resp.ActiveTenant = active
	}
	for _, t := range p.Tenants {
		mods, err := h.authz.AllowedModules(ctx, p, t)
		if err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		if mods == nil {
			mods = []tenant.Module{}
		}
		resp.Modules[t] = mods
	}
	respondJSON(w, http.StatusOK, resp)
}

// respondServiceError maps domain errors to HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rowErr *ledger.RowError
	switch {
	case errors.Is(err, tenant.ErrNoTenant):
		respondError(w, http.StatusBadRequest, tenant.ErrNoTenant.Error())
	case errors.Is(err, tenant.ErrAccessDenied),
		errors.Is(err, authz.ErrAccessDenied),
		errors.Is(err, ledger.ErrTenantMismatch):
		respondError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, tenant.ErrRoleNotFound),
		errors.Is(err, tenant.ErrConfigNotFound),
		errors.Is(err, ledger.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tenant.ErrRoleAlreadyExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &rowErr),
		errors.Is(err, tenant.ErrInvalidModule),
		errors.Is(err, tenant.ErrInvalidRole),
		errors.Is(err, tenant.ErrInvalidConfigKey),
		errors.Is(err, tenant.ErrInvalidEmail),
		errors.Is(err, tenant.ErrSecretsDisabled),
		errors.Is(err, ledger.ErrTenantRequired),
		errors.Is(err, ledger.ErrInvalidAccount),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidProfile),
		errors.Is(err, ledger.ErrEmptyBatch):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed",
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Tenant(GetTenant(r.Context())),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
