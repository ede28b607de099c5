package http

import (
	"net/http"

	"github.com/myadmin/myadmin/internal/audit"
)

// InvalidateCache drops every cached dataset of the active tenant
// @Summary Invalidate tenant cache
// @Tags Cache
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Success 200 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /api/cache/invalidate [post]
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := GetPrincipal(ctx)
	active := GetTenant(ctx)

	n, err := h.cache.InvalidateTenant(ctx, active)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.CacheInvalidated.WithLabelValues("api").Inc()
	}
	h.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeCacheInvalidated,
		Tenant:    active,
		Actor:     p.Actor(),
		Resource:  "cache",
		IPAddress: h.proxies.ClientIP(r),
		Metadata:  map[string]any{"entries": n},
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"administration": active,
		"invalidated":    n,
	})
}

// RefreshCache invalidates the active tenant and reloads its datasets
// @Summary Refresh tenant cache
// @Tags Cache
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Success 200 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /api/cache/refresh [post]
func (h *Handler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := GetPrincipal(ctx)
	active := GetTenant(ctx)

	datasets := []string{}
	if h.cache.Enabled() {
		if err := h.cache.Refresh(ctx, active); err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		datasets = h.cache.Datasets()
	}
	if h.metrics != nil {
		h.metrics.CacheInvalidated.WithLabelValues("refresh").Inc()
	}
	h.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeCacheRefreshed,
		Tenant:    active,
		Actor:     p.Actor(),
		Resource:  "cache",
		IPAddress: h.proxies.ClientIP(r),
		Metadata:  map[string]any{"datasets": datasets},
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"administration": active,
		"refreshed":      datasets,
	})
}
