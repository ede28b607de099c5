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
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/myadmin/myadmin/internal/tenant"
)

// ListModules returns the module switches of the active tenant
// @Summary List tenant modules
// @Tags Tenant
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Success 200 {array} tenant.ModuleSetting
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/tenant/modules [get]
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	mods, err := h.tenants.Modules(r.Context(), GetTenant(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, mods)
}

// SetModuleRequest switches a module on or off.
type SetModuleRequest struct {
	Enabled bool `json:"enabled" example:"true"`
}

// SetModule enables or disables a module for the active tenant
// @Summary Set tenant module
// @Description Tenant_Admin of the tenant, or SysAdmin naming the tenant explicitly.
// @Tags Tenant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Param module path string true "Module (FIN, STR, TENADMIN)"
// @Param request body SetModuleRequest true "Switch"
// @Success 200 {array} tenant.ModuleSetting
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/tenant/modules/{module} [put]
func (h *Handler) SetModule(w http.ResponseWriter, r *http.Request) {
	var req SetModuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	p, _ := GetPrincipal(ctx)
	active := GetTenant(ctx)
	module := tenant.Module(chi.URLParam(r, "module"))

	if err := h.tenants.SetModule(ctx, p.Actor(), active, module, req.Enabled); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.ListModules(w, r)
}

// ListConfig returns the tenant_config entries with secrets masked
// @Summary List tenant config
// @Tags Tenant
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Success 200 {array} tenant.ConfigEntry
// @Failure 403 {object} map[string]string
// @Router /api/tenant/config [get]
func (h *Handler) ListConfig(w http.ResponseWriter, r *http.Request) {
	entries, err := h.tenants.Config(r.Context(), GetTenant(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []tenant.ConfigEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// SetConfigRequest stores one tenant setting.
type SetConfigRequest struct {
	Key    string `json:"key" example:"google_drive_folder"`
	Value  string `json:"value" example:"1AbC"`
	Secret bool   `json:"is_secret" example:"false"`
}

// SetConfig stores a tenant_config entry
// @Summary Set tenant config
// @Description Secret values are encrypted at rest and masked in responses.
// @Tags Tenant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Param request body SetConfigRequest true "Entry"
// @Success 201 {object} tenant.ConfigEntry
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/tenant/config [post]
func (h *Handler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req SetConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	p, _ := GetPrincipal(ctx)
	entry, err := h.tenants.SetConfig(ctx, p.Actor(), GetTenant(ctx), req.Key, req.Value, req.Secret)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// TenantUsersResponse lists members and the roles an admin may grant.
type TenantUsersResponse struct {
	Users           []tenant.User `json:"users"`
	AssignableRoles []string      `json:"assignable_roles"`
}

// ListTenantUsers lists the users of the active tenant
// @Summary List tenant users
// @Tags Tenant
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Success 200 {object} TenantUsersResponse
// @Failure 403 {object} map[string]string
// @Router /api/tenant/users [get]
func (h *Handler) ListTenantUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.tenants.Users(r.Context(), GetTenant(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, TenantUsersResponse{
		Users:           users,
		AssignableRoles: tenant.AssignableRoles(),
	})
}

// AssignRoleRequest represents a role assignment
type AssignRoleRequest struct {
	Role string `json:"role" example:"Finance_Read"`
}

// AssignTenantRole grants a role to a user in the active tenant
// @Summary Assign tenant role
// @Tags Tenant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Param user path string true "User email"
// @Param request body AssignRoleRequest true "Role"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/tenant/users/{user}/roles [post]
func (h *Handler) AssignTenantRole(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "user"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user")
		return
	}
	var req AssignRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	p, _ := GetPrincipal(ctx)
	active := GetTenant(ctx)
	if err := h.tenants.AssignRole(ctx, p.Actor(), active, email, req.Role); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"administration": active,
		"email":          email,
		"role":           req.Role,
	})
}

// RevokeTenantRole removes a role from a user in the active tenant
// @Summary Revoke tenant role
// @Tags Tenant
// @Security BearerAuth
// @Param X-Tenant header string true "Active tenant"
// @Param user path string true "User email"
// @Param role path string true "Role"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/tenant/users/{user}/roles/{role} [delete]
func (h *Handler) RevokeTenantRole(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "user"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user")
		return
	}

	ctx := r.Context()
	p, _ := GetPrincipal(ctx)
	if err := h.tenants.RevokeRole(ctx, p.Actor(), GetTenant(ctx), email, chi.URLParam(r, "role")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
