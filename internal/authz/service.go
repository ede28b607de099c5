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

package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/myadmin/myadmin/internal/tenant"
)

// ModuleChecker reports whether a module is enabled for a tenant.
type ModuleChecker interface {
	ModuleEnabled(ctx context.Context, administration string, module tenant.Module) (bool, error)
}

// Service makes role x tenant x module decisions. Every check requires all
// of its dimensions; holding one never implies another.
type Service struct {
	modules ModuleChecker
}

func NewService(modules ModuleChecker) *Service {
	return &Service{modules: modules}
}

// sysAdminOverride reports whether the policy lets p bypass tenant
// membership and role checks.
func sysAdminOverride(p tenant.Principal, policy Policy) bool {
	return policy.AllowSysAdmin && p.IsSysAdmin()
}

// RequireTenantAdmin checks that p holds Tenant_Admin AND is a member of t.
func (s *Service) RequireTenantAdmin(p tenant.Principal, t string, policy Policy) (Decision, error) {
	if t == "" {
		return Decision{}, tenant.ErrNoTenant
	}
	if p.IsTenantAdmin(t) {
		return Decision{Tenant: t}, nil
	}
	if sysAdminOverride(p, policy) {
		return Decision{Tenant: t, Override: true}, nil
	}
	return Decision{}, ErrAccessDenied
}

// RequireModule checks that module is enabled for t AND p is a member of t
// AND p holds a role granting the requested access on module.
func (s *Service) RequireModule(ctx context.Context, p tenant.Principal, t string, module tenant.Module, access Access, policy Policy) (Decision, error) {
	if t == "" {
		return Decision{}, tenant.ErrNoTenant
	}
	perms, known := modulePermissions[module]
	if !known {
		return Decision{}, fmt.Errorf("%w: %s", ErrUnknownModule, module)
	}
	perm, supported := perms[access]
	if !supported {
		return Decision{}, ErrAccessDenied
	}

	decision := Decision{Tenant: t}
	if !p.HasTenant(t) || !HasPermission(p.Roles, perm) {
		if !sysAdminOverride(p, policy) {
			return Decision{}, ErrAccessDenied
		}
		decision.Override = true
	}

	enabled, err := s.modules.ModuleEnabled(ctx, t, module)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check module: %w", err)
	}
	if !enabled {
		return Decision{}, ErrModuleDisabled
	}
	return decision, nil
}

// RequirePlatform checks a platform permission. Platform permissions are
// not tenant scoped.
func (s *Service) RequirePlatform(p tenant.Principal, permission string) error {
	if !HasPermission(p.Roles, permission) {
		return ErrAccessDenied
	}
	return nil
}

// AllowedModules lists the modules p may read in t, for building menus.
func (s *Service) AllowedModules(ctx context.Context, p tenant.Principal, t string) ([]tenant.Module, error) {
	var out []tenant.Module
	for _, m := range tenant.KnownModules {
		_, err := s.RequireModule(ctx, p, t, m, AccessRead, Policy{})
		switch {
		case err == nil:
			out = append(out, m)
		case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrModuleDisabled):
		default:
			return nil, err
		}
	}
	return out, nil
}
