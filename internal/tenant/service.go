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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myadmin/myadmin/internal/audit"
)

var configKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// Service provides tenant administration: module switches, tenant config
// and role grants. Callers are expected to have checked that the actor
// administers the tenant.
type Service struct {
	modules     ModuleRepository
	config      ConfigRepository
	roles       RoleRepository
	secrets     *SecretBox
	auditLogger audit.Logger
}

// NewService creates a new tenant service. secrets may be nil, in which case
// secret config values are rejected.
func NewService(modules ModuleRepository, config ConfigRepository, roles RoleRepository, secrets *SecretBox, auditLogger audit.Logger) *Service {
	return &Service{
		modules:     modules,
		config:      config,
		roles:       roles,
		secrets:     secrets,
		auditLogger: auditLogger,
	}
}

// Modules returns the setting of every known module for tenant. Modules
// without a stored row are disabled, except tenant administration which is
// always on.
func (s *Service) Modules(ctx context.Context, tenant string) ([]ModuleSetting, error) {
	if tenant == "" {
		return nil, ErrNoTenant
	}
	stored, err := s.modules.ListModules(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	byModule := make(map[Module]ModuleSetting, len(stored))
	for _, m := range stored {
		byModule[m.Module] = m
	}

	out := make([]ModuleSetting, 0, len(KnownModules))
	for _, m := range KnownModules {
		setting, found := byModule[m]
		if !found {
			setting = ModuleSetting{Tenant: tenant, Module: m}
		}
		if m == ModuleTenantAdmin {
			setting.Enabled = true
		}
		out = append(out, setting)
	}
	return out, nil
}

// ModuleEnabled reports whether module is switched on for tenant.
func (s *Service) ModuleEnabled(ctx context.Context, tenant string, module Module) (bool, error) {
	settings, err := s.Modules(ctx, tenant)
	if err != nil {
		return false, err
	}
	for _, m := range settings {
		if m.Module == module {
			return m.Enabled, nil
		}
	}
	return false, nil
}

// SetModule switches a module on or off for tenant.
func (s *Service) SetModule(ctx context.Context, actor, tenant string, module Module, enabled bool) error {
	if tenant == "" {
		return ErrNoTenant
	}
	if !module.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidModule, module)
	}
	if module == ModuleTenantAdmin && !enabled {
		return fmt.Errorf("%w: %s cannot be disabled", ErrInvalidModule, module)
	}

	setting := ModuleSetting{
		Tenant:    tenant,
		Module:    module,
		Enabled:   enabled,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: actor,
	}
	if err := s.modules.SetModule(ctx, setting); err != nil {
		return fmt.Errorf("failed to set module: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeModuleChanged,
		Tenant:   tenant,
		Actor:    actor,
		Resource: string(module),
		Metadata: map[string]any{"enabled": enabled},
	})
	return nil
}

// SetConfig stores a tenant setting, encrypting it when secret is set.
func (s *Service) SetConfig(ctx context.Context, actor, tenant, key, value string, secret bool) (*ConfigEntry, error) {
	if tenant == "" {
		return nil, ErrNoTenant
	}
	key = strings.TrimSpace(key)
	if !configKeyPattern.MatchString(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidConfigKey, key)
	}

	stored := value
	if secret {
		if s.secrets == nil {
			return nil, ErrSecretsDisabled
		}
		sealed, err := s.secrets.Seal(tenant, key, value)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt config value: %w", err)
		}
		stored = sealed
	}

	entry := &ConfigEntry{
		Tenant:    tenant,
		Key:       key,
		Value:     stored,
		Secret:    secret,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: actor,
	}
	if err := s.config.SetConfig(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to set config: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeConfigSet,
		Tenant:   tenant,
		Actor:    actor,
		Resource: "tenant_config",
		Metadata: map[string]any{"config_key": key, "is_secret": secret},
	})

	masked := *entry
	if secret {
		masked.Value = MaskedValue
	}
	return &masked, nil
}

// Config lists tenant settings with secret values masked.
func (s *Service) Config(ctx context.Context, tenant string) ([]ConfigEntry, error) {
	if tenant == "" {
		return nil, ErrNoTenant
	}
	entries, err := s.config.ListConfig(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	for i := range entries {
		if entries[i].Secret {
			entries[i].Value = MaskedValue
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// ConfigValue returns a setting's plain value, decrypting secrets.
func (s *Service) ConfigValue(ctx context.Context, tenant, key string) (string, error) {
	if tenant == "" {
		return "", ErrNoTenant
	}
	entry, err := s.config.GetConfig(ctx, tenant, key)
	if err != nil {
		return "", err
	}
	if !entry.Secret {
		return entry.Value, nil
	}
	if s.secrets == nil {
		return "", ErrSecretsDisabled
	}
	return s.secrets.Open(tenant, key, entry.Value)
}

// Users lists the members of tenant with their roles.
func (s *Service) Users(ctx context.Context, tenant string) ([]User, error) {
	if tenant == "" {
		return nil, ErrNoTenant
	}
	grants, err := s.roles.ListTenantRoles(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant users: %w", err)
	}

	byEmail := make(map[string][]string)
	for _, g := range grants {
		byEmail[g.Email] = append(byEmail[g.Email], g.Role)
	}

	users := make([]User, 0, len(byEmail))
	for email, roles := range byEmail {
		sort.Strings(roles)
		users = append(users, User{Email: email, Roles: roles})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// AssignRole grants role to the user identified by email within tenant.
func (s *Service) AssignRole(ctx context.Context, actor, tenant, email, role string) error {
	if tenant == "" {
		return ErrNoTenant
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if !IsAssignable(role) {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	r := &UserRole{
		ID:        uuid.NewString(),
		Tenant:    tenant,
		Email:     email,
		Role:      role,
		GrantedAt: time.Now().UTC(),
		GrantedBy: actor,
	}
	if err := s.roles.AssignRole(ctx, r); err != nil {
		if errors.Is(err, ErrRoleAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to assign role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleAssigned,
		Tenant:   tenant,
		Actor:    actor,
		Resource: role,
		Metadata: map[string]any{"email": email},
	})
	return nil
}

// RevokeRole removes role from the user within tenant.
func (s *Service) RevokeRole(ctx context.Context, actor, tenant, email, role string) error {
	if tenant == "" {
		return ErrNoTenant
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if err := s.roles.RevokeRole(ctx, tenant, email, role); err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return err
		}
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeRoleRevoked,
		Tenant:   tenant,
		Actor:    actor,
		Resource: role,
		Metadata: map[string]any{"email": email},
	})
	return nil
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return strings.ToLower(addr.Address), nil
}
