package tenant

import (
	"context"
	"errors"
)

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleAlreadyExists = errors.New("role assignment already exists")
	ErrConfigNotFound    = errors.New("config entry not found")
	ErrInvalidModule     = errors.New("invalid module")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidConfigKey  = errors.New("invalid config key")
	ErrInvalidEmail      = errors.New("invalid email")
)

// ModuleRepository stores per-tenant module switches.
type ModuleRepository interface {
	ListModules(ctx context.Context, tenant string) ([]ModuleSetting, error)
	SetModule(ctx context.Context, setting ModuleSetting) error
}

// ConfigRepository stores tenant_config rows.
type ConfigRepository interface {
	GetConfig(ctx context.Context, tenant, key string) (*ConfigEntry, error)
	ListConfig(ctx context.Context, tenant string) ([]ConfigEntry, error)
	SetConfig(ctx context.Context, entry *ConfigEntry) error
}

// RoleRepository stores role grants mirrored from the identity provider.
type RoleRepository interface {
	AssignRole(ctx context.Context, role *UserRole) error
	RevokeRole(ctx context.Context, tenant, email, role string) error
	ListTenantRoles(ctx context.Context, tenant string) ([]*UserRole, error)
}
