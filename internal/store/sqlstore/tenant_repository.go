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

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/myadmin/myadmin/internal/tenant"
)

// TenantRepository implements the tenant module, config and role
// repositories.
type TenantRepository struct {
	db *DB
}

func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// ListModules returns the stored module switches of administration.
func (r *TenantRepository) ListModules(ctx context.Context, administration string) ([]tenant.ModuleSetting, error) {
	q, args, err := r.db.scoper().
		Select("tenant_modules", "administration", "module", "enabled", "updated_at", "updated_by").
		ForTenant(administration).
		OrderBy("module").
		Build()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var out []tenant.ModuleSetting
	for rows.Next() {
		var m tenant.ModuleSetting
		if err := rows.Scan(&m.Tenant, &m.Module, &m.Enabled, &m.UpdatedAt, &m.UpdatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetModule inserts or updates a module switch.
func (r *TenantRepository) SetModule(ctx context.Context, m tenant.ModuleSetting) error {
	q := `INSERT INTO tenant_modules (administration, module, enabled, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE enabled = VALUES(enabled), updated_at = VALUES(updated_at), updated_by = VALUES(updated_by)`
	if r.db.postgres() {
		q = r.db.rebind(`INSERT INTO tenant_modules (administration, module, enabled, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (administration, module) DO UPDATE
		SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`)
	}
	if _, err := r.db.sql.ExecContext(ctx, q, m.Tenant, string(m.Module), m.Enabled, m.UpdatedAt, m.UpdatedBy); err != nil {
		return fmt.Errorf("failed to set module: %w", err)
	}
	return nil
}

var configColumns = []string{"administration", "config_key", "config_value", "is_secret", "updated_at", "updated_by"}

func scanConfig(scan func(...any) error) (tenant.ConfigEntry, error) {
	var e tenant.ConfigEntry
	err := scan(&e.Tenant, &e.Key, &e.Value, &e.Secret, &e.UpdatedAt, &e.UpdatedBy)
	return e, err
}

// GetConfig returns one config entry as stored (secrets stay encrypted).
func (r *TenantRepository) GetConfig(ctx context.Context, administration, key string) (*tenant.ConfigEntry, error) {
	q, args, err := r.db.scoper().
		Select("tenant_config", configColumns...).
		Where("config_key = ?", key).
		ForTenant(administration).
		Build()
	if err != nil {
		return nil, err
	}
	e, err := scanConfig(r.db.sql.QueryRowContext(ctx, q, args...).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tenant.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return &e, nil
}

// ListConfig returns all config entries of administration.
func (r *TenantRepository) ListConfig(ctx context.Context, administration string) ([]tenant.ConfigEntry, error) {
	q, args, err := r.db.scoper().
		Select("tenant_config", configColumns...).
		ForTenant(administration).
		OrderBy("config_key").
		Build()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	defer rows.Close()

	var out []tenant.ConfigEntry
	for rows.Next() {
		e, err := scanConfig(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetConfig inserts or replaces a config entry.
func (r *TenantRepository) SetConfig(ctx context.Context, e *tenant.ConfigEntry) error {
	q := `INSERT INTO tenant_config (administration, config_key, config_value, is_secret, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE config_value = VALUES(config_value), is_secret = VALUES(is_secret),
		updated_at = VALUES(updated_at), updated_by = VALUES(updated_by)`
	if r.db.postgres() {
		q = r.db.rebind(`INSERT INTO tenant_config (administration, config_key, config_value, is_secret, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (administration, config_key) DO UPDATE
		SET config_value = EXCLUDED.config_value, is_secret = EXCLUDED.is_secret,
		updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`)
	}
	if _, err := r.db.sql.ExecContext(ctx, q, e.Tenant, e.Key, e.Value, e.Secret, e.UpdatedAt, e.UpdatedBy); err != nil {
		return fmt.Errorf("failed to set config: %w", err)
	}
	return nil
}

// AssignRole stores a role grant.
func (r *TenantRepository) AssignRole(ctx context.Context, role *tenant.UserRole) error {
	_, err := r.db.sql.ExecContext(ctx, r.db.rebind(`
		INSERT INTO user_roles (id, administration, email, role, granted_at, granted_by)
		VALUES (?, ?, ?, ?, ?, ?)
	`), role.ID, role.Tenant, role.Email, role.Role, role.GrantedAt, role.GrantedBy)
	if err != nil {
		if isDuplicate(err) {
			return tenant.ErrRoleAlreadyExists
		}
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// RevokeRole removes a role grant within administration.
func (r *TenantRepository) RevokeRole(ctx context.Context, administration, email, role string) error {
	q, args, err := r.db.scoped(`DELETE FROM user_roles WHERE email = ? AND role = ?`, []any{email, role}, administration)
	if err != nil {
		return err
	}
	res, err := r.db.sql.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	if n == 0 {
		return tenant.ErrRoleNotFound
	}
	return nil
}

// ListTenantRoles returns every grant within administration.
func (r *TenantRepository) ListTenantRoles(ctx context.Context, administration string) ([]*tenant.UserRole, error) {
	q, args, err := r.db.scoper().
		Select("user_roles", "id", "administration", "email", "role", "granted_at", "granted_by").
		ForTenant(administration).
		OrderBy("email", "role").
		Build()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant roles: %w", err)
	}
	defer rows.Close()

	var out []*tenant.UserRole
	for rows.Next() {
		var role tenant.UserRole
		if err := rows.Scan(&role.ID, &role.Tenant, &role.Email, &role.Role, &role.GrantedAt, &role.GrantedBy); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		out = append(out, &role)
	}
	return out, rows.Err()
}
