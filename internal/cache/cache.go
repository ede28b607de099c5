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

// Package cache keeps per-tenant query results. Every key carries the
// tenant, so invalidating one tenant never touches another.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/myadmin/myadmin/internal/observability/logger"
)

var (
	// ErrMiss is returned by a Store when a key is absent.
	ErrMiss = errors.New("cache miss")
	// ErrEmptyTenant is returned for operations without a tenant.
	ErrEmptyTenant = errors.New("cache: empty tenant")
)

// Store is the backing key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix and returns the count.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Warmer reloads a named dataset for a tenant after invalidation.
type Warmer func(ctx context.Context, tenant string) error

// Cache is a tenant-keyed cache over a Store. A Cache with a nil store
// loads every value directly.
type Cache struct {
	store  Store
	prefix string
	ttl    time.Duration

	mu      sync.RWMutex
	warmers map[string]Warmer
}

func New(store Store, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "myadmin"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		store:   store,
		prefix:  prefix,
		ttl:     ttl,
		warmers: make(map[string]Warmer),
	}
}

// Enabled reports whether values are stored.
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// tenantPrefix returns the key prefix shared by all entries of tenant. The
// tenant is escaped so that one tenant name can never be a prefix of
// another's keys.
func (c *Cache) tenantPrefix(tenant string) string {
	return c.prefix + ":" + url.QueryEscape(tenant) + ":"
}

// Key builds the key for dataset name with params under tenant.
func (c *Cache) Key(tenant, name string, params any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache params: %w", err)
	}
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%s%s:%x", c.tenantPrefix(tenant), name, sum[:]), nil
}

// GetOrLoad returns the cached value for (tenant, name, params) or calls
// load and stores its result. Store failures are logged and fall back to
// load.
func GetOrLoad[T any](ctx context.Context, c *Cache, tenant, name string, params any, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if tenant == "" {
		return zero, ErrEmptyTenant
	}
	if !c.Enabled() {
		return load(ctx)
	}

	key, err := c.Key(tenant, name, params)
	if err != nil {
		return zero, err
	}

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			return v, nil
		}
		slog.WarnContext(ctx, "discarding undecodable cache entry", logger.Tenant(tenant), slog.String("cache_key", key))
	case !errors.Is(err, ErrMiss):
		slog.WarnContext(ctx, "cache read failed", logger.Tenant(tenant), logger.Error(err))
	}

	v, err := load(ctx)
	if err != nil {
		return zero, err
	}
	if encoded, err := json.Marshal(v); err == nil {
		if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
			slog.WarnContext(ctx, "cache write failed", logger.Tenant(tenant), logger.Error(err))
		}
	}
	return v, nil
}

// InvalidateTenant drops every entry of tenant.
func (c *Cache) InvalidateTenant(ctx context.Context, tenant string) (int, error) {
	if tenant == "" {
		return 0, ErrEmptyTenant
	}
	if !c.Enabled() {
		return 0, nil
	}
	n, err := c.store.DeletePrefix(ctx, c.tenantPrefix(tenant))
	if err != nil {
		return n, fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return n, nil
}

// Register adds a warmer run by Refresh.
func (c *Cache) Register(name string, w Warmer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warmers[name] = w
}

// Datasets lists the registered warmer names.
func (c *Cache) Datasets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.warmers))
	for name := range c.warmers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Refresh invalidates tenant and runs every registered warmer. All warmers
// run even if one fails; the errors are joined.
func (c *Cache) Refresh(ctx context.Context, tenant string) error {
	if _, err := c.InvalidateTenant(ctx, tenant); err != nil {
		return err
	}

	c.mu.RLock()
	warmers := make(map[string]Warmer, len(c.warmers))
	for name, w := range c.warmers {
		warmers[name] = w
	}
	c.mu.RUnlock()

	var errs []error
	for name, w := range warmers {
		if err := w(ctx, tenant); err != nil {
			errs = append(errs, fmt.Errorf("warm %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
