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
	"context"

	"github.com/myadmin/myadmin/internal/tenant"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	tenantKey    contextKey = "administration"
	overrideKey  contextKey = "sysadmin_override"
)

func withPrincipal(ctx context.Context, p tenant.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves the authenticated principal from context.
func GetPrincipal(ctx context.Context) (tenant.Principal, bool) {
	p, ok := ctx.Value(principalKey).(tenant.Principal)
	return p, ok
}

func withTenant(ctx context.Context, administration string, override bool) context.Context {
	ctx = context.WithValue(ctx, tenantKey, administration)
	return context.WithValue(ctx, overrideKey, override)
}

// GetTenant retrieves the active tenant resolved for the request.
func GetTenant(ctx context.Context) string {
	if val, ok := ctx.Value(tenantKey).(string); ok {
		return val
	}
	return ""
}

// isOverride reports whether the tenant was selected through the SysAdmin
// override rather than membership.
func isOverride(ctx context.Context) bool {
	v, _ := ctx.Value(overrideKey).(bool)
	return v
}
