package tenant

import (
	"time"
)

// Module is a feature area that can be switched on per tenant.
type Module string

const (
	ModuleFinance     Module = "FIN"
	ModuleSTR         Module = "STR"
	ModuleTenantAdmin Module = "TENADMIN"
)

// KnownModules lists every module in display order.
var KnownModules = []Module{ModuleFinance, ModuleSTR, ModuleTenantAdmin}

func (m Module) Valid() bool {
	for _, k := range KnownModules {
		if k == m {
			return true
		}
	}
	return false
}

// ModuleSetting records whether a module is enabled for a tenant.
type ModuleSetting struct {
	Tenant    string    `json:"administration"`
	Module    Module    `json:"module"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// ConfigEntry is a tenant-scoped setting. Secret values are stored
// encrypted and never returned in listings.
type ConfigEntry struct {
	Tenant    string    `json:"administration"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Secret    bool      `json:"is_secret"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// MaskedValue replaces secret values in listings.
const MaskedValue = "********"

// User is a tenant member with the roles granted to them in that tenant.
type User struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}
