package authz

import (
	"errors"
)

var (
	ErrAccessDenied   = errors.New("access denied")
	ErrModuleDisabled = errors.New("module not enabled for tenant")
	ErrUnknownModule  = errors.New("unknown module")
)

// Access is the kind of access requested on a module.
type Access string

const (
	AccessRead   Access = "read"
	AccessWrite  Access = "write"
	AccessExport Access = "export"
)

// Policy holds per-endpoint authorization switches.
type Policy struct {
	// AllowSysAdmin lets a SysAdmin act on any tenant for this endpoint.
	// Without it SysAdmin gets no tenant access from its role.
	AllowSysAdmin bool
}

// Decision describes a granted check.
type Decision struct {
	Tenant string
	// Override is set when access was granted through the SysAdmin override.
	Override bool
}
