package identity

import "sort"

// Seeded role identifiers. The registry is reference data: roles are written
// once by SeedRoles before any user exists and never created through this
// package's API surface.
const (
	// RoleReportingUser can only view reporting for listings assigned to them
	RoleReportingUser = "reporting_user"
	// RoleUser can create listings and set up campaigns pending approval
	RoleUser = "user"
	// RoleManager has user functionality plus campaign approval and user creation
	RoleManager = "manager"
	// RoleAdmin can create admin and user accounts and sees aggregated reporting
	RoleAdmin = "admin"
	// RoleSuperAdmin administers the whole ecosystem, including role assignment
	RoleSuperAdmin = "super_admin"
)

// DefaultRoles returns the fixed role set in seed order
func DefaultRoles() []*Role {
	return []*Role{
		{ID: RoleSuperAdmin, Name: "Super Admin", Description: "Super administrator with all privileges"},
		{ID: RoleAdmin, Name: "Admin", Description: "Creates admin and user accounts, aggregated reporting"},
		{ID: RoleManager, Name: "Manager", Description: "User functionality plus campaign approval"},
		{ID: RoleUser, Name: "User", Description: "Creates listings and campaigns pending approval"},
		{ID: RoleReportingUser, Name: "Reporting User", Description: "View-only access to assigned reporting"},
	}
}

// Registry is the immutable in-process role cache. It is safe for concurrent
// reads; there is no mutation path after construction.
type Registry struct {
	roles       map[string]*Role
	defaultRole string
}

// RegistryOption customizes registry construction
type RegistryOption func(*Registry)

// WithDefaultRole marks a role id the lifecycle may fall back to. The id must
// be part of the registry or Default keeps reporting none.
func WithDefaultRole(roleID string) RegistryOption {
	return func(r *Registry) {
		r.defaultRole = roleID
	}
}

// NewRegistry builds a registry from the given roles. Pass DefaultRoles()
// for the standard set, or the rows loaded from the roles table.
func NewRegistry(roles []*Role, opts ...RegistryOption) *Registry {
	byID := make(map[string]*Role, len(roles))
	for _, role := range roles {
		if role == nil || role.ID == "" {
			continue
		}
		byID[role.ID] = role
	}

	r := &Registry{roles: byID}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.defaultRole != "" {
		if _, ok := byID[r.defaultRole]; !ok {
			r.defaultRole = ""
		}
	}

	return r
}

// Exists reports whether the role id is part of the registry
func (r *Registry) Exists(roleID string) bool {
	_, ok := r.roles[roleID]
	return ok
}

// Get returns the role for the id, or nil when unknown
func (r *Registry) Get(roleID string) *Role {
	return r.roles[roleID]
}

// Default returns the fallback role id, and false when none is configured
func (r *Registry) Default() (string, bool) {
	if r.defaultRole == "" {
		return "", false
	}
	return r.defaultRole, true
}

// IDs returns the registered role ids in stable order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.roles))
	for id := range r.roles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
