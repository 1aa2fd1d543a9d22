package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/zeeshanravian1/go-user-identity"
)

func TestDefaultRoles(t *testing.T) {
	roles := identity.DefaultRoles()
	require.Len(t, roles, 5)

	ids := make([]string, 0, len(roles))
	for _, role := range roles {
		ids = append(ids, role.ID)
		assert.NotEmpty(t, role.Name)
	}

	assert.Contains(t, ids, identity.RoleSuperAdmin)
	assert.Contains(t, ids, identity.RoleAdmin)
	assert.Contains(t, ids, identity.RoleManager)
	assert.Contains(t, ids, identity.RoleUser)
	assert.Contains(t, ids, identity.RoleReportingUser)
}

func TestRegistryLookups(t *testing.T) {
	registry := identity.NewRegistry(identity.DefaultRoles())

	assert.True(t, registry.Exists(identity.RoleUser))
	assert.True(t, registry.Exists(identity.RoleSuperAdmin))
	assert.False(t, registry.Exists("root"))
	assert.False(t, registry.Exists(""))

	role := registry.Get(identity.RoleManager)
	require.NotNil(t, role)
	assert.Equal(t, "Manager", role.Name)

	assert.Nil(t, registry.Get("root"))

	assert.Equal(t, []string{
		identity.RoleAdmin,
		identity.RoleManager,
		identity.RoleReportingUser,
		identity.RoleSuperAdmin,
		identity.RoleUser,
	}, registry.IDs())
}

func TestRegistryDefaultRole(t *testing.T) {
	registry := identity.NewRegistry(identity.DefaultRoles())
	_, ok := registry.Default()
	assert.False(t, ok)

	registry = identity.NewRegistry(identity.DefaultRoles(), identity.WithDefaultRole(identity.RoleUser))
	id, ok := registry.Default()
	require.True(t, ok)
	assert.Equal(t, identity.RoleUser, id)

	// an id outside the registry is ignored
	registry = identity.NewRegistry(identity.DefaultRoles(), identity.WithDefaultRole("root"))
	_, ok = registry.Default()
	assert.False(t, ok)
}

func TestRegistrySkipsInvalidRows(t *testing.T) {
	registry := identity.NewRegistry([]*identity.Role{
		nil,
		{ID: ""},
		{ID: "auditor", Name: "Auditor"},
	})

	assert.Equal(t, []string{"auditor"}, registry.IDs())
}
