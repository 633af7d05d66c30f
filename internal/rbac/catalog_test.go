package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionsCanonicalOrder(t *testing.T) {
	expected := []Resource{
		ResourceLogo,
		ResourceSiteSettings,
		ResourceCategories,
		ResourcePages,
		ResourcePosts,
		ResourceMenu,
		ResourceUsers,
		ResourceRoles,
		ResourceArticles,
	}

	definitions := Definitions()
	require.Len(t, definitions, len(expected))
	for i, definition := range definitions {
		assert.Equal(t, expected[i], definition.Resource)
		assert.NotEmpty(t, definition.Label)
		assert.Len(t, definition.Actions, 4, "every resource offers full CRUD")
	}
}

func TestDefinitionFor(t *testing.T) {
	definition, ok := DefinitionFor(ResourcePages)
	require.True(t, ok)
	assert.Equal(t, "Pages", definition.Label)

	_, ok = DefinitionFor(Resource("projects"))
	assert.False(t, ok)
}

func TestAllowedActions(t *testing.T) {
	allowed := AllowedActions(ResourceRoles)
	require.NotNil(t, allowed)
	for _, action := range AllActions() {
		assert.True(t, allowed[action])
	}

	assert.Nil(t, AllowedActions(Resource("projects")))
}

func TestDefaultRoleSeedsAreCatalogConsistent(t *testing.T) {
	seeds := DefaultRoleSeeds()
	require.Len(t, seeds, 3)

	for _, seed := range seeds {
		assert.True(t, seed.IsSystem)
		for _, grant := range seed.Permissions {
			allowed := AllowedActions(grant.Resource)
			require.NotNil(t, allowed, "seed %s references unknown resource %s", seed.Slug, grant.Resource)
			for _, action := range grant.Actions {
				assert.True(t, allowed[action])
			}
		}
	}

	// viewer carries no users or roles grants at all
	viewer := seeds[2]
	assert.Equal(t, RoleViewer, viewer.Slug)
	for _, grant := range viewer.Permissions {
		assert.NotEqual(t, ResourceUsers, grant.Resource)
		assert.NotEqual(t, ResourceRoles, grant.Resource)
		assert.Equal(t, []Action{ActionRead}, grant.Actions)
	}
}
