package services

import (
	"context"
	"testing"

	"cms0/internal/models"
	"cms0/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type mockRoleStore struct {
	mock.Mock
}

func (m *mockRoleStore) FindBySlug(ctx context.Context, slug string) (*models.Role, error) {
	args := m.Called(ctx, slug)
	if role, ok := args.Get(0).(*models.Role); ok {
		return role, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleStore) FindByID(ctx context.Context, id uint) (*models.Role, error) {
	args := m.Called(ctx, id)
	if role, ok := args.Get(0).(*models.Role); ok {
		return role, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockRoleStore) List(ctx context.Context) ([]models.Role, error) {
	args := m.Called(ctx)
	if roles, ok := args.Get(0).([]models.Role); ok {
		return roles, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleStore) ListBySlugPrefix(ctx context.Context, prefix string) ([]models.Role, error) {
	args := m.Called(ctx, prefix)
	if roles, ok := args.Get(0).([]models.Role); ok {
		return roles, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleStore) Save(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *mockRoleStore) Delete(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *mockRoleStore) FindGrants(ctx context.Context, roleID uint) ([]models.RolePermission, error) {
	args := m.Called(ctx, roleID)
	if grants, ok := args.Get(0).([]models.RolePermission); ok {
		return grants, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRoleStore) InsertGrants(ctx context.Context, grants []models.RolePermission) error {
	args := m.Called(ctx, grants)
	return args.Error(0)
}

func (m *mockRoleStore) ReplaceGrants(ctx context.Context, roleID uint, grants []models.RolePermission) error {
	args := m.Called(ctx, roleID, grants)
	return args.Error(0)
}

func grantRow(roleID uint, resource rbac.Resource, actions ...rbac.Action) models.RolePermission {
	return models.RolePermission{
		RoleID:   roleID,
		Resource: resource,
		Actions:  datatypes.NewJSONSlice(actions),
	}
}

func activeRole(id uint, slug string, grants ...models.RolePermission) *models.Role {
	return &models.Role{
		ID:          id,
		Slug:        slug,
		Name:        slug,
		IsActive:    true,
		Permissions: grants,
	}
}

func TestRoleHasPermissionsSupersetRule(t *testing.T) {
	ctx := context.Background()
	role := activeRole(7, "content-team",
		grantRow(7, rbac.ResourcePages, rbac.ActionRead, rbac.ActionCreate, rbac.ActionUpdate, rbac.ActionDelete),
		grantRow(7, rbac.ResourceCategories, rbac.ActionRead),
	)

	store := new(mockRoleStore)
	store.On("FindBySlug", ctx, "content-team").Return(role, nil)
	service := NewRoleService(store)

	t.Run("full grant satisfies a partial requirement", func(t *testing.T) {
		ok, err := service.RoleHasPermissions(ctx, "content-team", []rbac.Requirement{
			{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionRead, rbac.ActionUpdate}},
		})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("one uncovered action denies", func(t *testing.T) {
		ok, err := service.RoleHasPermissions(ctx, "content-team", []rbac.Requirement{
			{Resource: rbac.ResourceCategories, Actions: []rbac.Action{rbac.ActionRead, rbac.ActionUpdate}},
		})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("all requirements must hold", func(t *testing.T) {
		ok, err := service.RoleHasPermissions(ctx, "content-team", []rbac.Requirement{
			{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionUpdate}},
			{Resource: rbac.ResourcePosts, Actions: []rbac.Action{rbac.ActionRead}},
		})
		require.NoError(t, err)
		assert.False(t, ok, "no grant row for posts at all")
	})
}

func TestRoleHasPermissionsFailsClosed(t *testing.T) {
	ctx := context.Background()
	readPages := []rbac.Requirement{{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionRead}}}

	t.Run("empty role slug", func(t *testing.T) {
		store := new(mockRoleStore)
		service := NewRoleService(store)

		ok, err := service.RoleHasPermissions(ctx, "", readPages)
		require.NoError(t, err)
		assert.False(t, ok)
		store.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
	})

	t.Run("empty requirement list", func(t *testing.T) {
		store := new(mockRoleStore)
		service := NewRoleService(store)

		ok, err := service.RoleHasPermissions(ctx, "editor", nil)
		require.NoError(t, err)
		assert.False(t, ok)
		store.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
	})

	t.Run("unknown role denies without error", func(t *testing.T) {
		store := new(mockRoleStore)
		store.On("FindBySlug", ctx, "ghost").Return(nil, rbac.ErrNotFound)
		service := NewRoleService(store)

		ok, err := service.RoleHasPermissions(ctx, "ghost", readPages)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("inactive role denies", func(t *testing.T) {
		role := activeRole(3, "suspended", grantRow(3, rbac.ResourcePages, rbac.ActionRead))
		role.IsActive = false

		store := new(mockRoleStore)
		store.On("FindBySlug", ctx, "suspended").Return(role, nil)
		service := NewRoleService(store)

		ok, err := service.RoleHasPermissions(ctx, "suspended", readPages)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	seeds := rbac.DefaultRoleSeeds()

	store := new(mockRoleStore)
	for i, seed := range seeds {
		description := seed.Description
		role := &models.Role{
			ID:          uint(i + 1),
			Slug:        seed.Slug,
			Name:        seed.Name,
			Description: &description,
			IsSystem:    true,
			IsActive:    true,
		}

		var grants []models.RolePermission
		for _, grant := range seed.Permissions {
			grants = append(grants, grantRow(role.ID, grant.Resource, grant.Actions...))
		}

		store.On("FindBySlug", ctx, seed.Slug).Return(role, nil)
		store.On("FindGrants", ctx, role.ID).Return(grants, nil)
	}

	service := NewRoleService(store)
	require.NoError(t, service.Seed(ctx))

	// Everything already in place: nothing gets written.
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "InsertGrants", mock.Anything, mock.Anything)
}

func TestSeedPreservesAdminEdits(t *testing.T) {
	ctx := context.Background()
	seeds := rbac.DefaultRoleSeeds()

	store := new(mockRoleStore)
	for i, seed := range seeds {
		description := seed.Description
		role := &models.Role{
			ID:          uint(i + 1),
			Slug:        seed.Slug,
			Name:        seed.Name,
			Description: &description,
			IsSystem:    true,
			IsActive:    false, // an admin switched the role off
		}

		// Grant rows exist for every seeded resource, but an admin trimmed
		// the actions down to read-only. The seeder must not restore them.
		var grants []models.RolePermission
		for _, grant := range seed.Permissions {
			grants = append(grants, grantRow(role.ID, grant.Resource, rbac.ActionRead))
		}

		store.On("FindBySlug", ctx, seed.Slug).Return(role, nil)
		store.On("FindGrants", ctx, role.ID).Return(grants, nil)
	}

	service := NewRoleService(store)
	require.NoError(t, service.Seed(ctx))

	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "InsertGrants", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ReplaceGrants", mock.Anything, mock.Anything, mock.Anything)
}

func TestSeedFillsMissingGrantRows(t *testing.T) {
	ctx := context.Background()
	seeds := rbac.DefaultRoleSeeds()

	store := new(mockRoleStore)
	for i, seed := range seeds {
		description := seed.Description
		role := &models.Role{
			ID:          uint(i + 1),
			Slug:        seed.Slug,
			Name:        seed.Name,
			Description: &description,
			IsSystem:    true,
			IsActive:    true,
		}

		// Drop the last grant row to simulate a resource added to the
		// catalog after the role was first seeded.
		var grants []models.RolePermission
		for _, grant := range seed.Permissions[:len(seed.Permissions)-1] {
			grants = append(grants, grantRow(role.ID, grant.Resource, grant.Actions...))
		}
		missing := seed.Permissions[len(seed.Permissions)-1]

		store.On("FindBySlug", ctx, seed.Slug).Return(role, nil)
		store.On("FindGrants", ctx, role.ID).Return(grants, nil)
		store.On("InsertGrants", ctx, mock.MatchedBy(func(rows []models.RolePermission) bool {
			return len(rows) == 1 && rows[0].RoleID == role.ID && rows[0].Resource == missing.Resource
		})).Return(nil).Once()
	}

	service := NewRoleService(store)
	require.NoError(t, service.Seed(ctx))
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateRoleDerivesSlugFromName(t *testing.T) {
	ctx := context.Background()

	store := new(mockRoleStore)
	store.On("SlugExists", ctx, "content-team").Return(false, nil)
	store.On("Save", ctx, mock.AnythingOfType("*models.Role")).
		Run(func(args mock.Arguments) {
			role := args.Get(1).(*models.Role)
			role.ID = 42
		}).Return(nil)
	store.On("FindBySlug", ctx, "content-team").Return(
		activeRole(42, "content-team", grantRow(42, rbac.ResourcePages, rbac.ActionRead)), nil)
	store.On("InsertGrants", ctx, mock.MatchedBy(func(rows []models.RolePermission) bool {
		return len(rows) == 1 && rows[0].RoleID == 42 && rows[0].Resource == rbac.ResourcePages
	})).Return(nil)

	service := NewRoleService(store)
	detail, err := service.CreateRole(ctx, CreateRoleInput{
		Name: "Content Team",
		Permissions: []rbac.Grant{
			{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionRead}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "content-team", detail.Role.Slug)
	assert.False(t, detail.Role.IsSystem)
	store.AssertExpectations(t)
}

func TestCreateRoleAppendsSuffixOnCollision(t *testing.T) {
	ctx := context.Background()

	store := new(mockRoleStore)
	store.On("SlugExists", ctx, "content-team").Return(true, nil)
	store.On("SlugExists", ctx, "content-team-2").Return(false, nil)
	store.On("Save", ctx, mock.AnythingOfType("*models.Role")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Role).ID = 43
		}).Return(nil)
	store.On("FindBySlug", ctx, "content-team-2").Return(activeRole(43, "content-team-2"), nil)

	service := NewRoleService(store)
	detail, err := service.CreateRole(ctx, CreateRoleInput{Name: "Content Team"})
	require.NoError(t, err)
	assert.Equal(t, "content-team-2", detail.Role.Slug)
}

func TestCreateRoleExplicitSlugConflicts(t *testing.T) {
	ctx := context.Background()

	store := new(mockRoleStore)
	store.On("SlugExists", ctx, "editor").Return(true, nil)

	service := NewRoleService(store)
	_, err := service.CreateRole(ctx, CreateRoleInput{Slug: "editor", Name: "Shadow Editor"})
	assert.ErrorIs(t, err, rbac.ErrConflict)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSystemRolesAreProtected(t *testing.T) {
	ctx := context.Background()
	admin := activeRole(1, "admin")
	admin.IsSystem = true

	t.Run("slug is immutable", func(t *testing.T) {
		store := new(mockRoleStore)
		store.On("FindByID", ctx, uint(1)).Return(admin, nil)
		service := NewRoleService(store)

		newSlug := "super-admin"
		_, err := service.UpdateRole(ctx, 1, UpdateRoleInput{Slug: &newSlug})
		assert.ErrorIs(t, err, rbac.ErrInvalidOperation)
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("cannot be deleted", func(t *testing.T) {
		store := new(mockRoleStore)
		store.On("FindByID", ctx, uint(1)).Return(admin, nil)
		service := NewRoleService(store)

		err := service.DeleteRole(ctx, 1)
		assert.ErrorIs(t, err, rbac.ErrInvalidOperation)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("other fields stay editable", func(t *testing.T) {
		role := activeRole(1, "admin")
		role.IsSystem = true

		store := new(mockRoleStore)
		store.On("FindByID", ctx, uint(1)).Return(role, nil)
		store.On("Save", ctx, role).Return(nil)
		store.On("FindBySlug", ctx, "admin").Return(role, nil)
		service := NewRoleService(store)

		description := "Full access"
		inactive := false
		detail, err := service.UpdateRole(ctx, 1, UpdateRoleInput{
			Description: &description,
			IsActive:    &inactive,
		})
		require.NoError(t, err)
		assert.Equal(t, "Full access", *detail.Role.Description)
		assert.False(t, detail.Role.IsActive)
	})
}

func TestReplacePermissionsWithEmptySet(t *testing.T) {
	ctx := context.Background()
	role := activeRole(9, "intern", grantRow(9, rbac.ResourcePages, rbac.ActionRead))

	store := new(mockRoleStore)
	store.On("FindByID", ctx, uint(9)).Return(role, nil)
	store.On("ReplaceGrants", ctx, uint(9), mock.MatchedBy(func(rows []models.RolePermission) bool {
		return len(rows) == 0
	})).Return(nil)
	store.On("FindBySlug", ctx, "intern").Return(activeRole(9, "intern"), nil)

	service := NewRoleService(store)
	detail, err := service.ReplacePermissions(ctx, 9, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Stats.Selected)

	// The stripped role still exists but can no longer pass any check.
	checkStore := new(mockRoleStore)
	checkStore.On("FindBySlug", ctx, "intern").Return(activeRole(9, "intern"), nil)
	service = NewRoleService(checkStore)
	ok, err := service.RoleHasPermissions(ctx, "intern", []rbac.Requirement{
		{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionRead}},
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidatePermissionsRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		grants []rbac.Grant
	}{
		{
			"unknown resource",
			[]rbac.Grant{
				{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionRead}},
				{Resource: rbac.Resource("projects"), Actions: []rbac.Action{rbac.ActionRead}},
			},
		},
		{
			"unknown action",
			[]rbac.Grant{
				{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionRead, rbac.Action("publish")}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(mockRoleStore)
			service := NewRoleService(store)

			_, err := service.CreateRole(ctx, CreateRoleInput{
				Name:        "Broken",
				Permissions: tc.grants,
			})
			assert.ErrorIs(t, err, rbac.ErrInvalidPermission)

			// Nothing persisted, not even the valid grants of the batch.
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "InsertGrants", mock.Anything, mock.Anything)
		})
	}
}

func TestPermissionMapForRole(t *testing.T) {
	ctx := context.Background()

	t.Run("known role", func(t *testing.T) {
		role := activeRole(5, "editor",
			grantRow(5, rbac.ResourcePosts, rbac.ActionRead, rbac.ActionCreate),
			grantRow(5, rbac.ResourceUsers, rbac.ActionRead),
		)
		store := new(mockRoleStore)
		store.On("FindBySlug", ctx, "editor").Return(role, nil)
		service := NewRoleService(store)

		permissions, err := service.PermissionMapForRole(ctx, "editor")
		require.NoError(t, err)
		assert.Equal(t, []rbac.Action{rbac.ActionRead, rbac.ActionCreate}, permissions[rbac.ResourcePosts])
		assert.Equal(t, []rbac.Action{rbac.ActionRead}, permissions[rbac.ResourceUsers])
	})

	t.Run("unknown role yields empty map", func(t *testing.T) {
		store := new(mockRoleStore)
		store.On("FindBySlug", ctx, "ghost").Return(nil, rbac.ErrNotFound)
		service := NewRoleService(store)

		permissions, err := service.PermissionMapForRole(ctx, "ghost")
		require.NoError(t, err)
		assert.NotNil(t, permissions)
		assert.Empty(t, permissions)
	})
}

func TestRoleDetailMatrixCoversCatalog(t *testing.T) {
	ctx := context.Background()
	role := activeRole(5, "editor", grantRow(5, rbac.ResourcePages, rbac.ActionRead, rbac.ActionUpdate))

	store := new(mockRoleStore)
	store.On("FindBySlug", ctx, "editor").Return(role, nil)
	service := NewRoleService(store)

	detail, err := service.GetRoleDetail(ctx, "editor")
	require.NoError(t, err)

	definitions := rbac.Definitions()
	require.Len(t, detail.Matrix, len(definitions))
	for i, row := range detail.Matrix {
		assert.Equal(t, definitions[i].Resource, row.Resource, "matrix rows follow catalog order")
		assert.Len(t, row.Toggles, 4)
	}
	assert.Equal(t, 2, detail.Stats.Selected)
	assert.Equal(t, len(definitions)*4, detail.Stats.Total)
}
