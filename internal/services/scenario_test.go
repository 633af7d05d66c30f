package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"cms0/internal/models"
	"cms0/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRoleStore is an in-memory RoleStore for whole-flow tests where mock
// call expectations would only get in the way.
type memRoleStore struct {
	nextID uint
	roles  map[uint]*models.Role
	grants map[uint][]models.RolePermission
}

func newMemRoleStore() *memRoleStore {
	return &memRoleStore{
		roles:  make(map[uint]*models.Role),
		grants: make(map[uint][]models.RolePermission),
	}
}

func (s *memRoleStore) snapshot(role *models.Role) *models.Role {
	copied := *role
	copied.Permissions = append([]models.RolePermission(nil), s.grants[role.ID]...)
	return &copied
}

func (s *memRoleStore) FindBySlug(_ context.Context, slug string) (*models.Role, error) {
	for _, role := range s.roles {
		if role.Slug == slug {
			return s.snapshot(role), nil
		}
	}
	return nil, rbac.ErrNotFound
}

func (s *memRoleStore) FindByID(_ context.Context, id uint) (*models.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, rbac.ErrNotFound
	}
	return s.snapshot(role), nil
}

func (s *memRoleStore) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, role := range s.roles {
		if role.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *memRoleStore) List(_ context.Context) ([]models.Role, error) {
	out := make([]models.Role, 0, len(s.roles))
	for id := uint(1); id <= s.nextID; id++ {
		if role, ok := s.roles[id]; ok {
			out = append(out, *s.snapshot(role))
		}
	}
	return out, nil
}

func (s *memRoleStore) ListBySlugPrefix(_ context.Context, prefix string) ([]models.Role, error) {
	var out []models.Role
	for id := uint(1); id <= s.nextID; id++ {
		if role, ok := s.roles[id]; ok && strings.HasPrefix(role.Slug, prefix) {
			out = append(out, *s.snapshot(role))
		}
	}
	return out, nil
}

func (s *memRoleStore) Save(_ context.Context, role *models.Role) error {
	if role.ID == 0 {
		s.nextID++
		role.ID = s.nextID
	}
	copied := *role
	copied.Permissions = nil
	s.roles[role.ID] = &copied
	return nil
}

func (s *memRoleStore) Delete(_ context.Context, role *models.Role) error {
	delete(s.roles, role.ID)
	delete(s.grants, role.ID)
	return nil
}

func (s *memRoleStore) FindGrants(_ context.Context, roleID uint) ([]models.RolePermission, error) {
	return append([]models.RolePermission(nil), s.grants[roleID]...), nil
}

func (s *memRoleStore) InsertGrants(_ context.Context, grants []models.RolePermission) error {
	for _, grant := range grants {
		s.grants[grant.RoleID] = append(s.grants[grant.RoleID], grant)
	}
	return nil
}

func (s *memRoleStore) ReplaceGrants(_ context.Context, roleID uint, grants []models.RolePermission) error {
	s.grants[roleID] = append([]models.RolePermission(nil), grants...)
	return nil
}

type memUserStore struct {
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, rbac.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, rbac.ErrNotFound
}

func (s *memUserStore) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, *user)
	}
	return out, nil
}

func (s *memUserStore) Save(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(s.users)+1)
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memUserStore) Delete(_ context.Context, user *models.User) error {
	delete(s.users, user.ID)
	return nil
}

func (s *memUserStore) CountByRoleSlug(_ context.Context, slug string) (int64, error) {
	var count int64
	for _, user := range s.users {
		if user.RoleSlug == slug {
			count++
		}
	}
	return count, nil
}

func canDo(t *testing.T, roles *RoleService, slug string, resource rbac.Resource, actions ...rbac.Action) bool {
	t.Helper()
	ok, err := roles.RoleHasPermissions(context.Background(), slug, []rbac.Requirement{
		{Resource: resource, Actions: actions},
	})
	require.NoError(t, err)
	return ok
}

// TestCustomPermissionLifecycle walks the full flow: seed the defaults,
// customize one user, tighten their grants, move them back to a named role
// and reclaim the private role.
func TestCustomPermissionLifecycle(t *testing.T) {
	ctx := context.Background()
	roleStore := newMemRoleStore()
	userStore := newMemUserStore()

	roles := NewRoleService(roleStore)
	users := NewUserService(userStore, roles)

	require.NoError(t, roles.Seed(ctx))
	require.NoError(t, roles.Seed(ctx), "re-seeding is a no-op")

	// Seeded baseline behaves as documented.
	assert.True(t, canDo(t, roles, rbac.RoleAdmin, rbac.ResourceRoles, rbac.ActionDelete))
	assert.True(t, canDo(t, roles, rbac.RoleEditor, rbac.ResourcePosts, rbac.ActionCreate))
	assert.False(t, canDo(t, roles, rbac.RoleEditor, rbac.ResourceUsers, rbac.ActionUpdate))
	assert.True(t, canDo(t, roles, rbac.RoleViewer, rbac.ResourcePages, rbac.ActionRead))
	assert.False(t, canDo(t, roles, rbac.RoleViewer, rbac.ResourceUsers, rbac.ActionRead))

	user, err := users.CreateUser(ctx, CreateUserInput{
		Username: "sam",
		Email:    "sam@example.com",
		Password: "a-long-password",
		RoleSlug: rbac.RoleEditor,
	})
	require.NoError(t, err)

	// Hand the user a bespoke permission set: pages only, read and update.
	detail, err := users.AssignCustomPermissions(ctx, user.ID, []rbac.Grant{
		{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionRead, rbac.ActionUpdate}},
	})
	require.NoError(t, err)
	customSlug := detail.Role.Slug
	assert.True(t, rbac.IsCustomRoleFor(customSlug, user.ID))

	updated, err := users.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, customSlug, updated.RoleSlug)
	assert.True(t, canDo(t, roles, customSlug, rbac.ResourcePages, rbac.ActionUpdate))
	assert.False(t, canDo(t, roles, customSlug, rbac.ResourcePosts, rbac.ActionRead))

	// Tighten the set; the same private role is rewritten, not duplicated.
	_, err = users.AssignCustomPermissions(ctx, user.ID, []rbac.Grant{
		{Resource: rbac.ResourcePages, Actions: []rbac.Action{rbac.ActionRead}},
	})
	require.NoError(t, err)

	customRoles, err := roles.ListCustomRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, customRoles, 1)
	assert.False(t, canDo(t, roles, customSlug, rbac.ResourcePages, rbac.ActionUpdate))
	assert.True(t, canDo(t, roles, customSlug, rbac.ResourcePages, rbac.ActionRead))

	// Move the user back onto a named role; the private role is now orphaned.
	editor := rbac.RoleEditor
	_, err = users.UpdateUser(ctx, user.ID, UpdateUserInput{RoleSlug: &editor})
	require.NoError(t, err)

	swept, err := users.SweepOrphanCustomRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	customRoles, err = roles.ListCustomRoles(ctx)
	require.NoError(t, err)
	assert.Empty(t, customRoles)

	_, err = roles.GetRoleDetail(ctx, customSlug)
	assert.ErrorIs(t, err, rbac.ErrNotFound)
}

// TestRoleLifecycle covers named-role administration against live storage.
func TestRoleLifecycle(t *testing.T) {
	ctx := context.Background()
	roleStore := newMemRoleStore()
	roles := NewRoleService(roleStore)
	require.NoError(t, roles.Seed(ctx))

	detail, err := roles.CreateRole(ctx, CreateRoleInput{
		Name: "Content Team",
		Permissions: []rbac.Grant{
			{Resource: rbac.ResourcePages, Actions: rbac.AllActions()},
			{Resource: rbac.ResourcePosts, Actions: []rbac.Action{rbac.ActionRead, rbac.ActionCreate}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "content-team", detail.Role.Slug)

	// Same name again: the slug picks up a suffix instead of colliding.
	second, err := roles.CreateRole(ctx, CreateRoleInput{Name: "Content Team"})
	require.NoError(t, err)
	assert.Equal(t, "content-team-2", second.Role.Slug)

	assert.True(t, canDo(t, roles, "content-team", rbac.ResourcePages, rbac.ActionDelete))
	assert.False(t, canDo(t, roles, "content-team", rbac.ResourcePosts, rbac.ActionDelete))

	// Deactivating the role fails every check without touching grants.
	inactive := false
	_, err = roles.UpdateRole(ctx, detail.Role.ID, UpdateRoleInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, canDo(t, roles, "content-team", rbac.ResourcePages, rbac.ActionRead))

	active := true
	_, err = roles.UpdateRole(ctx, detail.Role.ID, UpdateRoleInput{IsActive: &active})
	require.NoError(t, err)
	assert.True(t, canDo(t, roles, "content-team", rbac.ResourcePages, rbac.ActionRead))

	// Replace wipes, never merges.
	_, err = roles.ReplacePermissions(ctx, detail.Role.ID, []rbac.Grant{
		{Resource: rbac.ResourceCategories, Actions: []rbac.Action{rbac.ActionRead}},
	})
	require.NoError(t, err)
	assert.False(t, canDo(t, roles, "content-team", rbac.ResourcePages, rbac.ActionRead))
	assert.True(t, canDo(t, roles, "content-team", rbac.ResourceCategories, rbac.ActionRead))

	require.NoError(t, roles.DeleteRole(ctx, second.Role.ID))
	_, err = roles.GetRoleDetail(ctx, "content-team-2")
	assert.ErrorIs(t, err, rbac.ErrNotFound)
}
