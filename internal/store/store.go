package store

import (
	"context"

	"cms0/internal/models"
)

// RoleStore is the persistence contract the authorization engine runs
// against. Implementations must keep roles.slug and (role_id, resource)
// unique and execute Delete and ReplaceGrants atomically.
type RoleStore interface {
	// FindBySlug loads a role with its grants. Returns rbac.ErrNotFound when
	// no role carries the slug.
	FindBySlug(ctx context.Context, slug string) (*models.Role, error)

	// FindByID loads a role with its grants by primary key.
	FindByID(ctx context.Context, id uint) (*models.Role, error)

	// SlugExists reports whether any role already carries the slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// List returns all roles with grants, oldest first.
	List(ctx context.Context) ([]models.Role, error)

	// ListBySlugPrefix returns roles whose slug starts with prefix.
	ListBySlugPrefix(ctx context.Context, prefix string) ([]models.Role, error)

	// Save inserts or updates a role row (scalar fields only, not grants).
	Save(ctx context.Context, role *models.Role) error

	// Delete removes the role and its grants in one transaction.
	Delete(ctx context.Context, role *models.Role) error

	// FindGrants returns the grant rows of a role.
	FindGrants(ctx context.Context, roleID uint) ([]models.RolePermission, error)

	// InsertGrants appends grant rows without touching existing ones.
	InsertGrants(ctx context.Context, grants []models.RolePermission) error

	// ReplaceGrants atomically swaps the role's full grant set. An empty new
	// set leaves the role with zero grants.
	ReplaceGrants(ctx context.Context, roleID uint, grants []models.RolePermission) error
}

// UserStore covers the subject lookups the engine and the auth layer need.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User) error

	// CountByRoleSlug reports how many users point at a role slug. The
	// custom-role sweeper uses it to detect orphans.
	CountByRoleSlug(ctx context.Context, slug string) (int64, error)
}
