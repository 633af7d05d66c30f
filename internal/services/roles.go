package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cms0/internal/models"
	"cms0/internal/rbac"
	"cms0/internal/store"
	"cms0/internal/utils/logger"

	"gorm.io/datatypes"
)

// RoleSummary is the listing projection of a role.
type RoleSummary struct {
	ID               uint      `json:"id"`
	Slug             string    `json:"slug"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	IsSystem         bool      `json:"isSystem"`
	IsActive         bool      `json:"isActive"`
	PermissionsCount int       `json:"permissionsCount"`
	ResourcesCount   int       `json:"resourcesCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PermissionToggle is one enabled/disabled checkbox of the permission matrix.
type PermissionToggle struct {
	Action  rbac.Action `json:"action"`
	Label   string      `json:"label"`
	Enabled bool        `json:"enabled"`
}

// PermissionMatrixRow renders one catalog resource against a role's grants.
type PermissionMatrixRow struct {
	Resource    rbac.Resource      `json:"resource"`
	Label       string             `json:"label"`
	Description string             `json:"description"`
	Toggles     []PermissionToggle `json:"toggles"`
}

// MatrixStats counts enabled toggles against the catalog total.
type MatrixStats struct {
	Selected int `json:"selected"`
	Total    int `json:"total"`
}

// RoleDetail is the full read projection of a role: summary, catalog-ordered
// matrix and toggle stats. It never mutates state.
type RoleDetail struct {
	Role   RoleSummary           `json:"role"`
	Matrix []PermissionMatrixRow `json:"matrix"`
	Stats  MatrixStats           `json:"stats"`
}

// CreateRoleInput carries an administrative role creation request. A zero
// Slug asks the service to derive one from Name.
type CreateRoleInput struct {
	Slug        string       `json:"slug,omitempty" validate:"omitempty,min=2,max=64,rbac_slug"`
	Name        string       `json:"name" validate:"required,min=2,max=128"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=255"`
	IsActive    *bool        `json:"isActive,omitempty"`
	Permissions []rbac.Grant `json:"permissions,omitempty" validate:"omitempty,dive"`
}

// UpdateRoleInput is a partial update; nil fields are left untouched.
// Permissions, when present, replaces the whole grant set.
type UpdateRoleInput struct {
	Slug        *string       `json:"slug,omitempty" validate:"omitempty,min=2,max=64,rbac_slug"`
	Name        *string       `json:"name,omitempty" validate:"omitempty,min=2,max=128"`
	Description *string       `json:"description,omitempty" validate:"omitempty,max=255"`
	IsActive    *bool         `json:"isActive,omitempty"`
	Permissions *[]rbac.Grant `json:"permissions,omitempty" validate:"omitempty,dive"`
}

// RoleService owns the role directory and the permission store. Every
// authorization decision and every role mutation in the system goes through
// it.
type RoleService struct {
	roles store.RoleStore
	log   *logger.Logger
}

func NewRoleService(roles store.RoleStore) *RoleService {
	return &RoleService{
		roles: roles,
		log:   logger.New("role_service"),
	}
}

// Seed ensures the built-in roles exist. It is idempotent and fill-gaps-only:
// missing roles are created, missing grant rows are inserted, but anything an
// administrator already edited stays untouched. A seed failure leaves the
// authorization baseline undefined, so callers should treat it as fatal.
func (s *RoleService) Seed(ctx context.Context) error {
	for _, seed := range rbac.DefaultRoleSeeds() {
		if err := s.ValidatePermissions(seed.Permissions); err != nil {
			return fmt.Errorf("seed %q is inconsistent with the catalog: %w", seed.Slug, err)
		}

		role, err := s.roles.FindBySlug(ctx, seed.Slug)
		switch {
		case errors.Is(err, rbac.ErrNotFound):
			description := seed.Description
			role = &models.Role{
				Slug:        seed.Slug,
				Name:        seed.Name,
				Description: &description,
				IsSystem:    seed.IsSystem,
				IsActive:    true,
			}
			if err := s.roles.Save(ctx, role); err != nil {
				return fmt.Errorf("failed to create default role %q: %w", seed.Slug, err)
			}
			s.log.Info("Created default role '%s'", seed.Slug)
		case err != nil:
			return err
		default:
			changed := false
			if role.Name == "" {
				role.Name = seed.Name
				changed = true
			}
			if (role.Description == nil || *role.Description == "") && seed.Description != "" {
				description := seed.Description
				role.Description = &description
				changed = true
			}
			if seed.IsSystem && !role.IsSystem {
				role.IsSystem = true
				changed = true
				s.log.Info("Marked role '%s' as system role", role.Slug)
			}
			if changed {
				if err := s.roles.Save(ctx, role); err != nil {
					return fmt.Errorf("failed to update default role %q: %w", seed.Slug, err)
				}
			}
		}

		if err := s.ensureSeedGrants(ctx, role.ID, seed.Permissions); err != nil {
			return err
		}
	}
	return nil
}

// ensureSeedGrants inserts seed grants only where no grant row exists yet for
// the (role, resource) pair, so re-seeding never clobbers admin edits.
func (s *RoleService) ensureSeedGrants(ctx context.Context, roleID uint, grants []rbac.Grant) error {
	if len(grants) == 0 {
		return nil
	}

	existing, err := s.roles.FindGrants(ctx, roleID)
	if err != nil {
		return err
	}

	taken := make(map[rbac.Resource]bool, len(existing))
	for _, grant := range existing {
		taken[grant.Resource] = true
	}

	var missing []models.RolePermission
	for _, grant := range grants {
		if taken[grant.Resource] {
			continue
		}
		missing = append(missing, models.RolePermission{
			RoleID:   roleID,
			Resource: grant.Resource,
			Actions:  datatypes.NewJSONSlice(rbac.SanitizeActions(grant.Actions)),
		})
	}
	if len(missing) == 0 {
		return nil
	}
	return s.roles.InsertGrants(ctx, missing)
}

// ResourceDefinitions exposes the static catalog for matrix rendering.
func (s *RoleService) ResourceDefinitions() []rbac.ResourceDefinition {
	return rbac.Definitions()
}

// ListRoles returns all roles oldest-first.
func (s *RoleService) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]RoleSummary, 0, len(roles))
	for i := range roles {
		summaries = append(summaries, toRoleSummary(&roles[i]))
	}
	return summaries, nil
}

// GetRoleDetail returns the role plus its catalog-ordered permission matrix.
func (s *RoleService) GetRoleDetail(ctx context.Context, slug string) (*RoleDetail, error) {
	role, err := s.roles.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return buildRoleDetail(role), nil
}

// CreateRole registers a new custom role. Explicit slugs collide with
// ErrConflict; omitted slugs are derived from the name.
func (s *RoleService) CreateRole(ctx context.Context, input CreateRoleInput) (*RoleDetail, error) {
	if err := s.ValidatePermissions(input.Permissions); err != nil {
		return nil, err
	}

	slug := strings.ToLower(input.Slug)
	if slug != "" {
		exists, err := s.roles.SlugExists(ctx, slug)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %q", rbac.ErrConflict, slug)
		}
	} else {
		var err error
		slug, err = s.generateUniqueSlug(ctx, input.Name)
		if err != nil {
			return nil, err
		}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	role := &models.Role{
		Slug:        slug,
		Name:        input.Name,
		Description: input.Description,
		IsSystem:    false,
		IsActive:    isActive,
	}
	if err := s.roles.Save(ctx, role); err != nil {
		return nil, err
	}

	if len(input.Permissions) > 0 {
		if err := s.roles.InsertGrants(ctx, grantRows(role.ID, input.Permissions)); err != nil {
			return nil, err
		}
	}

	return s.GetRoleDetail(ctx, role.Slug)
}

// UpdateRole applies a partial update. System roles refuse slug changes;
// a present Permissions field replaces, never merges, the grant set.
func (s *RoleService) UpdateRole(ctx context.Context, id uint, input UpdateRoleInput) (*RoleDetail, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Slug != nil {
		incoming := strings.ToLower(*input.Slug)
		if incoming != role.Slug {
			if role.IsSystem {
				return nil, fmt.Errorf("%w: system roles cannot change slug", rbac.ErrInvalidOperation)
			}
			taken, err := s.roles.SlugExists(ctx, incoming)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, fmt.Errorf("%w: %q", rbac.ErrConflict, incoming)
			}
			role.Slug = incoming
		}
	}

	if input.Name != nil {
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = input.Description
	}
	if input.IsActive != nil {
		role.IsActive = *input.IsActive
	}

	if input.Permissions != nil {
		if err := s.ValidatePermissions(*input.Permissions); err != nil {
			return nil, err
		}
	}

	if err := s.roles.Save(ctx, role); err != nil {
		return nil, err
	}

	if input.Permissions != nil {
		if err := s.roles.ReplaceGrants(ctx, role.ID, grantRows(role.ID, *input.Permissions)); err != nil {
			return nil, err
		}
	}

	return s.GetRoleDetail(ctx, role.Slug)
}

// ReplacePermissions swaps a role's full grant set atomically. An empty list
// leaves the role authenticated but impotent.
func (s *RoleService) ReplacePermissions(ctx context.Context, id uint, grants []rbac.Grant) (*RoleDetail, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.ValidatePermissions(grants); err != nil {
		return nil, err
	}

	if err := s.roles.ReplaceGrants(ctx, role.ID, grantRows(role.ID, grants)); err != nil {
		return nil, err
	}
	return s.GetRoleDetail(ctx, role.Slug)
}

// DeleteRole removes a custom role and its grants. System roles cannot be
// deleted.
func (s *RoleService) DeleteRole(ctx context.Context, id uint) error {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if role.IsSystem {
		return fmt.Errorf("%w: system roles cannot be deleted", rbac.ErrInvalidOperation)
	}
	return s.roles.Delete(ctx, role)
}

// EnsureAssignable loads a role that may be handed to a user: it must exist
// and be active.
func (s *RoleService) EnsureAssignable(ctx context.Context, slug string) (*models.Role, error) {
	role, err := s.roles.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return nil, fmt.Errorf("%w: role %q does not exist", rbac.ErrInvalidOperation, slug)
		}
		return nil, err
	}
	if !role.IsActive {
		return nil, fmt.Errorf("%w: role %q is inactive", rbac.ErrInvalidOperation, slug)
	}
	return role, nil
}

// RoleHasPermissions is the authorization decision: it reports whether the
// active role behind roleSlug covers every requirement. Missing slug, empty
// requirement list, unknown role and inactive role all fail closed.
func (s *RoleService) RoleHasPermissions(ctx context.Context, roleSlug string, requirements []rbac.Requirement) (bool, error) {
	if roleSlug == "" || len(requirements) == 0 {
		return false, nil
	}

	role, err := s.roles.FindBySlug(ctx, roleSlug)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !role.IsActive {
		return false, nil
	}

	grants := role.GrantMap()
	for _, requirement := range requirements {
		allowed, ok := grants[requirement.Resource]
		if !ok {
			return false, nil
		}
		for _, action := range requirement.Actions {
			if !allowed[action] {
				return false, nil
			}
		}
	}
	return true, nil
}

// ListCustomRoles returns every per-user private role, orphaned or not.
func (s *RoleService) ListCustomRoles(ctx context.Context) ([]models.Role, error) {
	return s.roles.ListBySlugPrefix(ctx, rbac.CustomRolePrefix)
}

// PermissionMapForRole is the advisory "what can I do" projection. Unknown
// roles yield an empty map rather than an error.
func (s *RoleService) PermissionMapForRole(ctx context.Context, roleSlug string) (map[rbac.Resource][]rbac.Action, error) {
	permissions := make(map[rbac.Resource][]rbac.Action)

	role, err := s.roles.FindBySlug(ctx, roleSlug)
	if err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			return permissions, nil
		}
		return nil, err
	}

	for _, grant := range role.Permissions {
		actions := make([]rbac.Action, len(grant.Actions))
		copy(actions, grant.Actions)
		permissions[grant.Resource] = actions
	}
	return permissions, nil
}

// ValidatePermissions rejects the whole batch when any grant references a
// resource absent from the catalog, an action outside the global enum, or an
// action not legal for that resource. It runs before every write; nothing is
// persisted from a rejected batch.
func (s *RoleService) ValidatePermissions(grants []rbac.Grant) error {
	for _, grant := range grants {
		allowed := rbac.AllowedActions(grant.Resource)
		if allowed == nil {
			return fmt.Errorf("%w: unknown resource %q", rbac.ErrInvalidPermission, grant.Resource)
		}
		for _, action := range grant.Actions {
			if !action.Valid() {
				return fmt.Errorf("%w: unsupported action %q", rbac.ErrInvalidPermission, action)
			}
			if !allowed[action] {
				return fmt.Errorf("%w: action %q is not available for resource %q",
					rbac.ErrInvalidPermission, action, grant.Resource)
			}
		}
	}
	return nil
}

// generateUniqueSlug canonicalizes name and appends -2, -3, ... on collision,
// re-truncating the base so the result stays within the length cap.
func (s *RoleService) generateUniqueSlug(ctx context.Context, name string) (string, error) {
	base := rbac.Slugify(name)
	if len(base) < rbac.SlugMinLen {
		return "", fmt.Errorf("%w: cannot derive a slug from %q, provide one explicitly", rbac.ErrInvalidOperation, name)
	}

	candidate := base
	for counter := 2; ; counter++ {
		exists, err := s.roles.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}

		suffix := fmt.Sprintf("-%d", counter)
		truncated := base
		if len(truncated) > rbac.SlugMaxLen-len(suffix) {
			truncated = truncated[:rbac.SlugMaxLen-len(suffix)]
		}
		candidate = truncated + suffix
	}
}

func grantRows(roleID uint, grants []rbac.Grant) []models.RolePermission {
	rows := make([]models.RolePermission, 0, len(grants))
	for _, grant := range grants {
		rows = append(rows, models.RolePermission{
			RoleID:   roleID,
			Resource: grant.Resource,
			Actions:  datatypes.NewJSONSlice(rbac.SanitizeActions(grant.Actions)),
		})
	}
	return rows
}

func toRoleSummary(role *models.Role) RoleSummary {
	permissionsCount := 0
	for _, grant := range role.Permissions {
		permissionsCount += len(grant.Actions)
	}
	return RoleSummary{
		ID:               role.ID,
		Slug:             role.Slug,
		Name:             role.Name,
		Description:      role.Description,
		IsSystem:         role.IsSystem,
		IsActive:         role.IsActive,
		PermissionsCount: permissionsCount,
		ResourcesCount:   len(role.Permissions),
		CreatedAt:        role.CreatedAt,
		UpdatedAt:        role.UpdatedAt,
	}
}

func buildRoleDetail(role *models.Role) *RoleDetail {
	grants := role.GrantMap()

	matrix := make([]PermissionMatrixRow, 0, len(rbac.Definitions()))
	stats := MatrixStats{}
	for _, definition := range rbac.Definitions() {
		granted := grants[definition.Resource]

		toggles := make([]PermissionToggle, 0, len(definition.Actions))
		for _, entry := range definition.Actions {
			enabled := granted[entry.Action]
			toggles = append(toggles, PermissionToggle{
				Action:  entry.Action,
				Label:   entry.Label,
				Enabled: enabled,
			})
			stats.Total++
			if enabled {
				stats.Selected++
			}
		}
		matrix = append(matrix, PermissionMatrixRow{
			Resource:    definition.Resource,
			Label:       definition.Label,
			Description: definition.Description,
			Toggles:     toggles,
		})
	}

	return &RoleDetail{
		Role:   toRoleSummary(role),
		Matrix: matrix,
		Stats:  stats,
	}
}
