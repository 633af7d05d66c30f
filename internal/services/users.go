package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cms0/internal/models"
	"cms0/internal/rbac"
	"cms0/internal/store"
	"cms0/internal/utils/logger"

	"golang.org/x/crypto/bcrypt"
)

// CreateUserInput is an administrative user creation request.
type CreateUserInput struct {
	Username string `json:"username" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	RoleSlug string `json:"role" validate:"omitempty,rbac_slug"`
}

// UpdateUserInput is a partial user update; nil fields stay untouched.
type UpdateUserInput struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=2"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Bio      *string `json:"bio,omitempty"`
	Image    *string `json:"image,omitempty"`
	RoleSlug *string `json:"role,omitempty" validate:"omitempty,rbac_slug"`
}

// UserService manages subjects and derives their private roles when an
// administrator hands a single user a bespoke permission set.
type UserService struct {
	users store.UserStore
	roles *RoleService
	log   *logger.Logger
}

func NewUserService(users store.UserStore, roles *RoleService) *UserService {
	return &UserService{
		users: users,
		roles: roles,
		log:   logger.New("user_service"),
	}
}

// CreateUser registers a user with a hashed password. The requested role must
// exist and be active; it defaults to the viewer role.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: email %q already in use", rbac.ErrConflict, input.Email)
	} else if !errors.Is(err, rbac.ErrNotFound) {
		return nil, err
	}

	roleSlug := input.RoleSlug
	if roleSlug == "" {
		roleSlug = rbac.RoleViewer
	}
	if _, err := s.roles.EnsureAssignable(ctx, roleSlug); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
		RoleSlug: roleSlug,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and stamps the last login time.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", rbac.ErrForbidden)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// UpdateUser applies a partial update. Role changes are validated against the
// role directory first.
func (s *UserService) UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}
	if input.Image != nil {
		user.Image = *input.Image
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}
	if input.RoleSlug != nil && *input.RoleSlug != user.RoleSlug {
		if _, err := s.roles.EnsureAssignable(ctx, *input.RoleSlug); err != nil {
			return nil, err
		}
		user.RoleSlug = *input.RoleSlug
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, user)
}

// AssignCustomPermissions gives one user a bespoke permission set by
// materializing a private role. Repeat calls update the same private role
// instead of accumulating new ones:
//
//  1. reuse the user's current slug when it already is their private role,
//     otherwise derive the deterministic custom slug;
//  2. replace the role's grants if it exists, create it otherwise;
//  3. point the user at the private role if not already there.
func (s *UserService) AssignCustomPermissions(ctx context.Context, userID string, grants []rbac.Grant) (*RoleDetail, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	slug := rbac.CustomRoleSlug(user.ID)
	if rbac.IsCustomRoleFor(user.RoleSlug, user.ID) {
		slug = user.RoleSlug
	}

	detail, err := s.roles.GetRoleDetail(ctx, slug)
	switch {
	case err == nil:
		detail, err = s.roles.ReplacePermissions(ctx, detail.Role.ID, grants)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, rbac.ErrNotFound):
		description := fmt.Sprintf("Custom permission set for %s", user.Email)
		detail, err = s.roles.CreateRole(ctx, CreateRoleInput{
			Slug:        slug,
			Name:        fmt.Sprintf("Custom permissions (%s)", user.Username),
			Description: &description,
			Permissions: grants,
		})
		if err != nil {
			return nil, err
		}
		s.log.Info("Created custom role '%s' for user %s", slug, user.ID)
	default:
		return nil, err
	}

	if user.RoleSlug != slug {
		user.RoleSlug = slug
		if err := s.users.Save(ctx, user); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// SweepOrphanCustomRoles deletes private roles no user points at anymore,
// e.g. after a customized user was reassigned to a named role or deleted.
// Returns the number of roles reclaimed.
func (s *UserService) SweepOrphanCustomRoles(ctx context.Context) (int, error) {
	roles, err := s.roles.ListCustomRoles(ctx)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range roles {
		role := &roles[i]
		if role.IsSystem {
			continue
		}

		count, err := s.users.CountByRoleSlug(ctx, role.Slug)
		if err != nil {
			return swept, err
		}
		if count > 0 {
			continue
		}

		if err := s.roles.DeleteRole(ctx, role.ID); err != nil {
			return swept, err
		}
		s.log.Info("Reclaimed orphan custom role '%s'", role.Slug)
		swept++
	}
	return swept, nil
}
