package store

import (
	"context"
	"errors"
	"fmt"

	"cms0/internal/models"
	"cms0/internal/rbac"

	"gorm.io/gorm"
)

// GormRoleStore implements RoleStore on top of gorm/postgres.
type GormRoleStore struct {
	db *gorm.DB
}

func NewGormRoleStore(db *gorm.DB) *GormRoleStore {
	return &GormRoleStore{db: db}
}

func (s *GormRoleStore) FindBySlug(ctx context.Context, slug string) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").Where("slug = ?", slug).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: slug %q", rbac.ErrNotFound, slug)
		}
		return nil, err
	}
	return &role, nil
}

func (s *GormRoleStore) FindByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", rbac.ErrNotFound, id)
		}
		return nil, err
	}
	return &role, nil
}

func (s *GormRoleStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Role{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormRoleStore) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").Order("created_at asc").Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *GormRoleStore) ListBySlugPrefix(ctx context.Context, prefix string) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).Where("slug LIKE ?", prefix+"%").Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *GormRoleStore) Save(ctx context.Context, role *models.Role) error {
	return s.db.WithContext(ctx).Omit("Permissions").Save(role).Error
}

// Delete removes grants then the role row inside one transaction, so a
// concurrent reader never sees a role half-deleted.
func (s *GormRoleStore) Delete(ctx context.Context, role *models.Role) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Role{}, role.ID).Error
	})
}

func (s *GormRoleStore) FindGrants(ctx context.Context, roleID uint) ([]models.RolePermission, error) {
	var grants []models.RolePermission
	err := s.db.WithContext(ctx).Where("role_id = ?", roleID).Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (s *GormRoleStore) InsertGrants(ctx context.Context, grants []models.RolePermission) error {
	if len(grants) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&grants).Error
}

// ReplaceGrants deletes the current grant set and inserts the new one in a
// single transaction.
func (s *GormRoleStore) ReplaceGrants(ctx context.Context, roleID uint, grants []models.RolePermission) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}
		if len(grants) == 0 {
			return nil
		}
		return tx.Create(&grants).Error
	})
}

// GormUserStore implements UserStore on top of gorm/postgres.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %q", rbac.ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: email %q", rbac.ErrNotFound, email)
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormUserStore) Save(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *GormUserStore) Delete(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", user.ID).Error
}

func (s *GormUserStore) CountByRoleSlug(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("role_slug = ?", slug).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
