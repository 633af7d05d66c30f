package models

import (
	"time"

	"cms0/internal/rbac"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role is a named permission set. System roles are seeded at startup and can
// never be deleted or renamed; custom roles are created by administrators or
// derived per-user.
type Role struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Slug        string           `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Name        string           `gorm:"size:128;not null" json:"name"`
	Description *string          `gorm:"size:255" json:"description,omitempty"`
	IsSystem    bool             `gorm:"not null;default:false" json:"isSystem"`
	IsActive    bool             `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
}

// RolePermission is one grant row: the actions a role may perform on a single
// resource. At most one row exists per (role, resource) pair.
type RolePermission struct {
	ID        string                           `gorm:"type:uuid;primary_key" json:"id"`
	RoleID    uint                             `gorm:"not null;uniqueIndex:idx_role_permissions_role_resource" json:"roleId"`
	Resource  rbac.Resource                    `gorm:"size:64;not null;uniqueIndex:idx_role_permissions_role_resource" json:"resource"`
	Actions   datatypes.JSONSlice[rbac.Action] `json:"actions"`
	CreatedAt time.Time                        `json:"createdAt"`
	UpdatedAt time.Time                        `json:"updatedAt"`
}

func (p *RolePermission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// GrantMap builds the in-memory resource -> action-set view of the role's
// current grants used by the authorization decision.
func (r *Role) GrantMap() map[rbac.Resource]map[rbac.Action]bool {
	grants := make(map[rbac.Resource]map[rbac.Action]bool, len(r.Permissions))
	for _, permission := range r.Permissions {
		actions := make(map[rbac.Action]bool, len(permission.Actions))
		for _, action := range permission.Actions {
			actions[action] = true
		}
		grants[permission.Resource] = actions
	}
	return grants
}
