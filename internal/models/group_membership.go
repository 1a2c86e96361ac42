package models

import "github.com/google/uuid"

type Permission string

const (
	PermissionView Permission = "View"
	PermissionEdit Permission = "Edit"
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// Allows reports whether the held permission satisfies the required one.
// Edit implies View.
func (p Permission) Allows(required Permission) bool {
	if required == PermissionEdit {
		return p == PermissionEdit
	}
	return p == PermissionView || p == PermissionEdit
}

type GroupMembership struct {
	BaseModel
	UserID     uuid.UUID  `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group"`
	GroupID    uuid.UUID  `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group"`
	Permission Permission `json:"permission" gorm:"type:varchar(10);not null;default:'View'"`
	AddedByID  uuid.UUID  `json:"addedByID" gorm:"type:uuid"`
	User       User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Group      Group      `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}
