package models

type UserRole string

const (
	UserRoleUser       UserRole = "User"
	UserRoleAdmin      UserRole = "Admin"
	UserRoleSuperAdmin UserRole = "SuperAdmin"
)

// IsAdmin reports whether the role carries the administrative override
// applied by the permission resolver to group resources.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

type User struct {
	BaseModel
	Name             string            `json:"name" gorm:"type:varchar(100);not null"`
	Email            string            `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash     string            `json:"-" gorm:"type:text;not null"`
	Role             UserRole          `json:"role" gorm:"type:varchar(20);not null;default:'User'"`
	GroupMemberships []GroupMembership `json:"-" gorm:"foreignKey:UserID"`
	Files            []File            `json:"-" gorm:"foreignKey:UploadedByID"`
	Folders          []Folder          `json:"-" gorm:"foreignKey:CreatedByID"`
}
