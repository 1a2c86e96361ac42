package models

import "github.com/google/uuid"

// FileShare is an explicit per-user grant on a single file, layered on
// top of the ownership/group tiers. At most one row may exist per
// (file, user) pair.
type FileShare struct {
	BaseModel
	FileID     uuid.UUID  `json:"fileID" gorm:"type:uuid;not null;index;uniqueIndex:idx_file_share_user"`
	UserID     uuid.UUID  `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_file_share_user"`
	Permission Permission `json:"permission" gorm:"type:varchar(10);not null;default:'View'"`
	SharedByID uuid.UUID  `json:"sharedByID" gorm:"type:uuid;not null"`
	File       File       `json:"file,omitempty" gorm:"foreignKey:FileID"`
	User       User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	SharedBy   User       `json:"sharedBy,omitempty" gorm:"foreignKey:SharedByID"`
}

type FolderShare struct {
	BaseModel
	FolderID   uuid.UUID  `json:"folderID" gorm:"type:uuid;not null;index;uniqueIndex:idx_folder_share_user"`
	UserID     uuid.UUID  `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_folder_share_user"`
	Permission Permission `json:"permission" gorm:"type:varchar(10);not null;default:'View'"`
	SharedByID uuid.UUID  `json:"sharedByID" gorm:"type:uuid;not null"`
	Folder     Folder     `json:"folder,omitempty" gorm:"foreignKey:FolderID"`
	User       User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	SharedBy   User       `json:"sharedBy,omitempty" gorm:"foreignKey:SharedByID"`
}
