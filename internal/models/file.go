package models

import "github.com/google/uuid"

type File struct {
	BaseModel
	Name         string     `json:"name" gorm:"type:varchar(255);not null"`
	MimeType     string     `json:"type" gorm:"type:varchar(255);not null"`
	Size         int64      `json:"size" gorm:"not null;default:0"`
	StoragePath  string     `json:"-" gorm:"type:text;not null"`
	ParentID     *uuid.UUID `json:"parentID,omitempty" gorm:"type:uuid;index"`
	GroupID      *uuid.UUID `json:"groupID,omitempty" gorm:"type:uuid;index"`
	UploadedByID uuid.UUID  `json:"uploadedByID" gorm:"type:uuid;not null;index"`
	IsPublic     bool       `json:"isPublic" gorm:"not null;default:false"`
	PublicToken  *string    `json:"-" gorm:"type:varchar(64)"`

	Parent     *Folder `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	UploadedBy User    `json:"uploadedBy,omitempty" gorm:"foreignKey:UploadedByID"`
}

// OwnerID satisfies services.Resource.
func (f *File) OwnerID() uuid.UUID { return f.UploadedByID }

// OwnerGroupID satisfies services.Resource.
func (f *File) OwnerGroupID() *uuid.UUID { return f.GroupID }
