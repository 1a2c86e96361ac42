package models

import "github.com/google/uuid"

// Folder is a container within either a personal namespace (GroupID nil)
// or a group namespace. ParentID, when set, must reference a folder with
// the same GroupID; the store enforces that before persistence.
type Folder struct {
	BaseModel
	Name        string     `json:"name" gorm:"type:varchar(255);not null"`
	ParentID    *uuid.UUID `json:"parentID,omitempty" gorm:"type:uuid;index"`
	GroupID     *uuid.UUID `json:"groupID,omitempty" gorm:"type:uuid;index"`
	CreatedByID uuid.UUID  `json:"createdByID" gorm:"type:uuid;not null;index"`

	Parent    *Folder  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children  []Folder `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	CreatedBy User     `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID"`
}

// OwnerID satisfies services.Resource.
func (f *Folder) OwnerID() uuid.UUID { return f.CreatedByID }

// OwnerGroupID satisfies services.Resource.
func (f *Folder) OwnerGroupID() *uuid.UUID { return f.GroupID }
