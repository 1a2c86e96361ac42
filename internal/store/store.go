package store

import (
	"context"
	"errors"

	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrParentGroupMismatch is returned when a file or folder would be
	// created under a parent folder belonging to a different group (or to
	// a group when the item is personal, and vice versa). Enforced here,
	// before persistence, because group_id is nullable and cannot carry a
	// relational FK for this rule.
	ErrParentGroupMismatch = errors.New("parent folder does not belong to the specified group")

	ErrParentNotFound = errors.New("parent folder not found")
	ErrShareExists    = errors.New("share already exists for this user")
	ErrAlreadyMember  = errors.New("user is already a member of this group")
)

// Store is the persistence boundary for every entity the service owns.
// All multi-step writes run inside a single transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Users ---

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) UpdateUserRole(ctx context.Context, id uuid.UUID, role models.UserRole) (*models.User, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("name ASC").Find(&users).Error
	return users, err
}

// --- Groups ---

// CreateGroupWithOwner creates the group and the creator's Edit membership
// atomically, so a crash between the two writes cannot leave a group with
// zero members.
func (s *Store) CreateGroupWithOwner(ctx context.Context, group *models.Group) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		membership := models.GroupMembership{
			UserID:     group.CreatedByID,
			GroupID:    group.ID,
			Permission: models.PermissionEdit,
			AddedByID:  group.CreatedByID,
		}
		return tx.Create(&membership).Error
	})
}

func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *Store) ListAllGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&groups).Error
	return groups, err
}

func (s *Store) RenameGroup(ctx context.Context, id uuid.UUID, name string) (*models.Group, error) {
	result := s.db.WithContext(ctx).Model(&models.Group{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetGroup(ctx, id)
}

func (s *Store) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, "id = ?", id).Error
	})
}

// --- Group memberships ---

func (s *Store) AddMember(ctx context.Context, membership *models.GroupMembership) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GroupMembership{}).
			Where("user_id = ? AND group_id = ?", membership.UserID, membership.GroupID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyMember
		}
		return tx.Create(membership).Error
	})
}

func (s *Store) RemoveMember(ctx context.Context, userID, groupID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&models.GroupMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) UpdateMemberPermission(ctx context.Context, userID, groupID uuid.UUID, permission models.Permission) (*models.GroupMembership, error) {
	result := s.db.WithContext(ctx).Model(&models.GroupMembership{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Update("permission", permission)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var membership models.GroupMembership
	if err := s.db.WithContext(ctx).
		First(&membership, "user_id = ? AND group_id = ?", userID, groupID).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (s *Store) ListGroupMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMembership, error) {
	var memberships []models.GroupMembership
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

func (s *Store) ListUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.GroupMembership, error) {
	var memberships []models.GroupMembership
	err := s.db.WithContext(ctx).
		Preload("Group").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&memberships).Error
	return memberships, err
}

// GetPermission returns the caller's membership permission for a group,
// or nil when no membership exists. It never errors on plain absence.
func (s *Store) GetPermission(ctx context.Context, userID, groupID uuid.UUID) (*models.Permission, error) {
	var membership models.GroupMembership
	err := s.db.WithContext(ctx).
		First(&membership, "user_id = ? AND group_id = ?", userID, groupID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &membership.Permission, nil
}

// --- Folders ---

func (s *Store) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if folder.ParentID != nil {
		if err := s.checkParentGroup(ctx, *folder.ParentID, folder.GroupID); err != nil {
			return err
		}
	}
	return s.db.WithContext(ctx).Create(folder).Error
}

func (s *Store) GetFolder(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.db.WithContext(ctx).First(&folder, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *Store) ListFoldersByParent(ctx context.Context, parentID *uuid.UUID, groupID uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	q := s.db.WithContext(ctx).Where("group_id = ?", groupID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	err := q.Order("name ASC").Find(&folders).Error
	return folders, err
}

// ListPersonalFoldersByParent is the personal-namespace counterpart of
// ListFoldersByParent: scoped to the owning user, group_id IS NULL.
func (s *Store) ListPersonalFoldersByParent(ctx context.Context, parentID *uuid.UUID, userID uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	q := s.db.WithContext(ctx).Where("group_id IS NULL AND created_by_id = ?", userID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	err := q.Order("name ASC").Find(&folders).Error
	return folders, err
}

func (s *Store) RenameFolder(ctx context.Context, id uuid.UUID, name string) (*models.Folder, error) {
	result := s.db.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetFolder(ctx, id)
}

// DeleteFolder removes the folder row and its shares. Children and
// contained files are NOT cascaded; orphaned subtrees become unreachable
// through listing. Kept as-is pending a recursive-delete design.
func (s *Store) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("folder_id = ?", id).Delete(&models.FolderShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Folder{}, "id = ?", id).Error
	})
}

// --- Files ---

func (s *Store) CreateFile(ctx context.Context, file *models.File) error {
	if file.ParentID != nil {
		if err := s.checkParentGroup(ctx, *file.ParentID, file.GroupID); err != nil {
			return err
		}
	}
	return s.db.WithContext(ctx).Create(file).Error
}

func (s *Store) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var file models.File
	if err := s.db.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *Store) ListFilesByParent(ctx context.Context, parentID *uuid.UUID, groupID uuid.UUID) ([]models.File, error) {
	var files []models.File
	q := s.db.WithContext(ctx).Where("group_id = ?", groupID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	err := q.Order("name ASC").Find(&files).Error
	return files, err
}

// ListPersonalFilesByParent lists the user's own files in the personal
// namespace (group_id IS NULL).
func (s *Store) ListPersonalFilesByParent(ctx context.Context, parentID *uuid.UUID, userID uuid.UUID) ([]models.File, error) {
	var files []models.File
	q := s.db.WithContext(ctx).Where("group_id IS NULL AND uploaded_by_id = ?", userID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	err := q.Order("name ASC").Find(&files).Error
	return files, err
}

func (s *Store) RenameFile(ctx context.Context, id uuid.UUID, name string) (*models.File, error) {
	result := s.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetFile(ctx, id)
}

func (s *Store) DeleteFile(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&models.FileShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.File{}, "id = ?", id).Error
	})
}

// SetFilePublicAccess persists the public flag and token so links survive
// restarts. A nil token clears public access.
func (s *Store) SetFilePublicAccess(ctx context.Context, id uuid.UUID, isPublic bool, token *string) (*models.File, error) {
	updates := map[string]interface{}{
		"is_public":    isPublic,
		"public_token": token,
	}
	result := s.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetFile(ctx, id)
}

func (s *Store) ListPublicFiles(ctx context.Context) ([]models.File, error) {
	var files []models.File
	err := s.db.WithContext(ctx).
		Where("is_public = ? AND public_token IS NOT NULL", true).
		Find(&files).Error
	return files, err
}

// --- File shares ---

func (s *Store) ListFileShares(ctx context.Context, fileID uuid.UUID) ([]models.FileShare, error) {
	var shares []models.FileShare
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("file_id = ?", fileID).
		Order("created_at ASC").
		Find(&shares).Error
	return shares, err
}

func (s *Store) AddFileShare(ctx context.Context, share *models.FileShare) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.FileShare{}).
			Where("file_id = ? AND user_id = ?", share.FileID, share.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrShareExists
		}
		return tx.Create(share).Error
	})
}

func (s *Store) UpdateFileShare(ctx context.Context, fileID, userID uuid.UUID, permission models.Permission) (*models.FileShare, error) {
	result := s.db.WithContext(ctx).Model(&models.FileShare{}).
		Where("file_id = ? AND user_id = ?", fileID, userID).
		Update("permission", permission)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var share models.FileShare
	if err := s.db.WithContext(ctx).
		First(&share, "file_id = ? AND user_id = ?", fileID, userID).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *Store) RemoveFileShare(ctx context.Context, fileID, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("file_id = ? AND user_id = ?", fileID, userID).
		Delete(&models.FileShare{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// --- Folder shares ---

func (s *Store) ListFolderShares(ctx context.Context, folderID uuid.UUID) ([]models.FolderShare, error) {
	var shares []models.FolderShare
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("folder_id = ?", folderID).
		Order("created_at ASC").
		Find(&shares).Error
	return shares, err
}

func (s *Store) AddFolderShare(ctx context.Context, share *models.FolderShare) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.FolderShare{}).
			Where("folder_id = ? AND user_id = ?", share.FolderID, share.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrShareExists
		}
		return tx.Create(share).Error
	})
}

func (s *Store) UpdateFolderShare(ctx context.Context, folderID, userID uuid.UUID, permission models.Permission) (*models.FolderShare, error) {
	result := s.db.WithContext(ctx).Model(&models.FolderShare{}).
		Where("folder_id = ? AND user_id = ?", folderID, userID).
		Update("permission", permission)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var share models.FolderShare
	if err := s.db.WithContext(ctx).
		First(&share, "folder_id = ? AND user_id = ?", folderID, userID).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *Store) RemoveFolderShare(ctx context.Context, folderID, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("folder_id = ? AND user_id = ?", folderID, userID).
		Delete(&models.FolderShare{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// checkParentGroup rejects a create whose parent folder lives in a
// different namespace than the item being created. Both nil group IDs
// (personal) count as matching.
func (s *Store) checkParentGroup(ctx context.Context, parentID uuid.UUID, groupID *uuid.UUID) error {
	parent, err := s.GetFolder(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParentNotFound
		}
		return err
	}
	if !sameGroup(parent.GroupID, groupID) {
		return ErrParentGroupMismatch
	}
	return nil
}

func sameGroup(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
