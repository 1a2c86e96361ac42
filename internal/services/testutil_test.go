package services

import (
	"context"
	"testing"

	"github.com/Aashish788/clouddrive/internal/database"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*store.Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return store.New(db), db
}

func seedUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Name:         "User",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating user: %v", err)
	}
	return user
}

func seedGroupWithMember(t *testing.T, s *store.Store, db *gorm.DB, member *models.User, permission models.Permission) *models.Group {
	t.Helper()

	creator := seedUser(t, db, models.UserRoleAdmin)
	group := &models.Group{Name: "Group", CreatedByID: creator.ID}
	if err := s.CreateGroupWithOwner(context.Background(), group); err != nil {
		t.Fatalf("failed creating group: %v", err)
	}

	if member != nil {
		membership := &models.GroupMembership{
			UserID:     member.ID,
			GroupID:    group.ID,
			Permission: permission,
			AddedByID:  creator.ID,
		}
		if err := s.AddMember(context.Background(), membership); err != nil {
			t.Fatalf("failed adding member: %v", err)
		}
	}
	return group
}

func seedFile(t *testing.T, db *gorm.DB, owner uuid.UUID, groupID *uuid.UUID) *models.File {
	t.Helper()

	file := &models.File{
		Name:         "file.txt",
		MimeType:     "text/plain",
		Size:         1,
		StoragePath:  "objects/" + uuid.NewString(),
		GroupID:      groupID,
		UploadedByID: owner,
	}
	if err := db.Create(file).Error; err != nil {
		t.Fatalf("failed creating file: %v", err)
	}
	return file
}
