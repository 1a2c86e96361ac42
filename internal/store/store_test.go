package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Aashish788/clouddrive/internal/database"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
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

	return New(db), db
}

func mustCreateUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()

	user := &models.User{Name: "User", Email: email, PasswordHash: "x", Role: models.UserRoleUser}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed creating user: %v", err)
	}
	return user
}

func mustCreateGroup(t *testing.T, s *Store, creator *models.User) *models.Group {
	t.Helper()

	group := &models.Group{Name: "Group", CreatedByID: creator.ID}
	if err := s.CreateGroupWithOwner(context.Background(), group); err != nil {
		t.Fatalf("failed creating group: %v", err)
	}
	return group
}

func TestCreateGroupWithOwner(t *testing.T) {
	s, _ := newTestStore(t)
	creator := mustCreateUser(t, s, "creator@example.com")
	group := mustCreateGroup(t, s, creator)

	permission, err := s.GetPermission(context.Background(), creator.ID, group.ID)
	if err != nil {
		t.Fatalf("get permission failed: %v", err)
	}
	if permission == nil || *permission != models.PermissionEdit {
		t.Fatalf("expected creator Edit membership, got %v", permission)
	}
}

func TestMembershipDuplicates(t *testing.T) {
	s, _ := newTestStore(t)
	creator := mustCreateUser(t, s, "creator@example.com")
	member := mustCreateUser(t, s, "member@example.com")
	group := mustCreateGroup(t, s, creator)

	membership := &models.GroupMembership{
		UserID:     member.ID,
		GroupID:    group.ID,
		Permission: models.PermissionView,
		AddedByID:  creator.ID,
	}
	if err := s.AddMember(context.Background(), membership); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	duplicate := &models.GroupMembership{
		UserID:     member.ID,
		GroupID:    group.ID,
		Permission: models.PermissionEdit,
		AddedByID:  creator.ID,
	}
	if err := s.AddMember(context.Background(), duplicate); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}

	// The original grant is untouched.
	permission, err := s.GetPermission(context.Background(), member.ID, group.ID)
	if err != nil || permission == nil || *permission != models.PermissionView {
		t.Fatalf("expected View preserved, got %v err=%v", permission, err)
	}
}

func TestGetPermissionAbsence(t *testing.T) {
	s, _ := newTestStore(t)
	user := mustCreateUser(t, s, "user@example.com")

	permission, err := s.GetPermission(context.Background(), user.ID, uuid.New())
	if err != nil {
		t.Fatalf("expected no error for plain absence, got %v", err)
	}
	if permission != nil {
		t.Fatalf("expected nil permission, got %v", permission)
	}
}

func TestParentGroupConsistency(t *testing.T) {
	s, _ := newTestStore(t)
	creator := mustCreateUser(t, s, "creator@example.com")
	groupA := mustCreateGroup(t, s, creator)
	groupB := mustCreateGroup(t, s, creator)

	parent := &models.Folder{Name: "Parent", GroupID: &groupA.ID, CreatedByID: creator.ID}
	if err := s.CreateFolder(context.Background(), parent); err != nil {
		t.Fatalf("failed creating parent: %v", err)
	}

	t.Run("folder under a parent in another group", func(t *testing.T) {
		folder := &models.Folder{Name: "Nested", ParentID: &parent.ID, GroupID: &groupB.ID, CreatedByID: creator.ID}
		if err := s.CreateFolder(context.Background(), folder); !errors.Is(err, ErrParentGroupMismatch) {
			t.Fatalf("expected ErrParentGroupMismatch, got %v", err)
		}
	})

	t.Run("personal folder under a group parent", func(t *testing.T) {
		folder := &models.Folder{Name: "Personal", ParentID: &parent.ID, CreatedByID: creator.ID}
		if err := s.CreateFolder(context.Background(), folder); !errors.Is(err, ErrParentGroupMismatch) {
			t.Fatalf("expected ErrParentGroupMismatch, got %v", err)
		}
	})

	t.Run("file under a parent in another group", func(t *testing.T) {
		file := &models.File{
			Name: "f.txt", MimeType: "text/plain", StoragePath: "objects/x",
			ParentID: &parent.ID, GroupID: &groupB.ID, UploadedByID: creator.ID,
		}
		if err := s.CreateFile(context.Background(), file); !errors.Is(err, ErrParentGroupMismatch) {
			t.Fatalf("expected ErrParentGroupMismatch, got %v", err)
		}
	})

	t.Run("missing parent", func(t *testing.T) {
		missing := uuid.New()
		folder := &models.Folder{Name: "Orphan", ParentID: &missing, GroupID: &groupA.ID, CreatedByID: creator.ID}
		if err := s.CreateFolder(context.Background(), folder); !errors.Is(err, ErrParentNotFound) {
			t.Fatalf("expected ErrParentNotFound, got %v", err)
		}
	})

	t.Run("matching group succeeds", func(t *testing.T) {
		folder := &models.Folder{Name: "Sibling", ParentID: &parent.ID, GroupID: &groupA.ID, CreatedByID: creator.ID}
		if err := s.CreateFolder(context.Background(), folder); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})
}

func TestNamespaceListingIsolation(t *testing.T) {
	s, _ := newTestStore(t)
	creator := mustCreateUser(t, s, "creator@example.com")
	other := mustCreateUser(t, s, "other@example.com")
	group := mustCreateGroup(t, s, creator)

	groupFile := &models.File{
		Name: "group.txt", MimeType: "text/plain", StoragePath: "objects/a",
		GroupID: &group.ID, UploadedByID: creator.ID,
	}
	personalFile := &models.File{
		Name: "mine.txt", MimeType: "text/plain", StoragePath: "objects/b",
		UploadedByID: creator.ID,
	}
	for _, f := range []*models.File{groupFile, personalFile} {
		if err := s.CreateFile(context.Background(), f); err != nil {
			t.Fatalf("failed creating file: %v", err)
		}
	}

	groupFiles, err := s.ListFilesByParent(context.Background(), nil, group.ID)
	if err != nil || len(groupFiles) != 1 || groupFiles[0].Name != "group.txt" {
		t.Fatalf("expected only the group file, got %v err=%v", groupFiles, err)
	}

	personalFiles, err := s.ListPersonalFilesByParent(context.Background(), nil, creator.ID)
	if err != nil || len(personalFiles) != 1 || personalFiles[0].Name != "mine.txt" {
		t.Fatalf("expected only the personal file, got %v err=%v", personalFiles, err)
	}

	otherFiles, err := s.ListPersonalFilesByParent(context.Background(), nil, other.ID)
	if err != nil || len(otherFiles) != 0 {
		t.Fatalf("expected an empty personal namespace, got %v err=%v", otherFiles, err)
	}
}

func TestFileShareDuplicates(t *testing.T) {
	s, _ := newTestStore(t)
	owner := mustCreateUser(t, s, "owner@example.com")
	target := mustCreateUser(t, s, "target@example.com")

	file := &models.File{
		Name: "f.txt", MimeType: "text/plain", StoragePath: "objects/x",
		UploadedByID: owner.ID,
	}
	if err := s.CreateFile(context.Background(), file); err != nil {
		t.Fatalf("failed creating file: %v", err)
	}

	share := &models.FileShare{FileID: file.ID, UserID: target.ID, Permission: models.PermissionView, SharedByID: owner.ID}
	if err := s.AddFileShare(context.Background(), share); err != nil {
		t.Fatalf("first share failed: %v", err)
	}

	duplicate := &models.FileShare{FileID: file.ID, UserID: target.ID, Permission: models.PermissionEdit, SharedByID: owner.ID}
	if err := s.AddFileShare(context.Background(), duplicate); !errors.Is(err, ErrShareExists) {
		t.Fatalf("expected ErrShareExists, got %v", err)
	}
}

func TestSetFilePublicAccess(t *testing.T) {
	s, _ := newTestStore(t)
	owner := mustCreateUser(t, s, "owner@example.com")

	file := &models.File{
		Name: "f.txt", MimeType: "text/plain", StoragePath: "objects/x",
		UploadedByID: owner.ID,
	}
	if err := s.CreateFile(context.Background(), file); err != nil {
		t.Fatalf("failed creating file: %v", err)
	}

	token := "abcdef0123456789abcdef0123456789"
	updated, err := s.SetFilePublicAccess(context.Background(), file.ID, true, &token)
	if err != nil || !updated.IsPublic || updated.PublicToken == nil || *updated.PublicToken != token {
		t.Fatalf("expected public state persisted, got %+v err=%v", updated, err)
	}

	publicFiles, err := s.ListPublicFiles(context.Background())
	if err != nil || len(publicFiles) != 1 {
		t.Fatalf("expected 1 public file, got %v err=%v", publicFiles, err)
	}

	cleared, err := s.SetFilePublicAccess(context.Background(), file.ID, false, nil)
	if err != nil || cleared.IsPublic || cleared.PublicToken != nil {
		t.Fatalf("expected public state cleared, got %+v err=%v", cleared, err)
	}

	if _, err := s.SetFilePublicAccess(context.Background(), uuid.New(), true, &token); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for a missing file, got %v", err)
	}
}
