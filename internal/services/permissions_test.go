package services

import (
	"context"
	"testing"

	"github.com/Aashish788/clouddrive/internal/models"
)

func TestResolvePersonalResources(t *testing.T) {
	s, db := newTestStore(t)
	perms := NewPermissionService(s)

	owner := seedUser(t, db, models.UserRoleUser)
	stranger := seedUser(t, db, models.UserRoleUser)
	file := seedFile(t, db, owner.ID, nil)

	if got := perms.Resolve(context.Background(), owner, file); got != AccessEdit {
		t.Fatalf("owner should have Edit on their personal file, got %v", got)
	}
	if got := perms.Resolve(context.Background(), stranger, file); got != AccessDeny {
		t.Fatalf("stranger should be denied on a personal file, got %v", got)
	}
	if got := perms.Resolve(context.Background(), nil, file); got != AccessDeny {
		t.Fatalf("nil user should be denied, got %v", got)
	}
}

func TestResolveGroupResources(t *testing.T) {
	s, db := newTestStore(t)
	perms := NewPermissionService(s)

	viewer := seedUser(t, db, models.UserRoleUser)
	editor := seedUser(t, db, models.UserRoleUser)
	outsider := seedUser(t, db, models.UserRoleUser)
	uploader := seedUser(t, db, models.UserRoleUser)

	group := seedGroupWithMember(t, s, db, viewer, models.PermissionView)
	membership := &models.GroupMembership{
		UserID:     editor.ID,
		GroupID:    group.ID,
		Permission: models.PermissionEdit,
		AddedByID:  group.CreatedByID,
	}
	if err := s.AddMember(context.Background(), membership); err != nil {
		t.Fatalf("failed adding editor: %v", err)
	}

	file := seedFile(t, db, uploader.ID, &group.ID)

	cases := []struct {
		name     string
		user     *models.User
		expected Access
	}{
		{"view member gets View", viewer, AccessView},
		{"edit member gets Edit", editor, AccessEdit},
		{"non-member is denied", outsider, AccessDeny},
		{"uploader without membership is denied", uploader, AccessDeny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := perms.Resolve(context.Background(), tc.user, file); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestAdminOverride(t *testing.T) {
	s, db := newTestStore(t)
	perms := NewPermissionService(s)

	admin := seedUser(t, db, models.UserRoleAdmin)
	superAdmin := seedUser(t, db, models.UserRoleSuperAdmin)
	owner := seedUser(t, db, models.UserRoleUser)

	group := seedGroupWithMember(t, s, db, nil, "")
	groupFile := seedFile(t, db, owner.ID, &group.ID)
	personalFile := seedFile(t, db, owner.ID, nil)

	for _, user := range []*models.User{admin, superAdmin} {
		if got := perms.Resolve(context.Background(), user, groupFile); got != AccessEdit {
			t.Fatalf("%s should have Edit on any group file, got %v", user.Role, got)
		}
		// The override stops at group resources. Another user's
		// personal namespace stays closed to admins too.
		if got := perms.Resolve(context.Background(), user, personalFile); got != AccessDeny {
			t.Fatalf("%s should be denied on a stranger's personal file, got %v", user.Role, got)
		}
	}

	adminOwnFile := seedFile(t, db, admin.ID, nil)
	if got := perms.Resolve(context.Background(), admin, adminOwnFile); got != AccessEdit {
		t.Fatalf("admin should keep Edit on their own personal file, got %v", got)
	}
}

func TestAccessAllows(t *testing.T) {
	if !AccessEdit.Allows(models.PermissionView) {
		t.Fatal("Edit must imply View")
	}
	if AccessView.Allows(models.PermissionEdit) {
		t.Fatal("View must not imply Edit")
	}
	if AccessDeny.Allows(models.PermissionView) {
		t.Fatal("Deny must not allow anything")
	}
	if AccessEdit.Allows("Owner") {
		t.Fatal("unknown permissions must not be allowed")
	}
}
