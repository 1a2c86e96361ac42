package services

import (
	"context"

	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/google/uuid"
)

// Access is the resolved access level for a user on a resource.
type Access int

const (
	AccessDeny Access = iota
	AccessView
	AccessEdit
)

// Allows reports whether this level satisfies the required permission.
func (a Access) Allows(required models.Permission) bool {
	switch required {
	case models.PermissionView:
		return a >= AccessView
	case models.PermissionEdit:
		return a >= AccessEdit
	default:
		return false
	}
}

// Permission converts the level to its wire form. AccessDeny has no
// wire form and returns the empty string.
func (a Access) Permission() models.Permission {
	switch a {
	case AccessEdit:
		return models.PermissionEdit
	case AccessView:
		return models.PermissionView
	default:
		return ""
	}
}

// Resource is anything placed in a namespace: a file or a folder. A nil
// OwnerGroupID means the resource lives in its owner's personal space.
type Resource interface {
	OwnerID() uuid.UUID
	OwnerGroupID() *uuid.UUID
}

// PermissionService is the single authority for access decisions. Every
// handler asks it instead of re-deriving rules, so the admin override and
// the personal/group split live in exactly one place.
type PermissionService struct {
	store *store.Store
}

func NewPermissionService(s *store.Store) *PermissionService {
	return &PermissionService{store: s}
}

// Resolve computes the caller's access level for a resource. Storage
// errors resolve to AccessDeny; a denied request is always safe, a
// wrongly granted one is not.
//
// The admin override applies to group resources only. Personal
// namespaces stay private to their owner regardless of role.
func (p *PermissionService) Resolve(ctx context.Context, user *models.User, res Resource) Access {
	if user == nil {
		return AccessDeny
	}

	groupID := res.OwnerGroupID()
	if groupID == nil {
		if res.OwnerID() == user.ID {
			return AccessEdit
		}
		return AccessDeny
	}

	if user.Role.IsAdmin() {
		return AccessEdit
	}

	permission, err := p.store.GetPermission(ctx, user.ID, *groupID)
	if err != nil || permission == nil {
		return AccessDeny
	}

	switch *permission {
	case models.PermissionEdit:
		return AccessEdit
	case models.PermissionView:
		return AccessView
	default:
		return AccessDeny
	}
}

// CanView reports whether the user may read the resource.
func (p *PermissionService) CanView(ctx context.Context, user *models.User, res Resource) bool {
	return p.Resolve(ctx, user, res).Allows(models.PermissionView)
}

// CanEdit reports whether the user may modify or delete the resource.
func (p *PermissionService) CanEdit(ctx context.Context, user *models.User, res Resource) bool {
	return p.Resolve(ctx, user, res).Allows(models.PermissionEdit)
}

// GroupAccess resolves the caller's level inside a group without a
// concrete resource, for listing and creating at the group root.
func (p *PermissionService) GroupAccess(ctx context.Context, user *models.User, groupID uuid.UUID) Access {
	if user == nil {
		return AccessDeny
	}
	if user.Role.IsAdmin() {
		return AccessEdit
	}

	permission, err := p.store.GetPermission(ctx, user.ID, groupID)
	if err != nil || permission == nil {
		return AccessDeny
	}

	switch *permission {
	case models.PermissionEdit:
		return AccessEdit
	case models.PermissionView:
		return AccessView
	default:
		return AccessDeny
	}
}
