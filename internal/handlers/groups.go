package handlers

import (
	"strings"

	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type GroupsHandler struct {
	Store *store.Store
}

func NewGroupsHandler(s *store.Store) *GroupsHandler {
	return &GroupsHandler{Store: s}
}

type createGroupRequest struct {
	Name string `json:"name"`
}

// Create makes a new group and adds the creator as its first Edit
// member. Routed behind AdminOnly.
func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	group := &models.Group{
		Name:        req.Name,
		CreatedByID: currentUser.ID,
	}
	if err := h.Store.CreateGroupWithOwner(c.Context(), group); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating group")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"group_name": group.Name,
	})

	return utils.Success(c, fiber.StatusCreated, group)
}

// List returns the caller's groups with their permission in each.
// Admins see every group with implicit Edit.
func (h *GroupsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if currentUser.Role.IsAdmin() {
		groups, err := h.Store.ListAllGroups(c.Context())
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed listing groups")
		}
		entries := make([]fiber.Map, 0, len(groups))
		for i := range groups {
			entries = append(entries, fiber.Map{
				"group":      groups[i],
				"permission": models.PermissionEdit,
			})
		}
		return utils.Success(c, fiber.StatusOK, entries)
	}

	memberships, err := h.Store.ListUserMemberships(c.Context(), currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing groups")
	}

	entries := make([]fiber.Map, 0, len(memberships))
	for i := range memberships {
		entries = append(entries, fiber.Map{
			"group":      memberships[i].Group,
			"permission": memberships[i].Permission,
		})
	}
	return utils.Success(c, fiber.StatusOK, entries)
}

// Get returns one group with its member list. Requires membership or an
// admin role.
func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if !currentUser.Role.IsAdmin() {
		permission, err := h.Store.GetPermission(c.Context(), currentUser.ID, groupID)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed validating membership")
		}
		if permission == nil {
			return utils.Error(c, fiber.StatusForbidden, "group access denied")
		}
	}

	group, err := h.Store.GetGroup(c.Context(), groupID)
	if err != nil {
		return storeError(c, err, "group not found")
	}

	members, err := h.Store.ListGroupMembers(c.Context(), groupID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing members")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"group":   group,
		"members": members,
	})
}

type renameGroupRequest struct {
	Name string `json:"name"`
}

func (h *GroupsHandler) Rename(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var req renameGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	group, err := h.Store.RenameGroup(c.Context(), groupID, req.Name)
	if err != nil {
		return storeError(c, err, "group not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_renamed", map[string]interface{}{
		"group_id": groupID.String(),
		"name":     req.Name,
	})

	return utils.Success(c, fiber.StatusOK, group)
}

func (h *GroupsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if _, err := h.Store.GetGroup(c.Context(), groupID); err != nil {
		return storeError(c, err, "group not found")
	}

	if err := h.Store.DeleteGroup(c.Context(), groupID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting group")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_deleted", map[string]interface{}{
		"group_id": groupID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type addMemberRequest struct {
	UserID     string `json:"userID"`
	Permission string `json:"permission"`
}

func (h *GroupsHandler) AddMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	userID, err := parseUUID(req.UserID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}
	permission, ok := parsePermission(req.Permission)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission")
	}

	if _, err := h.Store.GetGroup(c.Context(), groupID); err != nil {
		return storeError(c, err, "group not found")
	}
	if _, err := h.Store.GetUser(c.Context(), userID); err != nil {
		return storeError(c, err, "user not found")
	}

	membership := &models.GroupMembership{
		UserID:     userID,
		GroupID:    groupID,
		Permission: permission,
		AddedByID:  currentUser.ID,
	}
	if err := h.Store.AddMember(c.Context(), membership); err != nil {
		return storeError(c, err, "group not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_member_added", map[string]interface{}{
		"group_id":   groupID.String(),
		"user_id":    userID.String(),
		"permission": string(permission),
	})

	return utils.Success(c, fiber.StatusCreated, membership)
}

type updateMemberRequest struct {
	Permission string `json:"permission"`
}

func (h *GroupsHandler) UpdateMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	permission, ok := parsePermission(req.Permission)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission")
	}

	membership, err := h.Store.UpdateMemberPermission(c.Context(), userID, groupID, permission)
	if err != nil {
		return storeError(c, err, "membership not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_member_updated", map[string]interface{}{
		"group_id":   groupID.String(),
		"user_id":    userID.String(),
		"permission": string(permission),
	})

	return utils.Success(c, fiber.StatusOK, membership)
}

func (h *GroupsHandler) RemoveMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.Store.RemoveMember(c.Context(), userID, groupID); err != nil {
		return storeError(c, err, "membership not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_member_removed", map[string]interface{}{
		"group_id": groupID.String(),
		"user_id":  userID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": true})
}
