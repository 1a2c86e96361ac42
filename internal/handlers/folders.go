package handlers

import (
	"strings"

	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/services"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type FoldersHandler struct {
	Store *store.Store
	Perms *services.PermissionService
}

func NewFoldersHandler(s *store.Store, perms *services.PermissionService) *FoldersHandler {
	return &FoldersHandler{Store: s, Perms: perms}
}

type createFolderRequest struct {
	Name     string `json:"name"`
	GroupID  string `json:"groupID"`
	ParentID string `json:"parentID"`
}

// Create makes a folder in either namespace. A group folder needs Edit
// in the group; a personal folder needs nothing beyond authentication,
// but its parent must be the caller's own.
func (h *FoldersHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	groupID, err := parseOptionalUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent id")
	}

	if groupID != nil {
		if !h.Perms.GroupAccess(c.Context(), currentUser, *groupID).Allows(models.PermissionEdit) {
			return utils.Error(c, fiber.StatusForbidden, "group access denied")
		}
	}
	if parentID != nil {
		parent, err := h.Store.GetFolder(c.Context(), *parentID)
		if err != nil {
			return storeError(c, err, "parent folder not found")
		}
		if !h.Perms.CanEdit(c.Context(), currentUser, parent) {
			return utils.Error(c, fiber.StatusForbidden, "access denied")
		}
	}

	folder := &models.Folder{
		Name:        req.Name,
		ParentID:    parentID,
		GroupID:     groupID,
		CreatedByID: currentUser.ID,
	}
	if err := h.Store.CreateFolder(c.Context(), folder); err != nil {
		return storeError(c, err, "folder not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_created", map[string]interface{}{
		"folder_id": folder.ID.String(),
		"name":      folder.Name,
	})

	return utils.Success(c, fiber.StatusCreated, folder)
}

func (h *FoldersHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	folder, err := h.Store.GetFolder(c.Context(), folderID)
	if err != nil {
		return storeError(c, err, "folder not found")
	}
	if !h.Perms.CanView(c.Context(), currentUser, folder) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	return utils.Success(c, fiber.StatusOK, folder)
}

func (h *FoldersHandler) Rename(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	folder, err := h.Store.GetFolder(c.Context(), folderID)
	if err != nil {
		return storeError(c, err, "folder not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, folder) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	updated, err := h.Store.RenameFolder(c.Context(), folderID, req.Name)
	if err != nil {
		return storeError(c, err, "folder not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_renamed", map[string]interface{}{
		"folder_id": folderID.String(),
		"name":      req.Name,
	})

	return utils.Success(c, fiber.StatusOK, updated)
}

// Delete removes the folder itself. Contents are not cascaded.
func (h *FoldersHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	folder, err := h.Store.GetFolder(c.Context(), folderID)
	if err != nil {
		return storeError(c, err, "folder not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, folder) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	if err := h.Store.DeleteFolder(c.Context(), folderID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting folder")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_deleted", map[string]interface{}{
		"folder_id": folderID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
