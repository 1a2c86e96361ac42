package handlers

import (
	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/services"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// SharesHandler manages per-user grants on files and folders. Managing
// shares requires Edit on the resource.
type SharesHandler struct {
	Store *store.Store
	Perms *services.PermissionService
}

func NewSharesHandler(s *store.Store, perms *services.PermissionService) *SharesHandler {
	return &SharesHandler{Store: s, Perms: perms}
}

type addShareRequest struct {
	UserID     string `json:"userID"`
	Permission string `json:"permission"`
}

type updateShareRequest struct {
	Permission string `json:"permission"`
}

// --- File shares ---

func (h *SharesHandler) ListFileShares(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	file, err := h.Store.GetFile(c.Context(), fileID)
	if err != nil {
		return storeError(c, err, "file not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, file) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	shares, err := h.Store.ListFileShares(c.Context(), fileID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing shares")
	}
	return utils.Success(c, fiber.StatusOK, shares)
}

func (h *SharesHandler) AddFileShare(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req addShareRequest
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

	file, err := h.Store.GetFile(c.Context(), fileID)
	if err != nil {
		return storeError(c, err, "file not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, file) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}
	if _, err := h.Store.GetUser(c.Context(), userID); err != nil {
		return storeError(c, err, "user not found")
	}

	share := &models.FileShare{
		FileID:     fileID,
		UserID:     userID,
		Permission: permission,
		SharedByID: currentUser.ID,
	}
	if err := h.Store.AddFileShare(c.Context(), share); err != nil {
		return storeError(c, err, "file not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_shared", map[string]interface{}{
		"file_id":    fileID.String(),
		"user_id":    userID.String(),
		"permission": string(permission),
	})

	return utils.Success(c, fiber.StatusCreated, share)
}

func (h *SharesHandler) UpdateFileShare(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateShareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	permission, ok := parsePermission(req.Permission)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission")
	}

	file, err := h.Store.GetFile(c.Context(), fileID)
	if err != nil {
		return storeError(c, err, "file not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, file) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	share, err := h.Store.UpdateFileShare(c.Context(), fileID, userID, permission)
	if err != nil {
		return storeError(c, err, "share not found")
	}
	return utils.Success(c, fiber.StatusOK, share)
}

func (h *SharesHandler) RemoveFileShare(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	file, err := h.Store.GetFile(c.Context(), fileID)
	if err != nil {
		return storeError(c, err, "file not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, file) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	if err := h.Store.RemoveFileShare(c.Context(), fileID, userID); err != nil {
		return storeError(c, err, "share not found")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": true})
}

// --- Folder shares ---

func (h *SharesHandler) ListFolderShares(c *fiber.Ctx) error {
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

	shares, err := h.Store.ListFolderShares(c.Context(), folderID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing shares")
	}
	return utils.Success(c, fiber.StatusOK, shares)
}

func (h *SharesHandler) AddFolderShare(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var req addShareRequest
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

	folder, err := h.Store.GetFolder(c.Context(), folderID)
	if err != nil {
		return storeError(c, err, "folder not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, folder) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}
	if _, err := h.Store.GetUser(c.Context(), userID); err != nil {
		return storeError(c, err, "user not found")
	}

	share := &models.FolderShare{
		FolderID:   folderID,
		UserID:     userID,
		Permission: permission,
		SharedByID: currentUser.ID,
	}
	if err := h.Store.AddFolderShare(c.Context(), share); err != nil {
		return storeError(c, err, "folder not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_shared", map[string]interface{}{
		"folder_id":  folderID.String(),
		"user_id":    userID.String(),
		"permission": string(permission),
	})

	return utils.Success(c, fiber.StatusCreated, share)
}

func (h *SharesHandler) UpdateFolderShare(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateShareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	permission, ok := parsePermission(req.Permission)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission")
	}

	folder, err := h.Store.GetFolder(c.Context(), folderID)
	if err != nil {
		return storeError(c, err, "folder not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, folder) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	share, err := h.Store.UpdateFolderShare(c.Context(), folderID, userID, permission)
	if err != nil {
		return storeError(c, err, "share not found")
	}
	return utils.Success(c, fiber.StatusOK, share)
}

func (h *SharesHandler) RemoveFolderShare(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	folder, err := h.Store.GetFolder(c.Context(), folderID)
	if err != nil {
		return storeError(c, err, "folder not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, folder) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	if err := h.Store.RemoveFolderShare(c.Context(), folderID, userID); err != nil {
		return storeError(c, err, "share not found")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": true})
}
