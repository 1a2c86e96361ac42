package handlers

import (
	"fmt"
	"strings"

	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/services"
	"github.com/Aashish788/clouddrive/internal/storage"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type FilesHandler struct {
	Store   *store.Store
	Perms   *services.PermissionService
	Objects storage.ObjectStore
}

func NewFilesHandler(s *store.Store, perms *services.PermissionService, objects storage.ObjectStore) *FilesHandler {
	return &FilesHandler{Store: s, Perms: perms, Objects: objects}
}

// ListGroup returns the files and folders under one parent in a group
// namespace, together with the caller's permission there.
func (h *FilesHandler) ListGroup(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Query("groupId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	parentID, err := parseOptionalUUID(c.Query("parentId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent id")
	}

	access := h.Perms.GroupAccess(c.Context(), currentUser, groupID)
	if access == services.AccessDeny {
		return utils.Error(c, fiber.StatusForbidden, "group access denied")
	}

	files, err := h.Store.ListFilesByParent(c.Context(), parentID, groupID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing files")
	}
	folders, err := h.Store.ListFoldersByParent(c.Context(), parentID, groupID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing folders")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"files":      files,
		"folders":    folders,
		"permission": access.Permission(),
	})
}

// ListPersonal returns the caller's own files and folders under one
// parent in the personal namespace.
func (h *FilesHandler) ListPersonal(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	parentID, err := parseOptionalUUID(c.Query("parentId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent id")
	}

	files, err := h.Store.ListPersonalFilesByParent(c.Context(), parentID, currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing files")
	}
	folders, err := h.Store.ListPersonalFoldersByParent(c.Context(), parentID, currentUser.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing folders")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"files":      files,
		"folders":    folders,
		"permission": services.AccessEdit.Permission(),
	})
}

func (h *FilesHandler) Get(c *fiber.Ctx) error {
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
	if !h.Perms.CanView(c.Context(), currentUser, file) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	return utils.Success(c, fiber.StatusOK, file)
}

// Download streams the file body with its stored content type.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
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
	if !h.Perms.CanView(c.Context(), currentUser, file) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	reader, err := h.Objects.Download(c.Context(), file.StoragePath)
	if err != nil {
		logger.Error("file_download_failed", err, map[string]interface{}{
			"file_id": fileID.String(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed downloading file")
	}

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.SendStream(reader, int(file.Size))
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *FilesHandler) Rename(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	file, err := h.Store.GetFile(c.Context(), fileID)
	if err != nil {
		return storeError(c, err, "file not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, file) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	updated, err := h.Store.RenameFile(c.Context(), fileID, req.Name)
	if err != nil {
		return storeError(c, err, "file not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_renamed", map[string]interface{}{
		"file_id": fileID.String(),
		"name":    req.Name,
	})

	return utils.Success(c, fiber.StatusOK, updated)
}

func (h *FilesHandler) Delete(c *fiber.Ctx) error {
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

	if err := h.Store.DeleteFile(c.Context(), fileID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting file")
	}

	// The record is gone; a failed object delete only leaks storage.
	if err := h.Objects.Delete(c.Context(), file.StoragePath); err != nil {
		logger.Error("file_object_delete_failed", err, map[string]interface{}{
			"file_id":      fileID.String(),
			"storage_path": file.StoragePath,
		})
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_deleted", map[string]interface{}{
		"file_id": fileID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
