package handlers

import (
	"fmt"

	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/services"
	"github.com/Aashish788/clouddrive/internal/storage"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// PublicHandler toggles public links and serves the unauthenticated
// routes they point at.
type PublicHandler struct {
	Store   *store.Store
	Perms   *services.PermissionService
	Links   *services.PublicLinkService
	Objects storage.ObjectStore
}

func NewPublicHandler(s *store.Store, perms *services.PermissionService, links *services.PublicLinkService, objects storage.ObjectStore) *PublicHandler {
	return &PublicHandler{Store: s, Perms: perms, Links: links, Objects: objects}
}

type togglePublicRequest struct {
	IsPublic bool `json:"isPublic"`
}

// ToggleFilePublic enables or revokes a file's public link.
func (h *PublicHandler) ToggleFilePublic(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req togglePublicRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	file, err := h.Store.GetFile(c.Context(), fileID)
	if err != nil {
		return storeError(c, err, "file not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, file) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	if !req.IsPublic {
		updated, err := h.Links.DisableFileLink(c.Context(), fileID)
		if err != nil {
			return storeError(c, err, "file not found")
		}
		logger.InfoWithUser(currentUser.ID.String(), "file_link_disabled", map[string]interface{}{
			"file_id": fileID.String(),
		})
		return utils.Success(c, fiber.StatusOK, fiber.Map{"file": updated})
	}

	updated, link, err := h.Links.EnableFileLink(c.Context(), file)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed enabling public link")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_link_enabled", map[string]interface{}{
		"file_id": fileID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"file": updated,
		"link": link,
	})
}

// ToggleFolderPublic enables or revokes a folder's public link. Folder
// links are not persisted; they last until revoked or the server stops.
func (h *PublicHandler) ToggleFolderPublic(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var req togglePublicRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	folder, err := h.Store.GetFolder(c.Context(), folderID)
	if err != nil {
		return storeError(c, err, "folder not found")
	}
	if !h.Perms.CanEdit(c.Context(), currentUser, folder) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	if !req.IsPublic {
		h.Links.DisableFolderLink(folderID)
		logger.InfoWithUser(currentUser.ID.String(), "folder_link_disabled", map[string]interface{}{
			"folder_id": folderID.String(),
		})
		return utils.Success(c, fiber.StatusOK, fiber.Map{"folder": folder})
	}

	link, err := h.Links.EnableFolderLink(folderID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed enabling public link")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_link_enabled", map[string]interface{}{
		"folder_id": folderID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"folder": folder,
		"link":   link,
	})
}

// DownloadPublicFile serves a file through its public link. No
// authentication; the token is the credential.
func (h *PublicHandler) DownloadPublicFile(c *fiber.Ctx) error {
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusNotFound, "public link not found")
	}

	file, err := h.Links.ResolveFileLink(c.Context(), fileID, c.Params("token"))
	if err != nil {
		return utils.Error(c, fiber.StatusNotFound, "public link not found")
	}

	reader, err := h.Objects.Download(c.Context(), file.StoragePath)
	if err != nil {
		logger.Error("public_download_failed", err, map[string]interface{}{
			"file_id": fileID.String(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed downloading file")
	}

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.SendStream(reader, int(file.Size))
}

// ListPublicFolder lists the direct contents of a publicly linked
// folder.
func (h *PublicHandler) ListPublicFolder(c *fiber.Ctx) error {
	folderID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusNotFound, "public link not found")
	}

	if !h.Links.ResolveFolderLink(folderID, c.Params("token")) {
		return utils.Error(c, fiber.StatusNotFound, "public link not found")
	}

	folder, err := h.Store.GetFolder(c.Context(), folderID)
	if err != nil {
		return utils.Error(c, fiber.StatusNotFound, "public link not found")
	}

	var (
		files   []models.File
		folders []models.Folder
	)
	if folder.GroupID != nil {
		files, err = h.Store.ListFilesByParent(c.Context(), &folderID, *folder.GroupID)
		if err == nil {
			folders, err = h.Store.ListFoldersByParent(c.Context(), &folderID, *folder.GroupID)
		}
	} else {
		files, err = h.Store.ListPersonalFilesByParent(c.Context(), &folderID, folder.CreatedByID)
		if err == nil {
			folders, err = h.Store.ListPersonalFoldersByParent(c.Context(), &folderID, folder.CreatedByID)
		}
	}
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing folder")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"folder":  folder,
		"files":   files,
		"folders": folders,
	})
}
