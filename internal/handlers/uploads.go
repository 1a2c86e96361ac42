package handlers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/services"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/internal/uploads"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadsHandler receives raw chunk bodies. Chunk metadata rides in
// headers so the body stays opaque bytes:
//
//	X-File-Name     upload file name, URL-encoded
//	X-File-Type     MIME type
//	X-Chunk-Index   zero-based chunk index
//	X-Total-Chunks  total chunk count
//	X-Group-Id      destination group (group route only)
//	X-Parent-Id     destination folder, empty for the namespace root
type UploadsHandler struct {
	Store       *store.Store
	Perms       *services.PermissionService
	Coordinator *uploads.Coordinator
}

func NewUploadsHandler(s *store.Store, perms *services.PermissionService, coordinator *uploads.Coordinator) *UploadsHandler {
	return &UploadsHandler{Store: s, Perms: perms, Coordinator: coordinator}
}

// UploadGroupChunk ingests one chunk destined for a group namespace.
func (h *UploadsHandler) UploadGroupChunk(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Get("X-Group-Id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	if !h.Perms.GroupAccess(c.Context(), currentUser, groupID).Allows(models.PermissionEdit) {
		return utils.Error(c, fiber.StatusForbidden, "group access denied")
	}

	return h.handleChunk(c, currentUser.ID, &groupID)
}

// UploadPersonalChunk ingests one chunk destined for the caller's
// personal namespace.
func (h *UploadsHandler) UploadPersonalChunk(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	return h.handleChunk(c, currentUser.ID, nil)
}

func (h *UploadsHandler) handleChunk(c *fiber.Ctx, userID uuid.UUID, groupID *uuid.UUID) error {
	fileName := decodeFileName(c.Get("X-File-Name"))
	if fileName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "missing file name")
	}

	chunkIndex, err := strconv.Atoi(c.Get("X-Chunk-Index"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid chunk index")
	}
	totalChunks, err := strconv.Atoi(c.Get("X-Total-Chunks"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid total chunks")
	}
	parentID, err := parseOptionalUUID(c.Get("X-Parent-Id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent id")
	}

	mimeType := c.Get("X-File-Type")
	if mimeType == "" {
		mimeType = fiber.MIMEOctetStream
	}

	result, err := h.Coordinator.HandleChunk(c.Context(), uploads.Chunk{
		FileName:    fileName,
		MimeType:    mimeType,
		Index:       chunkIndex,
		TotalChunks: totalChunks,
		Data:        c.Body(),
		UserID:      userID,
		GroupID:     groupID,
		ParentID:    parentID,
	})
	if err != nil {
		return uploadError(c, err)
	}

	if !result.Completed {
		return utils.Success(c, fiber.StatusOK, fiber.Map{
			"message":        "Chunk received",
			"chunkIndex":     result.ChunkIndex,
			"receivedChunks": result.ReceivedChunks,
			"totalChunks":    result.TotalChunks,
		})
	}

	file := &models.File{
		Name:         result.FileName,
		MimeType:     result.MimeType,
		Size:         result.Size,
		StoragePath:  result.ObjectName,
		ParentID:     result.ParentID,
		GroupID:      result.GroupID,
		UploadedByID: result.UserID,
	}
	if err := h.Store.CreateFile(c.Context(), file); err != nil {
		return storeError(c, err, "file not found")
	}

	return utils.Success(c, fiber.StatusCreated, file)
}

func uploadError(c *fiber.Ctx, err error) error {
	var missing *uploads.MissingChunkError
	switch {
	case errors.Is(err, uploads.ErrNotInitialized):
		return utils.Error(c, fiber.StatusBadRequest, "upload not properly initialized")
	case errors.Is(err, uploads.ErrInvalidChunk):
		return utils.Error(c, fiber.StatusBadRequest, "invalid chunk metadata")
	case errors.Is(err, uploads.ErrChunkTooLarge):
		return utils.Error(c, fiber.StatusRequestEntityTooLarge, "chunk exceeds the maximum chunk size")
	case errors.Is(err, uploads.ErrFileTooLarge):
		return utils.Error(c, fiber.StatusRequestEntityTooLarge, "upload exceeds the maximum file size")
	case errors.Is(err, uploads.ErrAssembling):
		return utils.Error(c, fiber.StatusConflict, "upload is already being finalized")
	case errors.As(err, &missing):
		return utils.Error(c, fiber.StatusInternalServerError, missing.Error())
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "failed handling chunk")
	}
}

// decodeFileName undoes the client's URL encoding; a name that is not
// valid percent-encoding is taken literally.
func decodeFileName(value string) string {
	value = strings.TrimSpace(value)
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}
