package handlers

import (
	"errors"
	"strings"

	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// parseOptionalUUID treats an absent value as nil rather than an error,
// for query params and headers that select the root of a namespace.
func parseOptionalUUID(value string) (*uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parsePermission(value string) (models.Permission, bool) {
	permission := models.Permission(strings.TrimSpace(value))
	return permission, permission.Valid()
}

// storeError maps store failures onto the response envelope so every
// handler reports the same statuses for the same conditions.
func storeError(c *fiber.Ctx, err error, notFoundMessage string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.Error(c, fiber.StatusNotFound, notFoundMessage)
	case errors.Is(err, store.ErrParentNotFound):
		return utils.Error(c, fiber.StatusBadRequest, "parent folder not found")
	case errors.Is(err, store.ErrParentGroupMismatch):
		return utils.Error(c, fiber.StatusBadRequest, "parent folder does not belong to the specified group")
	case errors.Is(err, store.ErrShareExists):
		return utils.Error(c, fiber.StatusConflict, "share already exists for this user")
	case errors.Is(err, store.ErrAlreadyMember):
		return utils.Error(c, fiber.StatusConflict, "user is already a member of this group")
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}
}
