package handlers

import (
	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type UsersHandler struct {
	Store *store.Store
}

func NewUsersHandler(s *store.Store) *UsersHandler {
	return &UsersHandler{Store: s}
}

// List returns all users. Any authenticated caller may list; the share
// and member pickers need it.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.Store.ListUsers(c.Context())
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}
	return utils.Success(c, fiber.StatusOK, users)
}

type updateRoleRequest struct {
	Role models.UserRole `json:"role"`
}

// UpdateRole changes a user's role. Routed behind SuperAdminOnly.
func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Role {
	case models.UserRoleUser, models.UserRoleAdmin, models.UserRoleSuperAdmin:
	default:
		return utils.Error(c, fiber.StatusBadRequest, "invalid role")
	}

	if userID == currentUser.ID {
		return utils.Error(c, fiber.StatusBadRequest, "cannot change your own role")
	}

	user, err := h.Store.UpdateUserRole(c.Context(), userID, req.Role)
	if err != nil {
		return storeError(c, err, "user not found")
	}

	logger.InfoWithUser(currentUser.ID.String(), "user_role_updated", map[string]interface{}{
		"target_user_id": userID.String(),
		"role":           string(req.Role),
	})

	return utils.Success(c, fiber.StatusOK, user)
}
