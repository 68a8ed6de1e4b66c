package user

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/handlers/professor"
	"github.com/usched/usched-api/services/identity"
	"github.com/usched/usched-api/utils/response"
)

// UserHandler handles account management requests (admin only)
type UserHandler struct {
	identity *identity.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(ids *identity.Service) *UserHandler {
	return &UserHandler{identity: ids}
}

func userIDParam(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("userId")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	accounts, err := h.identity.ListAccounts(c.UserContext())
	if err != nil {
		slog.Error("failed to list accounts", "error", err)
		return response.InternalServerError(c, "Failed to fetch users")
	}
	return response.Success(c, accounts)
}

// CreateAdmin handles POST /api/users
func (h *UserHandler) CreateAdmin(c *fiber.Ctx) error {
	var req identity.AdminInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	admin, user, err := h.identity.CreateAdmin(c.UserContext(), req)
	if err != nil {
		return professor.IdentityError(c, err, "create admin")
	}
	return response.Created(c, "Admin created successfully.", fiber.Map{
		"admin": admin,
		"user":  user,
	})
}

// CreateDeanChair handles POST /api/users/deanchair
func (h *UserHandler) CreateDeanChair(c *fiber.Ctx) error {
	var req identity.ProfessorInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	out, err := h.identity.CreateDeanChair(c.UserContext(), req)
	if err != nil {
		return professor.IdentityError(c, err, "create dean/chair")
	}
	return response.Created(c, "Dean/Chair created successfully.", out)
}

// UpdateAdmin handles PUT /api/users/admin/:userId
func (h *UserHandler) UpdateAdmin(c *fiber.Ctx) error {
	userID, ok := userIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req identity.AdminUpdate
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.identity.UpdateAdmin(c.UserContext(), userID, req); err != nil {
		return professor.IdentityError(c, err, "update admin")
	}
	return response.SuccessWithMessage(c, "Admin updated successfully.", nil)
}

// UpdateDeanChair handles PUT /api/users/deanchair/:userId
func (h *UserHandler) UpdateDeanChair(c *fiber.Ctx) error {
	userID, ok := userIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req identity.ProfessorInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	out, err := h.identity.UpdateDeanChair(c.UserContext(), userID, req)
	if err != nil {
		return professor.IdentityError(c, err, "update dean/chair")
	}
	return response.SuccessWithMessage(c, "Dean/Chair updated successfully.", out)
}

// UpdateProfessor handles PUT /api/users/professor/:userId
func (h *UserHandler) UpdateProfessor(c *fiber.Ctx) error {
	userID, ok := userIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req identity.ProfessorInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	out, err := h.identity.UpdateProfessorAccount(c.UserContext(), userID, req)
	if err != nil {
		return professor.IdentityError(c, err, "update professor")
	}
	return response.SuccessWithMessage(c, "Professor updated successfully.", out)
}

// SendPassword handles PUT /api/users/professor/:userId/send-password
func (h *UserHandler) SendPassword(c *fiber.Ctx) error {
	userID, ok := userIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.identity.SendPassword(c.UserContext(), userID); err != nil {
		return professor.IdentityError(c, err, "send password")
	}
	return response.SuccessWithMessage(c, "A new password has been sent to the user's email.", nil)
}
