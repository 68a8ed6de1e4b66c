package professor

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/services/curriculum"
	"github.com/usched/usched-api/services/identity"
	"github.com/usched/usched-api/utils/response"
)

// ProfessorHandler handles faculty directory requests
type ProfessorHandler struct {
	identity   *identity.Service
	curriculum *curriculum.Service
}

// NewProfessorHandler creates a new professor handler
func NewProfessorHandler(ids *identity.Service, courses *curriculum.Service) *ProfessorHandler {
	return &ProfessorHandler{identity: ids, curriculum: courses}
}

// ListProfessors handles GET /api/professors
func (h *ProfessorHandler) ListProfessors(c *fiber.Ctx) error {
	profs, err := h.identity.ListProfessors(c.UserContext())
	if err != nil {
		slog.Error("failed to list professors", "error", err)
		return response.InternalServerError(c, "Failed to fetch professors")
	}
	return response.Success(c, profs)
}

// ListSubjects handles GET /api/professors/subjects
func (h *ProfessorHandler) ListSubjects(c *fiber.Ctx) error {
	subjects, err := h.curriculum.Subjects(c.UserContext())
	if err != nil {
		slog.Error("failed to list subjects", "error", err)
		return response.InternalServerError(c, "Failed to fetch subjects")
	}
	return response.Success(c, subjects)
}

// GetProfessor handles GET /api/professors/:id
func (h *ProfessorHandler) GetProfessor(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid professor ID")
	}

	prof, err := h.identity.GetProfessor(c.UserContext(), uint(id))
	if err != nil {
		return IdentityError(c, err, "fetch professor")
	}
	return response.Success(c, prof)
}

// CreateProfessor handles POST /api/professors
func (h *ProfessorHandler) CreateProfessor(c *fiber.Ctx) error {
	var req identity.ProfessorInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	out, err := h.identity.CreateProfessor(c.UserContext(), req)
	if err != nil {
		return IdentityError(c, err, "add professor")
	}
	return response.Created(c, "Professor added successfully.", out)
}

// UpdateProfessor handles PUT /api/professors/:id
func (h *ProfessorHandler) UpdateProfessor(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid professor ID")
	}

	var req identity.ProfessorInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	out, err := h.identity.UpdateProfessor(c.UserContext(), uint(id), req)
	if err != nil {
		return IdentityError(c, err, "update professor")
	}
	return response.SuccessWithMessage(c, "Professor updated successfully.", out)
}

// DeleteProfessor handles DELETE /api/professors/:id
func (h *ProfessorHandler) DeleteProfessor(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid professor ID")
	}

	if err := h.identity.DeleteProfessor(c.UserContext(), uint(id)); err != nil {
		return IdentityError(c, err, "delete professor")
	}
	return response.SuccessWithMessage(c, "Professor deleted successfully.", nil)
}
