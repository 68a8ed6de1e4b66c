package section

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/utils/response"
	"github.com/usched/usched-api/utils/validation"
	"gorm.io/gorm"
)

var errProgramScope = errors.New("program does not belong to college")

// SectionHandler handles class section requests
type SectionHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(db *gorm.DB) *SectionHandler {
	return &SectionHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// SectionRequest is the body of a section create or update.
type SectionRequest struct {
	YearLevel string `json:"year_level" validate:"required"`
	Label     string `json:"section" validate:"required,max=50"`
	ClassSize int    `json:"class_size" validate:"required,gt=0"`
	ProgramID uint   `json:"program_id" validate:"required"`
	Adviser   string `json:"adviser" validate:"required"`
}

func (r *SectionRequest) normalize() {
	r.YearLevel = validation.SanitizeString(r.YearLevel)
	r.Label = strings.ToUpper(validation.SanitizeString(r.Label))
	r.Adviser = validation.SanitizeString(r.Adviser)
}

// SectionRow is a section with its program code.
type SectionRow struct {
	model.Section
	ProgramCode string `json:"program_code"`
	ProgramName string `json:"program_name"`
}

func (h *SectionHandler) collegeByCode(c *fiber.Ctx) (*model.College, error) {
	code := validation.NormalizeCode(c.Query("college_code"))
	if code == "" {
		return nil, response.BadRequest(c, "College code is required.")
	}
	var college model.College
	if err := h.db.WithContext(c.UserContext()).Where("college_code = ?", code).First(&college).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, response.NotFound(c, "College not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch college")
	}
	return &college, nil
}

// ListPrograms handles GET /api/sections/programs?college_code=
func (h *SectionHandler) ListPrograms(c *fiber.Ctx) error {
	college, err := h.collegeByCode(c)
	if college == nil {
		return err
	}

	programs := []model.Program{}
	if err := h.db.WithContext(c.UserContext()).Where("college_id = ?", college.ID).
		Order("program_code ASC").Find(&programs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch programs")
	}
	return response.Success(c, programs)
}

// ListSections handles GET /api/sections?college_code=
func (h *SectionHandler) ListSections(c *fiber.Ctx) error {
	code := validation.NormalizeCode(c.Query("college_code"))
	if code == "" {
		return response.BadRequest(c, "College code is required.")
	}

	rows := []SectionRow{}
	err := h.db.WithContext(c.UserContext()).
		Table("section AS s").
		Select("s.*, p.program_code, p.program_name").
		Joins("JOIN program p ON p.program_id = s.program_id").
		Joins("JOIN college c ON c.college_id = s.college_id").
		Where("c.college_code = ?", code).
		Order("p.program_code ASC, s.year_level ASC, s.section ASC").
		Scan(&rows).Error
	if err != nil {
		slog.Error("failed to list sections", "college", code, "error", err)
		return response.InternalServerError(c, "Failed to fetch sections")
	}
	return response.Success(c, rows)
}

func (h *SectionHandler) parse(c *fiber.Ctx) (*SectionRequest, error) {
	var req SectionRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, response.BadRequest(c, "Invalid request body")
	}
	req.normalize()

	err := h.validator.Check(&req)
	var missing *validation.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		return nil, response.MissingFields(c, missing.Fields)
	case err != nil:
		return nil, response.ValidationError(c, err)
	}
	return &req, nil
}

// programInCollege fails with errProgramScope when the program is absent or
// owned by another college.
func programInCollege(tx *gorm.DB, programID, collegeID uint) error {
	var n int64
	if err := tx.Model(&model.Program{}).
		Where("program_id = ? AND college_id = ?", programID, collegeID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errProgramScope
	}
	return nil
}

// CreateSection handles POST /api/sections?college_code=
func (h *SectionHandler) CreateSection(c *fiber.Ctx) error {
	college, err := h.collegeByCode(c)
	if college == nil {
		return err
	}
	req, err := h.parse(c)
	if req == nil {
		return err
	}

	section := model.Section{
		YearLevel: req.YearLevel,
		Label:     req.Label,
		ClassSize: req.ClassSize,
		ProgramID: req.ProgramID,
		CollegeID: college.ID,
		Adviser:   req.Adviser,
	}
	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := programInCollege(tx, req.ProgramID, college.ID); err != nil {
			return err
		}
		return tx.Create(&section).Error
	})

	switch {
	case errors.Is(err, errProgramScope):
		return response.Forbidden(c, "Program does not belong to your college.")
	case database.IsUniqueViolation(err):
		return response.Conflict(c, "Section already exists for this year level and program.")
	case err != nil:
		slog.Error("failed to add section", "error", err)
		return response.InternalServerError(c, "Failed to add section")
	}
	return response.Created(c, "Section added successfully.", section)
}

// UpdateSection handles PUT /api/sections/:id?college_id=
func (h *SectionHandler) UpdateSection(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid section ID")
	}
	collegeID := c.QueryInt("college_id")
	if collegeID <= 0 {
		return response.BadRequest(c, "College ID is required.")
	}
	req, err := h.parse(c)
	if req == nil {
		return err
	}

	var section model.Section
	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&section, id).Error; err != nil {
			return err
		}
		if section.CollegeID != uint(collegeID) {
			return errProgramScope
		}
		if err := programInCollege(tx, req.ProgramID, uint(collegeID)); err != nil {
			return err
		}
		section.YearLevel = req.YearLevel
		section.Label = req.Label
		section.ClassSize = req.ClassSize
		section.ProgramID = req.ProgramID
		section.Adviser = req.Adviser
		return tx.Save(&section).Error
	})

	switch {
	case database.IsNotFound(err):
		return response.NotFound(c, "Section not found")
	case errors.Is(err, errProgramScope):
		return response.Forbidden(c, "Program does not belong to your college.")
	case database.IsUniqueViolation(err):
		return response.Conflict(c, "Section already exists for this year level and program.")
	case err != nil:
		slog.Error("failed to update section", "section_id", id, "error", err)
		return response.InternalServerError(c, "Failed to update section")
	}
	return response.SuccessWithMessage(c, "Section updated successfully.", section)
}

// DeleteSection handles DELETE /api/sections/:id
func (h *SectionHandler) DeleteSection(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid section ID")
	}

	res := h.db.WithContext(c.UserContext()).Delete(&model.Section{}, id)
	if res.Error != nil {
		slog.Error("failed to delete section", "section_id", id, "error", res.Error)
		return response.InternalServerError(c, "Failed to delete section")
	}
	if res.RowsAffected == 0 {
		return response.NotFound(c, "Section not found")
	}
	return response.SuccessWithMessage(c, "Section deleted successfully.", nil)
}
