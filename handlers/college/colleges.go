package college

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/utils/response"
	"github.com/usched/usched-api/utils/validation"
	"gorm.io/gorm"
)

var (
	errCollegeNotFound = errors.New("college not found")
	errProgramNotFound = errors.New("program not found")
	errHasProfessors   = errors.New("college still has professors")
)

// CollegeHandler handles college and program requests
type CollegeHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewCollegeHandler creates a new college handler
func NewCollegeHandler(db *gorm.DB) *CollegeHandler {
	return &CollegeHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// ProgramRequest is one program inside a college create or update.
// ProgramID is set for programs that already exist.
type ProgramRequest struct {
	ProgramID uint   `json:"program_id"`
	Name      string `json:"program_name" validate:"required,max=255"`
	Code      string `json:"program_code" validate:"required,max=50"`
}

// CollegeRequest is the body of a college create or update.
type CollegeRequest struct {
	Name     string           `json:"college_name" validate:"required,max=255"`
	Code     string           `json:"college_code" validate:"required,max=50"`
	Programs []ProgramRequest `json:"programs" validate:"dive"`
}

func (r *CollegeRequest) normalize() {
	r.Name = validation.SanitizeString(r.Name)
	r.Code = validation.NormalizeCode(r.Code)
	for i := range r.Programs {
		r.Programs[i].Name = validation.SanitizeString(r.Programs[i].Name)
		r.Programs[i].Code = validation.NormalizeCode(r.Programs[i].Code)
	}
}

func (h *CollegeHandler) parse(c *fiber.Ctx) (*CollegeRequest, error) {
	var req CollegeRequest
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

// ListColleges handles GET /api/colleges
func (h *CollegeHandler) ListColleges(c *fiber.Ctx) error {
	colleges := []model.College{}
	err := h.db.WithContext(c.UserContext()).
		Preload("Programs", func(db *gorm.DB) *gorm.DB { return db.Order("program_code ASC") }).
		Order("college_name ASC").Find(&colleges).Error
	if err != nil {
		slog.Error("failed to list colleges", "error", err)
		return response.InternalServerError(c, "Failed to fetch colleges")
	}
	return response.Success(c, colleges)
}

// ListPrograms handles GET /api/colleges/:college_id/programs
func (h *CollegeHandler) ListPrograms(c *fiber.Ctx) error {
	id, err := c.ParamsInt("college_id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid college ID")
	}

	db := h.db.WithContext(c.UserContext())
	var college model.College
	if err := db.First(&college, id).Error; err != nil {
		if database.IsNotFound(err) {
			return response.NotFound(c, "College not found")
		}
		return response.InternalServerError(c, "Failed to fetch college")
	}

	programs := []model.Program{}
	if err := db.Where("college_id = ?", college.ID).Order("program_code ASC").Find(&programs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch programs")
	}
	return response.Success(c, programs)
}

// CreateCollege handles POST /api/colleges
func (h *CollegeHandler) CreateCollege(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if req == nil {
		return err
	}

	college := model.College{Name: req.Name, Code: req.Code}
	for _, p := range req.Programs {
		college.Programs = append(college.Programs, model.Program{Name: p.Name, Code: p.Code})
	}

	// programs are inserted with the college through the association
	if err := h.db.WithContext(c.UserContext()).Create(&college).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return response.Conflict(c, "College or program code already exists.")
		}
		slog.Error("failed to create college", "code", req.Code, "error", err)
		return response.InternalServerError(c, "Failed to create college")
	}

	slog.Info("college created", "college_id", college.ID, "programs", len(college.Programs))
	return response.Created(c, "College added successfully.", college)
}

// UpdateCollege handles PUT /api/colleges/:id. Programs missing from the
// request are removed, listed ones updated, new ones inserted.
func (h *CollegeHandler) UpdateCollege(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid college ID")
	}
	req, err := h.parse(c)
	if req == nil {
		return err
	}

	var college model.College
	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&college, id).Error; err != nil {
			if database.IsNotFound(err) {
				return errCollegeNotFound
			}
			return err
		}

		if err := tx.Model(&college).Updates(map[string]interface{}{
			"college_name": req.Name,
			"college_code": req.Code,
		}).Error; err != nil {
			return err
		}

		var existing []model.Program
		if err := tx.Where("college_id = ?", college.ID).Find(&existing).Error; err != nil {
			return err
		}
		kept := make(map[uint]bool, len(req.Programs))
		for _, p := range req.Programs {
			if p.ProgramID != 0 {
				kept[p.ProgramID] = true
			}
		}

		var removed []uint
		for _, p := range existing {
			if !kept[p.ID] {
				removed = append(removed, p.ID)
			}
		}
		if err := deletePrograms(tx, removed); err != nil {
			return err
		}

		for _, p := range req.Programs {
			if p.ProgramID == 0 {
				if err := tx.Create(&model.Program{CollegeID: college.ID, Name: p.Name, Code: p.Code}).Error; err != nil {
					return err
				}
				continue
			}
			res := tx.Model(&model.Program{}).
				Where("program_id = ? AND college_id = ?", p.ProgramID, college.ID).
				Updates(map[string]interface{}{"program_name": p.Name, "program_code": p.Code})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errProgramNotFound
			}
		}
		return nil
	})

	switch {
	case errors.Is(err, errCollegeNotFound):
		return response.NotFound(c, "College not found")
	case errors.Is(err, errProgramNotFound):
		return response.BadRequest(c, "Program does not belong to this college.")
	case database.IsUniqueViolation(err):
		return response.Conflict(c, "College or program code already exists.")
	case err != nil:
		slog.Error("failed to update college", "college_id", id, "error", err)
		return response.InternalServerError(c, "Failed to update college")
	}

	var updated model.College
	if err := h.db.WithContext(c.UserContext()).Preload("Programs").First(&updated, college.ID).Error; err != nil {
		// the update is committed; only the echo of it is missing
		slog.Error("failed to reload updated college", "college_id", college.ID, "error", err)
		return response.SuccessWithMessage(c, "College updated successfully.", fiber.Map{"college_id": college.ID})
	}
	return response.SuccessWithMessage(c, "College updated successfully.", updated)
}

// DeleteCollege handles DELETE /api/colleges/:id
func (h *CollegeHandler) DeleteCollege(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid college ID")
	}

	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var college model.College
		if err := tx.First(&college, id).Error; err != nil {
			if database.IsNotFound(err) {
				return errCollegeNotFound
			}
			return err
		}

		var professors int64
		if err := tx.Model(&model.Professor{}).Where("college_id = ?", college.ID).Count(&professors).Error; err != nil {
			return err
		}
		if professors > 0 {
			return errHasProfessors
		}

		var programIDs []uint
		if err := tx.Model(&model.Program{}).Where("college_id = ?", college.ID).Pluck("program_id", &programIDs).Error; err != nil {
			return err
		}
		if err := deletePrograms(tx, programIDs); err != nil {
			return err
		}
		if err := tx.Where("college_id = ?", college.ID).Delete(&model.CurriculumCourse{}).Error; err != nil {
			return err
		}
		return tx.Delete(&college).Error
	})

	switch {
	case errors.Is(err, errCollegeNotFound):
		return response.NotFound(c, "College not found")
	case errors.Is(err, errHasProfessors):
		return response.Conflict(c, "Cannot delete a college that still has professors.")
	case err != nil:
		slog.Error("failed to delete college", "college_id", id, "error", err)
		return response.InternalServerError(c, "Failed to delete college")
	}

	slog.Info("college deleted", "college_id", id)
	return response.SuccessWithMessage(c, "College deleted successfully.", nil)
}

// DeleteProgram handles DELETE /api/colleges/programs/:id
func (h *CollegeHandler) DeleteProgram(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid program ID")
	}

	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var program model.Program
		if err := tx.First(&program, id).Error; err != nil {
			if database.IsNotFound(err) {
				return errProgramNotFound
			}
			return err
		}
		return deletePrograms(tx, []uint{program.ID})
	})

	switch {
	case errors.Is(err, errProgramNotFound):
		return response.NotFound(c, "Program not found")
	case err != nil:
		slog.Error("failed to delete program", "program_id", id, "error", err)
		return response.InternalServerError(c, "Failed to delete program")
	}
	return response.SuccessWithMessage(c, "Program deleted successfully.", nil)
}

// deletePrograms removes programs with their sections, curriculum and upload history.
func deletePrograms(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	for _, m := range []interface{}{&model.Section{}, &model.CurriculumCourse{}, &model.CurriculumUpload{}} {
		if err := tx.Where("program_id IN ?", ids).Delete(m).Error; err != nil {
			return err
		}
	}
	return tx.Where("program_id IN ?", ids).Delete(&model.Program{}).Error
}
