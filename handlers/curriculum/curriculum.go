package curriculum

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	svc "github.com/usched/usched-api/services/curriculum"
	"github.com/usched/usched-api/utils/middleware"
	"github.com/usched/usched-api/utils/response"
)

// MaxUploadSize caps curriculum files. The server body limit sits just above it.
const MaxUploadSize = 10 << 20

// CurriculumHandler handles curriculum uploads and queries
type CurriculumHandler struct {
	service *svc.Service
}

// NewCurriculumHandler creates a new curriculum handler
func NewCurriculumHandler(service *svc.Service) *CurriculumHandler {
	return &CurriculumHandler{service: service}
}

// Upload handles POST /api/curriculum/upload
func (h *CurriculumHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return response.BadRequest(c, "No file uploaded.")
	}
	if _, err := svc.DetectFileType(fh.Filename); err != nil {
		return response.BadRequest(c, "Unsupported file type.")
	}
	if fh.Size > MaxUploadSize {
		return response.BadRequest(c, "File exceeds the 10 MB limit.")
	}

	f, err := fh.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSize+1))
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}

	up := svc.Upload{
		Filename: fh.Filename,
		Data:     data,
		Defaults: svc.Defaults{
			Department: c.FormValue("department"),
			Program:    c.FormValue("program"),
		},
	}
	if userID, ok := middleware.GetUserID(c); ok {
		up.UploadedBy = &userID
	}

	res, err := h.service.Ingest(c.UserContext(), up)
	if err != nil {
		return uploadError(c, fh.Filename, err)
	}

	return response.Message(c, fiber.StatusOK, "File processed and data inserted.", fiber.Map{
		"inserted": res.Inserted,
		"upload":   res,
	})
}

func uploadError(c *fiber.Ctx, filename string, err error) error {
	switch {
	case errors.Is(err, svc.ErrUnsupportedFileType):
		return response.BadRequest(c, "Unsupported file type.")
	case errors.Is(err, svc.ErrNoData):
		return response.BadRequest(c, "No course data found in file.")
	case errors.Is(err, svc.ErrInvalidCollege):
		return response.BadRequest(c, "Invalid college code.")
	case errors.Is(err, svc.ErrInvalidProgram):
		return response.BadRequest(c, "Invalid program code.")
	case errors.Is(err, svc.ErrMalformedFile):
		return response.BadRequest(c, "File could not be read.")
	}
	slog.Error("curriculum upload failed", "filename", filename, "error", err)
	return response.ErrorWithDetails(c, fiber.StatusInternalServerError,
		"Error processing file.", "INTERNAL_ERROR", err.Error())
}

// GetCurriculum handles GET /api/curriculum?year=&program=
func (h *CurriculumHandler) GetCurriculum(c *fiber.Ctx) error {
	year := strings.TrimSpace(c.Query("year"))
	program := strings.ToUpper(strings.TrimSpace(c.Query("program")))
	if year == "" || program == "" {
		return response.BadRequest(c, "Year and Program are required.")
	}

	rows, err := h.service.Courses(c.UserContext(), svc.TitleCase(year), program)
	if err != nil {
		slog.Error("failed to query curriculum", "error", err)
		return response.InternalServerError(c, "Failed to fetch curriculum")
	}
	return response.Success(c, rows)
}

// GetYears handles GET /api/curriculum/years
func (h *CurriculumHandler) GetYears(c *fiber.Ctx) error {
	years, err := h.service.Years(c.UserContext())
	if err != nil {
		slog.Error("failed to query year levels", "error", err)
		return response.InternalServerError(c, "Failed to fetch year levels")
	}
	return response.Success(c, years)
}

// GetCollegeCourses handles GET /api/curriculum/courses?college_code=
func (h *CurriculumHandler) GetCollegeCourses(c *fiber.Ctx) error {
	code := strings.ToUpper(strings.TrimSpace(c.Query("college_code")))
	if code == "" {
		return response.BadRequest(c, "College code is required.")
	}

	rows, err := h.service.CollegeCourses(c.UserContext(), code)
	if err != nil {
		slog.Error("failed to query college courses", "college", code, "error", err)
		return response.InternalServerError(c, "Failed to fetch courses")
	}
	return response.Success(c, rows)
}

// ListUploads handles GET /api/curriculum/uploads?program=&page=&limit=
func (h *CurriculumHandler) ListUploads(c *fiber.Ctx) error {
	page, limit := response.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", 20))
	program := strings.ToUpper(strings.TrimSpace(c.Query("program")))

	uploads, total, err := h.service.Uploads(c.UserContext(), program, page, limit)
	if err != nil {
		slog.Error("failed to query upload history", "error", err)
		return response.InternalServerError(c, "Failed to fetch upload history")
	}
	return response.Paginated(c, uploads, response.CalculatePagination(page, limit, total))
}
