package curriculum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/services/storage"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNoData         = errors.New("no course data found in file")
	ErrInvalidCollege = errors.New("invalid college code")
	ErrInvalidProgram = errors.New("invalid program code")
)

const insertBatchSize = 200

// Service runs curriculum uploads and queries.
type Service struct {
	db      *gorm.DB
	archive storage.Archive
}

// NewService creates the service. archive may be nil.
func NewService(db *gorm.DB, archive storage.Archive) *Service {
	return &Service{db: db, archive: archive}
}

// Upload is one file submitted for ingestion.
type Upload struct {
	Filename   string
	Data       []byte
	Defaults   Defaults
	UploadedBy *uint
}

// Result describes a committed replacement.
type Result struct {
	UploadID string         `json:"upload_id"`
	College  string         `json:"college"`
	Program  string         `json:"program"`
	Inserted int            `json:"inserted"`
	Years    map[string]int `json:"years"`
}

// Parse decodes and normalizes every row of the upload without touching storage.
func Parse(filename string, data []byte, d Defaults) ([]CourseDraft, FileType, error) {
	ft, err := DetectFileType(filename)
	if err != nil {
		return nil, "", err
	}

	var drafts []CourseDraft
	err = ReadRows(ft, data, func(row RawRow) error {
		drafts = append(drafts, Normalize(row, d))
		return nil
	})
	if err != nil {
		return nil, ft, err
	}
	if len(drafts) == 0 {
		return nil, ft, ErrNoData
	}
	return drafts, ft, nil
}

// Ingest replaces the curriculum of the program named by the first row.
// The delete and the inserts commit together or not at all.
func (s *Service) Ingest(ctx context.Context, up Upload) (*Result, error) {
	drafts, ft, err := Parse(up.Filename, up.Data, up.Defaults)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	college, program, err := resolve(db, drafts[0])
	if err != nil {
		return nil, err
	}

	courses := make([]model.CurriculumCourse, 0, len(drafts))
	years := make(map[string]int)
	mixed := 0
	for _, d := range drafts {
		if d.Department != college.Code || d.Program != program.Code {
			mixed++
		}
		years[d.Year]++
		courses = append(courses, model.CurriculumCourse{
			CollegeID:      college.ID,
			ProgramID:      program.ID,
			Year:           d.Year,
			Semester:       d.Semester,
			CourseCode:     d.CourseCode,
			CourseTitle:    d.CourseTitle,
			Lec:            d.Lec,
			Lab:            d.Lab,
			Total:          d.Total,
			PreCoRequisite: d.PreCoRequisite,
			IsGenEd:        d.IsGenEd,
		})
	}
	if mixed > 0 {
		slog.Warn("curriculum rows name another program; storing under the first row's program",
			"college", college.Code, "program", program.Code, "rows", mixed)
	}

	summary, err := json.Marshal(map[string]interface{}{"years": years, "rows": len(courses)})
	if err != nil {
		return nil, err
	}

	record := model.CurriculumUpload{
		ID:         uuid.New().String(),
		CollegeID:  college.ID,
		ProgramID:  program.ID,
		Filename:   up.Filename,
		FileType:   string(ft),
		Inserted:   len(courses),
		Summary:    datatypes.JSON(summary),
		UploadedBy: up.UploadedBy,
	}
	if s.archive != nil {
		record.ArchiveKey = storage.UploadKey(program.Code, up.Filename)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("college_id = ? AND program_id = ?", college.ID, program.ID).
			Delete(&model.CurriculumCourse{}).Error; err != nil {
			return fmt.Errorf("delete previous courses: %w", err)
		}
		if err := tx.CreateInBatches(&courses, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert courses: %w", err)
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("record upload: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("curriculum replaced", "college", college.Code, "program", program.Code,
		"inserted", len(courses), "upload_id", record.ID)

	if record.ArchiveKey != "" {
		s.archiveUpload(ctx, record, ft, up.Data)
	}

	return &Result{
		UploadID: record.ID,
		College:  college.Code,
		Program:  program.Code,
		Inserted: len(courses),
		Years:    years,
	}, nil
}

// archiveUpload stores the raw file. Failures only cost the archive copy.
func (s *Service) archiveUpload(ctx context.Context, record model.CurriculumUpload, ft FileType, data []byte) {
	if err := s.archive.Put(ctx, record.ArchiveKey, data, ft.ContentType()); err != nil {
		slog.Error("failed to archive curriculum upload", "upload_id", record.ID, "error", err)
		if err := s.db.WithContext(ctx).Model(&model.CurriculumUpload{}).
			Where("id = ?", record.ID).Update("archive_key", "").Error; err != nil {
			slog.Error("failed to clear archive key", "upload_id", record.ID, "error", err)
		}
	}
}

// resolve looks up the college and, within it, the program named by d.
func resolve(db *gorm.DB, d CourseDraft) (*model.College, *model.Program, error) {
	var college model.College
	if err := db.Where("college_code = ?", d.Department).First(&college).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCollege
		}
		return nil, nil, err
	}

	var program model.Program
	if err := db.Where("college_id = ? AND program_code = ?", college.ID, d.Program).First(&program).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidProgram
		}
		return nil, nil, err
	}
	return &college, &program, nil
}
