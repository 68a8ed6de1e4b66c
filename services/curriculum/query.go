package curriculum

import (
	"context"

	"github.com/usched/usched-api/model"
	"gorm.io/gorm"
)

// CourseRow is a stored course with its codes resolved.
type CourseRow struct {
	model.CurriculumCourse
	Department string `json:"department"`
	Program    string `json:"program"`
}

func (s *Service) courseQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("curriculum_courses AS cc").
		Select("cc.*, c.college_code AS department, p.program_code AS program").
		Joins("JOIN college c ON c.college_id = cc.college_id").
		Joins("JOIN program p ON p.program_id = cc.program_id")
}

// Courses lists one year of a program, in upload order.
func (s *Service) Courses(ctx context.Context, year, programCode string) ([]CourseRow, error) {
	rows := []CourseRow{}
	err := s.courseQuery(ctx).
		Where("cc.year = ? AND p.program_code = ?", year, programCode).
		Order("cc.id ASC").
		Scan(&rows).Error
	return rows, err
}

// CollegeCourses lists every course of a college.
func (s *Service) CollegeCourses(ctx context.Context, collegeCode string) ([]CourseRow, error) {
	rows := []CourseRow{}
	err := s.courseQuery(ctx).
		Where("c.college_code = ?", collegeCode).
		Order("p.program_code ASC, cc.year ASC, cc.semester ASC, cc.id ASC").
		Scan(&rows).Error
	return rows, err
}

// Years returns the distinct stored year levels.
func (s *Service) Years(ctx context.Context) ([]string, error) {
	years := []string{}
	err := s.db.WithContext(ctx).Model(&model.CurriculumCourse{}).
		Distinct("year").Order("year ASC").Pluck("year", &years).Error
	return years, err
}

// Subject is a specialization dropdown option.
type Subject struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Subjects lists course titles for the professor specialization picker.
func (s *Service) Subjects(ctx context.Context) ([]Subject, error) {
	subjects := []Subject{}
	err := s.db.WithContext(ctx).Model(&model.CurriculumCourse{}).
		Select("id, course_title AS name").Order("course_title ASC, id ASC").
		Scan(&subjects).Error
	return subjects, err
}

// Uploads returns one page of upload history, newest first, and the total
// number of matching uploads. page starts at 1.
func (s *Service) Uploads(ctx context.Context, programCode string, page, limit int) ([]model.CurriculumUpload, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	byProgram := func(db *gorm.DB) *gorm.DB {
		if programCode == "" {
			return db
		}
		return db.Where("program_id IN (?)", s.db.Model(&model.Program{}).
			Select("program_id").Where("program_code = ?", programCode))
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.CurriculumUpload{}).
		Scopes(byProgram).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	uploads := []model.CurriculumUpload{}
	err := s.db.WithContext(ctx).Scopes(byProgram).Preload("Program").
		Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).
		Find(&uploads).Error
	return uploads, total, err
}
