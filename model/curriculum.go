package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CurriculumCourse is one course row of a program's curriculum.
// Rows for a (college, program) pair are only ever replaced as a whole batch.
type CurriculumCourse struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CollegeID      uint      `gorm:"not null;index:idx_curriculum_scope" json:"college_id"`
	ProgramID      uint      `gorm:"not null;index:idx_curriculum_scope" json:"program_id"`
	Year           string    `gorm:"type:varchar(50);not null;index" json:"year"`
	Semester       string    `gorm:"type:varchar(50);not null" json:"semester"`
	CourseCode     string    `gorm:"type:varchar(50);not null" json:"course_code"`
	CourseTitle    string    `gorm:"type:varchar(255);not null" json:"course_title"`
	Lec            int       `gorm:"not null" json:"lec"`
	Lab            int       `gorm:"not null" json:"lab"`
	Total          int       `gorm:"not null" json:"total"`
	PreCoRequisite *string   `gorm:"type:varchar(255)" json:"pre_co_requisite"`
	IsGenEd        bool      `gorm:"column:is_gened;not null" json:"is_gened"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for CurriculumCourse
func (CurriculumCourse) TableName() string {
	return "curriculum_courses"
}

// BeforeSave keeps Total derived from the unit counts.
func (c *CurriculumCourse) BeforeSave(tx *gorm.DB) error {
	c.Total = c.Lec + c.Lab
	return nil
}

// CurriculumUpload records one successful curriculum replacement.
type CurriculumUpload struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CollegeID  uint           `gorm:"not null;index" json:"college_id"`
	ProgramID  uint           `gorm:"not null;index" json:"program_id"`
	Filename   string         `gorm:"type:varchar(255);not null" json:"filename"`
	FileType   string         `gorm:"type:varchar(10);not null" json:"file_type"`
	Inserted   int            `gorm:"not null" json:"inserted"`
	Summary    datatypes.JSON `json:"summary"`
	ArchiveKey string         `gorm:"type:varchar(512)" json:"archive_key,omitempty"`
	UploadedBy *uint          `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`

	Program *Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
}

// TableName specifies the table name for CurriculumUpload
func (CurriculumUpload) TableName() string {
	return "curriculum_uploads"
}
