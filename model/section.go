package model

import "time"

// Section is a class group of a program year level.
// (section, year_level, program_id) is unique.
type Section struct {
	ID        uint      `gorm:"column:section_id;primaryKey" json:"section_id"`
	YearLevel string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_section_scope" json:"year_level"`
	Label     string    `gorm:"column:section;type:varchar(50);not null;uniqueIndex:idx_section_scope" json:"section"`
	ClassSize int       `gorm:"not null" json:"class_size"`
	ProgramID uint      `gorm:"not null;uniqueIndex:idx_section_scope" json:"program_id"`
	CollegeID uint      `gorm:"not null;index" json:"college_id"`
	Adviser   string    `gorm:"type:varchar(255);not null" json:"adviser"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Program *Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
}

// TableName specifies the table name for Section
func (Section) TableName() string {
	return "section"
}
