package model

import "time"

// College is the top-level academic unit.
type College struct {
	ID        uint      `gorm:"column:college_id;primaryKey" json:"college_id"`
	Name      string    `gorm:"column:college_name;type:varchar(255);not null" json:"college_name"`
	Code      string    `gorm:"column:college_code;type:varchar(50);uniqueIndex;not null" json:"college_code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Programs []Program `gorm:"foreignKey:CollegeID;constraint:OnDelete:CASCADE" json:"programs,omitempty"`
}

// TableName specifies the table name for College
func (College) TableName() string {
	return "college"
}

// Program is a degree track; its code is unique within the owning college.
type Program struct {
	ID        uint      `gorm:"column:program_id;primaryKey" json:"program_id"`
	CollegeID uint      `gorm:"column:college_id;not null;uniqueIndex:idx_program_college_code" json:"college_id"`
	Name      string    `gorm:"column:program_name;type:varchar(255);not null" json:"program_name"`
	Code      string    `gorm:"column:program_code;type:varchar(50);not null;uniqueIndex:idx_program_college_code" json:"program_code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Program
func (Program) TableName() string {
	return "program"
}
