package model

import (
	"strings"
	"time"
)

// Professor statuses.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Professor is a faculty member owned by a College.
type Professor struct {
	ID              uint      `gorm:"column:professor_id;primaryKey" json:"professor_id"`
	FirstName       string    `gorm:"type:varchar(100);not null" json:"first_name"`
	MiddleName      string    `gorm:"type:varchar(100)" json:"middle_name"`
	LastName        string    `gorm:"type:varchar(100);not null" json:"last_name"`
	ExtendedName    string    `gorm:"type:varchar(20)" json:"extended_name"`
	CollegeID       uint      `gorm:"not null;index" json:"college_id"`
	FacultyType     string    `gorm:"type:varchar(50);not null" json:"faculty_type"`
	Position        string    `gorm:"type:varchar(50);not null" json:"position"`
	BachelorsDegree string    `gorm:"type:varchar(255)" json:"bachelors_degree"`
	MastersDegree   string    `gorm:"type:varchar(255)" json:"masters_degree"`
	DoctorateDegree string    `gorm:"type:varchar(255)" json:"doctorate_degree"`
	Specialization  string    `gorm:"type:text" json:"specialization"`
	Status          string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relationships
	College      *College          `gorm:"foreignKey:CollegeID" json:"college,omitempty"`
	Availability *TimeAvailability `gorm:"foreignKey:ProfessorID" json:"time_availability,omitempty"`
}

// TableName specifies the table name for Professor
func (Professor) TableName() string {
	return "professor"
}

// FullName is "First Middle Last Ext" with empty parts skipped.
func (p *Professor) FullName() string {
	return joinName(p.FirstName, p.MiddleName, p.LastName, p.ExtendedName)
}

// DirectoryName renders "Last, First M. Ext" as used in faculty listings.
func (p *Professor) DirectoryName() string {
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	if first == "" || last == "" {
		return "No Name Provided"
	}
	name := last + ", " + first
	if m := []rune(strings.TrimSpace(p.MiddleName)); len(m) > 0 {
		name += " " + string(m[0]) + "."
	}
	if ext := strings.TrimSpace(p.ExtendedName); ext != "" {
		name += " " + ext
	}
	return name
}

// Profile needs College loaded to fill Department.
func (p *Professor) Profile() Profile {
	prof := Profile{FullName: p.FullName(), Position: p.Position}
	if p.College != nil {
		prof.Department = p.College.Code
	}
	return prof
}

// Specializations splits the comma-joined specialization text.
func (p *Professor) Specializations() []string {
	var out []string
	for _, s := range strings.Split(p.Specialization, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TimeAvailability holds one free-text availability entry per weekday.
type TimeAvailability struct {
	ID          uint      `gorm:"column:availability_id;primaryKey" json:"availability_id"`
	ProfessorID uint      `gorm:"uniqueIndex;not null" json:"professor_id"`
	Monday      string    `gorm:"type:varchar(255);not null;default:''" json:"monday"`
	Tuesday     string    `gorm:"type:varchar(255);not null;default:''" json:"tuesday"`
	Wednesday   string    `gorm:"type:varchar(255);not null;default:''" json:"wednesday"`
	Thursday    string    `gorm:"type:varchar(255);not null;default:''" json:"thursday"`
	Friday      string    `gorm:"type:varchar(255);not null;default:''" json:"friday"`
	Saturday    string    `gorm:"type:varchar(255);not null;default:''" json:"saturday"`
	Sunday      string    `gorm:"type:varchar(255);not null;default:''" json:"sunday"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for TimeAvailability
func (TimeAvailability) TableName() string {
	return "time_availability"
}

// DayColumns returns the column -> value map used for in-place updates.
func (t *TimeAvailability) DayColumns() map[string]interface{} {
	return map[string]interface{}{
		"monday":    t.Monday,
		"tuesday":   t.Tuesday,
		"wednesday": t.Wednesday,
		"thursday":  t.Thursday,
		"friday":    t.Friday,
		"saturday":  t.Saturday,
		"sunday":    t.Sunday,
	}
}
