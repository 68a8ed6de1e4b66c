package identity

import (
	"encoding/json"
	"strings"

	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/utils/validation"
)

// Specialization accepts either a comma-joined string or a list of strings
// and stores the comma-joined form.
type Specialization string

func (s *Specialization) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		kept := make([]string, 0, len(list))
		for _, v := range list {
			if v = strings.TrimSpace(v); v != "" {
				kept = append(kept, v)
			}
		}
		*s = Specialization(strings.Join(kept, ", "))
		return nil
	}

	var str *string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	if str != nil {
		*s = Specialization(*str)
	}
	return nil
}

// Availability is the weekly free-text schedule of a professor.
type Availability struct {
	Monday    string `json:"monday"`
	Tuesday   string `json:"tuesday"`
	Wednesday string `json:"wednesday"`
	Thursday  string `json:"thursday"`
	Friday    string `json:"friday"`
	Saturday  string `json:"saturday"`
	Sunday    string `json:"sunday"`
}

func (a *Availability) model(professorID uint) model.TimeAvailability {
	return model.TimeAvailability{
		ProfessorID: professorID,
		Monday:      strings.TrimSpace(a.Monday),
		Tuesday:     strings.TrimSpace(a.Tuesday),
		Wednesday:   strings.TrimSpace(a.Wednesday),
		Thursday:    strings.TrimSpace(a.Thursday),
		Friday:      strings.TrimSpace(a.Friday),
		Saturday:    strings.TrimSpace(a.Saturday),
		Sunday:      strings.TrimSpace(a.Sunday),
	}
}

// ProfessorInput carries the fields of a professor create or update.
type ProfessorInput struct {
	FirstName       string         `json:"first_name" validate:"required"`
	MiddleName      string         `json:"middle_name"`
	LastName        string         `json:"last_name" validate:"required"`
	ExtendedName    string         `json:"extended_name"`
	CollegeID       uint           `json:"college_id" validate:"required"`
	FacultyType     string         `json:"faculty_type" validate:"required"`
	Position        string         `json:"position" validate:"required"`
	BachelorsDegree string         `json:"bachelors_degree"`
	MastersDegree   string         `json:"masters_degree"`
	DoctorateDegree string         `json:"doctorate_degree"`
	Specialization  Specialization `json:"specialization"`
	Status          string         `json:"status" validate:"required,oneof=Active Inactive"`
	Availability    *Availability  `json:"time_availability"`
	Email           string         `json:"email" validate:"omitempty,email"`
}

func (in *ProfessorInput) normalize() {
	in.FirstName = validation.SanitizeString(in.FirstName)
	in.MiddleName = validation.SanitizeString(in.MiddleName)
	in.LastName = validation.SanitizeString(in.LastName)
	in.ExtendedName = validation.SanitizeString(in.ExtendedName)
	in.FacultyType = validation.SanitizeString(in.FacultyType)
	in.Position = validation.SanitizeString(in.Position)
	in.BachelorsDegree = validation.SanitizeString(in.BachelorsDegree)
	in.MastersDegree = validation.SanitizeString(in.MastersDegree)
	in.DoctorateDegree = validation.SanitizeString(in.DoctorateDegree)
	in.Specialization = Specialization(validation.SanitizeString(string(in.Specialization)))
	in.Status = validation.SanitizeString(in.Status)
	in.Email = strings.ToLower(validation.SanitizeString(in.Email))
}

// apply copies the input onto p, leaving identifiers alone.
func (in *ProfessorInput) apply(p *model.Professor) {
	p.FirstName = in.FirstName
	p.MiddleName = in.MiddleName
	p.LastName = in.LastName
	p.ExtendedName = in.ExtendedName
	p.CollegeID = in.CollegeID
	p.FacultyType = in.FacultyType
	p.Position = in.Position
	p.BachelorsDegree = in.BachelorsDegree
	p.MastersDegree = in.MastersDegree
	p.DoctorateDegree = in.DoctorateDegree
	p.Specialization = string(in.Specialization)
	p.Status = in.Status
}

// AdminInput creates an administrator.
type AdminInput struct {
	FirstName    string `json:"first_name" validate:"required"`
	MiddleName   string `json:"middle_name"`
	LastName     string `json:"last_name" validate:"required"`
	ExtendedName string `json:"extended_name"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Status       string `json:"status" validate:"required,oneof=Active Inactive"`
}

func (in *AdminInput) normalize() {
	in.FirstName = validation.SanitizeString(in.FirstName)
	in.MiddleName = validation.SanitizeString(in.MiddleName)
	in.LastName = validation.SanitizeString(in.LastName)
	in.ExtendedName = validation.SanitizeString(in.ExtendedName)
	in.Email = strings.ToLower(validation.SanitizeString(in.Email))
	in.Status = validation.SanitizeString(in.Status)
}

// AdminUpdate edits an administrator. An empty Password keeps the current one.
type AdminUpdate struct {
	FirstName    string `json:"first_name" validate:"required"`
	MiddleName   string `json:"middle_name"`
	LastName     string `json:"last_name" validate:"required"`
	ExtendedName string `json:"extended_name"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"omitempty,min=8"`
	Status       string `json:"status" validate:"required,oneof=Active Inactive"`
}

func (in *AdminUpdate) normalize() {
	in.FirstName = validation.SanitizeString(in.FirstName)
	in.MiddleName = validation.SanitizeString(in.MiddleName)
	in.LastName = validation.SanitizeString(in.LastName)
	in.ExtendedName = validation.SanitizeString(in.ExtendedName)
	in.Email = strings.ToLower(validation.SanitizeString(in.Email))
	in.Status = validation.SanitizeString(in.Status)
}
