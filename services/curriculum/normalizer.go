// Package curriculum turns uploaded curriculum files into course rows and
// replaces a program's curriculum with them.
package curriculum

import (
	"strings"
	"unicode"
)

// Field is a recognized curriculum column.
type Field int

const (
	FieldDepartment Field = iota
	FieldProgram
	FieldYear
	FieldSemester
	FieldCourseCode
	FieldCourseTitle
	FieldLec
	FieldLab
	FieldPreCoRequisite
	FieldGenEd
)

// Placeholder fills code and title fields that are blank in the source.
const Placeholder = "N/A"

// DefaultYear is used when a row has no year level.
const DefaultYear = "First Year"

// columns maps lower-cased header text to the field it feeds.
var columns = map[string]Field{
	"department":       FieldDepartment,
	"program":          FieldProgram,
	"year level":       FieldYear,
	"semester":         FieldSemester,
	"course code":      FieldCourseCode,
	"course title":     FieldCourseTitle,
	"lec":              FieldLec,
	"lab":              FieldLab,
	"pre/co-requisite": FieldPreCoRequisite,
	"gened":            FieldGenEd,
}

// LookupColumn resolves a header cell. Matching ignores case, surrounding
// whitespace and a leading byte order mark.
func LookupColumn(header string) (Field, bool) {
	h := strings.TrimPrefix(header, "\ufeff")
	f, ok := columns[strings.ToLower(strings.TrimSpace(h))]
	return f, ok
}

// RawRow is one source record keyed by recognized field. Unrecognized
// columns are dropped when the row is built.
type RawRow map[Field]string

// Get returns the trimmed value of f and whether it is present and non-blank.
func (r RawRow) Get(f Field) (string, bool) {
	v := strings.TrimSpace(r[f])
	return v, v != ""
}

// Blank reports whether every recognized cell is empty.
func (r RawRow) Blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// HeaderIndex maps cell positions of a header row to fields.
type HeaderIndex struct {
	fields map[int]Field
}

// NewHeaderIndex reads the header row. The first occurrence of a column wins.
func NewHeaderIndex(header []string) HeaderIndex {
	idx := HeaderIndex{fields: make(map[int]Field, len(header))}
	seen := make(map[Field]bool)
	for i, h := range header {
		f, ok := LookupColumn(h)
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		idx.fields[i] = f
	}
	return idx
}

// Len is the number of recognized columns.
func (h HeaderIndex) Len() int { return len(h.fields) }

// Row builds a RawRow from one record. Short records leave the missing cells absent.
func (h HeaderIndex) Row(record []string) RawRow {
	row := make(RawRow, len(h.fields))
	for i, f := range h.fields {
		if i < len(record) {
			row[f] = record[i]
		}
	}
	return row
}

// Defaults supplies department and program codes for rows that lack them.
type Defaults struct {
	Department string
	Program    string
}

// CourseDraft is a normalized row, not yet bound to stored identifiers.
type CourseDraft struct {
	Department     string  `json:"department"`
	Program        string  `json:"program"`
	Year           string  `json:"year"`
	Semester       string  `json:"semester"`
	CourseCode     string  `json:"course_code"`
	CourseTitle    string  `json:"course_title"`
	Lec            int     `json:"lec"`
	Lab            int     `json:"lab"`
	Total          int     `json:"total"`
	PreCoRequisite *string `json:"pre_co_requisite"`
	IsGenEd        bool    `json:"is_gened"`
}

// Normalize converts one row. It never fails: unusable numbers become 0
// and blank text falls back to defaults.
func Normalize(row RawRow, d Defaults) CourseDraft {
	lec := parseUnits(row[FieldLec])
	lab := parseUnits(row[FieldLab])

	draft := CourseDraft{
		Department:  upperCode(row, FieldDepartment, d.Department),
		Program:     upperCode(row, FieldProgram, d.Program),
		Year:        DefaultYear,
		CourseCode:  Placeholder,
		CourseTitle: Placeholder,
		Lec:         lec,
		Lab:         lab,
		Total:       lec + lab,
	}

	if v, ok := row.Get(FieldYear); ok {
		draft.Year = TitleCase(v)
	}
	if v, ok := row.Get(FieldSemester); ok {
		draft.Semester = TitleCase(v)
	}
	if v, ok := row.Get(FieldCourseCode); ok {
		draft.CourseCode = strings.ToUpper(v)
	}
	if v, ok := row.Get(FieldCourseTitle); ok {
		draft.CourseTitle = TitleCase(v)
	}
	if v, ok := row.Get(FieldPreCoRequisite); ok {
		req := strings.ToUpper(v)
		draft.PreCoRequisite = &req
	}
	if v, ok := row.Get(FieldGenEd); ok {
		draft.IsGenEd = strings.ToUpper(v) == "TRUE"
	}

	return draft
}

func upperCode(row RawRow, f Field, fallback string) string {
	if v, ok := row.Get(f); ok {
		return strings.ToUpper(v)
	}
	if v := strings.TrimSpace(fallback); v != "" {
		return strings.ToUpper(v)
	}
	return Placeholder
}

// TitleCase lower-cases s and capitalizes the first letter of every
// whitespace-separated word. Runs of whitespace collapse to one space.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// parseUnits reads the leading integer of s the way a lenient form parser
// does ("3", " 3 ", "3.0" and "3 units" all give 3). Anything else,
// including negative counts, yields 0.
func parseUnits(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}

	n, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		if n > (1<<31-1)/10 {
			return 0
		}
		n = n*10 + int(c-'0')
		digits++
	}
	if digits == 0 || neg {
		return 0
	}
	return n
}
