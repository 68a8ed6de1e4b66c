package curriculum

import (
	"testing"
)

func TestNormalizeExampleRow(t *testing.T) {
	row := RawRow{
		FieldCourseCode: "cs101",
		FieldLec:        "3",
		FieldLab:        "0",
		FieldYear:       "first year",
	}
	got := Normalize(row, Defaults{Department: "ccs", Program: "BSCS"})

	if got.CourseCode != "CS101" {
		t.Errorf("CourseCode = %q, want CS101", got.CourseCode)
	}
	if got.Year != "First Year" {
		t.Errorf("Year = %q, want First Year", got.Year)
	}
	if got.Total != 3 {
		t.Errorf("Total = %d, want 3", got.Total)
	}
	if got.Department != "CCS" || got.Program != "BSCS" {
		t.Errorf("codes = %q/%q, want CCS/BSCS", got.Department, got.Program)
	}
	if got.CourseTitle != Placeholder {
		t.Errorf("CourseTitle = %q, want %q", got.CourseTitle, Placeholder)
	}
	if got.PreCoRequisite != nil {
		t.Errorf("PreCoRequisite = %q, want nil", *got.PreCoRequisite)
	}
	if got.IsGenEd {
		t.Error("IsGenEd should default to false")
	}
}

func TestNormalizeDefaultsAndFallbacks(t *testing.T) {
	got := Normalize(RawRow{FieldDepartment: "   ", FieldSemester: "1st SEMESTER"}, Defaults{})
	if got.Department != Placeholder || got.Program != Placeholder {
		t.Errorf("codes = %q/%q, want N/A", got.Department, got.Program)
	}
	if got.Year != DefaultYear {
		t.Errorf("Year = %q, want %q", got.Year, DefaultYear)
	}
	if got.Semester != "1st Semester" {
		t.Errorf("Semester = %q", got.Semester)
	}
	if got.CourseCode != Placeholder {
		t.Errorf("CourseCode = %q", got.CourseCode)
	}

	// row values beat request defaults
	got = Normalize(RawRow{FieldDepartment: " cea ", FieldProgram: "bsce"}, Defaults{Department: "CCS", Program: "BSCS"})
	if got.Department != "CEA" || got.Program != "BSCE" {
		t.Errorf("codes = %q/%q, want CEA/BSCE", got.Department, got.Program)
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"  FIRST year ":             "First Year",
		"second   YEAR":             "Second Year",
		"Third Year":                "Third Year",
		"fourth\tyear":              "Fourth Year",
		"introduction to COMPUTING": "Introduction To Computing",
		"":                          "",
	}
	for in, want := range tests {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 2 ", 2},
		{"3.0", 3},
		{"+1", 1},
		{"4 units", 4},
		{"-2", 0},
		{"abc", 0},
		{"", 0},
		{"99999999999999", 0},
	}
	for _, tt := range tests {
		if got := parseUnits(tt.in); got != tt.want {
			t.Errorf("parseUnits(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTotalIsAlwaysLecPlusLab(t *testing.T) {
	values := []string{"", "0", "1", "3", "x", "-1", "2.5", " 6"}
	for _, lec := range values {
		for _, lab := range values {
			d := Normalize(RawRow{FieldLec: lec, FieldLab: lab}, Defaults{})
			if d.Total != d.Lec+d.Lab {
				t.Fatalf("lec=%q lab=%q: total %d != %d+%d", lec, lab, d.Total, d.Lec, d.Lab)
			}
			if d.Lec < 0 || d.Lab < 0 {
				t.Fatalf("lec=%q lab=%q: negative units %d/%d", lec, lab, d.Lec, d.Lab)
			}
		}
	}
}

func TestGenEdFlag(t *testing.T) {
	tests := map[string]bool{
		"TRUE":   true,
		"true":   true,
		" True ": true,
		"yes":    false,
		"1":      false,
		"FALSE":  false,
		"":       false,
	}
	for in, want := range tests {
		if got := Normalize(RawRow{FieldGenEd: in}, Defaults{}).IsGenEd; got != want {
			t.Errorf("GenEd %q = %v, want %v", in, got, want)
		}
	}
}

func TestPreCoRequisiteUpperCased(t *testing.T) {
	d := Normalize(RawRow{FieldPreCoRequisite: " cs101, math1 "}, Defaults{})
	if d.PreCoRequisite == nil || *d.PreCoRequisite != "CS101, MATH1" {
		t.Fatalf("PreCoRequisite = %v", d.PreCoRequisite)
	}
}

func TestHeaderIndex(t *testing.T) {
	idx := NewHeaderIndex([]string{"\ufeffCourse Code", " LEC ", "Notes", "lab", "Course Code"})
	if idx.Len() != 3 {
		t.Fatalf("Len = %d, want 3", idx.Len())
	}
	row := idx.Row([]string{"it101", "2", "ignored", "1", "dup"})
	if row[FieldCourseCode] != "it101" || row[FieldLec] != "2" || row[FieldLab] != "1" {
		t.Errorf("unexpected row %v", row)
	}

	short := idx.Row([]string{"it102"})
	if _, ok := short.Get(FieldLab); ok {
		t.Error("missing cell should be absent")
	}
}
