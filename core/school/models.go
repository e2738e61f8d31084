package school

import (
	"sort"
	"strings"
)

// Genders
const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Term names
const (
	TermFirst  = "First"
	TermSecond = "Second"
	TermThird  = "Third"
)

type (
	// Session is a school year, eg. 2023/2024.
	Session struct {
		ID     string `json:"id" db:"id"`
		Name   string `json:"name" db:"name"`
		Active bool   `json:"active" db:"active"`
	}

	Term struct {
		ID        string `json:"id" db:"id"`
		Name      string `json:"name" db:"name"`
		SessionID string `json:"session_id" db:"session_id"`
		Active    bool   `json:"active" db:"active"`
	}

	// Class is a class level, eg. JSS1.
	Class struct {
		ID   string `json:"id" db:"id"`
		Name string `json:"name" db:"name"`
	}

	// Arm is a stream of a class level, eg. Gold.
	Arm struct {
		ID   string `json:"id" db:"id"`
		Name string `json:"name" db:"name"`
	}

	Subject struct {
		ID   string `json:"id" db:"id"`
		Name string `json:"name" db:"name"`
		Code string `json:"code" db:"code"`
	}

	Student struct {
		ID          string `json:"id" db:"id"`
		AdmissionNo string `json:"admission_no" db:"admission_no"`
		FirstName   string `json:"first_name" db:"first_name"`
		LastName    string `json:"last_name" db:"last_name"`
		Gender      string `json:"gender" db:"gender"`
		ClassID     string `json:"class_id" db:"class_id"`
		ArmID       string `json:"arm_id" db:"arm_id"`
		ParentID    string `json:"parent_id" db:"parent_id"`
	}
)

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// NormalizeAdmissionNo makes admission numbers comparable: trimmed, upper case.
func NormalizeAdmissionNo(admissionNo string) string {
	return strings.ToUpper(strings.TrimSpace(admissionNo))
}

// StudentFilter applies AND operation on the non-empty fields.
type StudentFilter struct {
	ClassID string `query:"class_id"`
	ArmID   string `query:"arm_id"`
	IDs     []string
}

func (f StudentFilter) Match(s Student) bool {
	if f.ClassID != "" && s.ClassID != f.ClassID {
		return false
	}
	if f.ArmID != "" && s.ArmID != f.ArmID {
		return false
	}
	if len(f.IDs) > 0 {
		for _, id := range f.IDs {
			if id == s.ID {
				return true
			}
		}
		return false
	}
	return true
}

// SortStudents orders students by last name, first name, then admission number.
func SortStudents(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.AdmissionNo < b.AdmissionNo
	})
}
