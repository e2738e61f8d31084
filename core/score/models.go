package score

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/grade"
)

// Component bounds
const (
	MaxCA1        = 10
	MaxCA2        = 10
	MaxAssignment = 10
	MaxNotes      = 10
	MaxExam       = 60
)

// Key identifies a score row: one per student, subject, term and session.
type Key struct {
	StudentID string `json:"student_id" db:"student_id"`
	SubjectID string `json:"subject_id" db:"subject_id"`
	TermID    string `json:"term_id" db:"term_id"`
	SessionID string `json:"session_id" db:"session_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.StudentID, k.SubjectID, k.TermID, k.SessionID)
}

type Score struct {
	ID         string    `json:"id" db:"id"`
	StudentID  string    `json:"student_id" db:"student_id"`
	SubjectID  string    `json:"subject_id" db:"subject_id"`
	TermID     string    `json:"term_id" db:"term_id"`
	SessionID  string    `json:"session_id" db:"session_id"`
	CA1        int       `json:"ca1" db:"ca1"`
	CA2        int       `json:"ca2" db:"ca2"`
	Assignment int       `json:"assignment" db:"assignment"`
	Notes      int       `json:"notes" db:"notes"`
	Exam       int       `json:"exam" db:"exam"`
	Total      int       `json:"total" db:"total"`
	Grade      string    `json:"grade" db:"grade"`
	IsLocked   bool      `json:"is_locked" db:"is_locked"`
	UpdatedBy  string    `json:"updated_by" db:"updated_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (s Score) Key() Key {
	return Key{StudentID: s.StudentID, SubjectID: s.SubjectID, TermID: s.TermID, SessionID: s.SessionID}
}

// CA is the continuous assessment part of the total.
func (s Score) CA() int {
	return s.CA1 + s.CA2 + s.Assignment + s.Notes
}

// Compute derives Total and Grade from the components.
func (s *Score) Compute() {
	s.Total = s.CA() + s.Exam
	s.Grade = grade.For(s.Total)
}

// Row is one line of a class score sheet: a student and their score, zero valued when none was entered.
type Row struct {
	StudentID   string `json:"student_id" db:"student_id"`
	AdmissionNo string `json:"admission_no" db:"admission_no"`
	FirstName   string `json:"first_name" db:"first_name"`
	LastName    string `json:"last_name" db:"last_name"`
	ScoreID     string `json:"score_id,omitempty" db:"score_id"`
	CA1         int    `json:"ca1" db:"ca1"`
	CA2         int    `json:"ca2" db:"ca2"`
	Assignment  int    `json:"assignment" db:"assignment"`
	Notes       int    `json:"notes" db:"notes"`
	Exam        int    `json:"exam" db:"exam"`
	Total       int    `json:"total" db:"total"`
	Grade       string `json:"grade" db:"grade"`
	IsLocked    bool   `json:"is_locked" db:"is_locked"`
}

// NewScore contains what a caller may submit for a score row.
// Total and grade are never taken from the caller.
type NewScore struct {
	StudentID  string `json:"student_id" validate:"required"`
	SubjectID  string `json:"subject_id" validate:"required"`
	TermID     string `json:"term_id" validate:"required"`
	SessionID  string `json:"session_id"`
	CA1        int    `json:"ca1" validate:"min=0,max=10"`
	CA2        int    `json:"ca2" validate:"min=0,max=10"`
	Assignment int    `json:"assignment" validate:"min=0,max=10"`
	Notes      int    `json:"notes" validate:"min=0,max=10"`
	Exam       int    `json:"exam" validate:"min=0,max=60"`
	IsLocked   *bool  `json:"is_locked"`
}

func (ns *NewScore) Validate(validate *validator.Validate) error {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.SubjectID = core.CleanString(ns.SubjectID)
	ns.TermID = core.CleanString(ns.TermID)
	ns.SessionID = core.CleanString(ns.SessionID)
	return validate.Struct(ns)
}

func (ns NewScore) Key() Key {
	return Key{StudentID: ns.StudentID, SubjectID: ns.SubjectID, TermID: ns.TermID, SessionID: ns.SessionID}
}

// SheetFilter selects the score sheet of one class for a subject and term.
type SheetFilter struct {
	ClassID   string `query:"class_id" validate:"required"`
	SubjectID string `query:"subject_id" validate:"required"`
	TermID    string `query:"term_id" validate:"required"`
}

func (sf *SheetFilter) Validate(validate *validator.Validate) error {
	sf.ClassID = core.CleanString(sf.ClassID)
	sf.SubjectID = core.CleanString(sf.SubjectID)
	sf.TermID = core.CleanString(sf.TermID)
	return validate.Struct(sf)
}

// LockRequest changes the lock state of one score row.
type LockRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	TermID    string `json:"term_id" validate:"required"`
	SessionID string `json:"session_id"`
}

func (lr *LockRequest) Validate(validate *validator.Validate) error {
	lr.StudentID = core.CleanString(lr.StudentID)
	lr.SubjectID = core.CleanString(lr.SubjectID)
	lr.TermID = core.CleanString(lr.TermID)
	lr.SessionID = core.CleanString(lr.SessionID)
	return validate.Struct(lr)
}

func (lr LockRequest) Key() Key {
	return Key{StudentID: lr.StudentID, SubjectID: lr.SubjectID, TermID: lr.TermID, SessionID: lr.SessionID}
}

// QueryFilter applies AND operation on the non-empty fields.
type QueryFilter struct {
	StudentID string
	SubjectID string
	TermID    string
	SessionID string
}

func (qf QueryFilter) Match(s Score) bool {
	return (qf.StudentID == "" || s.StudentID == qf.StudentID) &&
		(qf.SubjectID == "" || s.SubjectID == qf.SubjectID) &&
		(qf.TermID == "" || s.TermID == qf.TermID) &&
		(qf.SessionID == "" || s.SessionID == qf.SessionID)
}
