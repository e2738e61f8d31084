package pin

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
)

// ResultPin grants a parent a bounded number of report card views for one student and term.
type ResultPin struct {
	ID         string    `json:"id" db:"id"`
	Pin        string    `json:"pin" db:"pin"`
	StudentID  string    `json:"student_id" db:"student_id"`
	TermID     string    `json:"term_id" db:"term_id"`
	UsageCount int       `json:"usage_count" db:"usage_count"`
	MaxUsage   int       `json:"max_usage" db:"max_usage"`
	ExpiryDate time.Time `json:"expiry_date" db:"expiry_date"` // UTC
	CreatedAt  time.Time `json:"created_at" db:"created_at"`   // UTC
}

func (p ResultPin) Exhausted() bool {
	return p.UsageCount >= p.MaxUsage
}

func (p ResultPin) Expired(now time.Time) bool {
	return !now.Before(p.ExpiryDate)
}

// Select picks, among the pins matching a (pin, student) lookup, the one a check consumes:
// the oldest pin neither exhausted nor expired. It classifies the failure otherwise.
// Backends call it while holding whatever guards the pins against concurrent consumption.
func Select(matches []ResultPin, now time.Time) (int, error) {
	if len(matches) == 0 {
		return -1, ErrInvalidPin
	}
	order := make([]int, len(matches))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return matches[order[i]].CreatedAt.Before(matches[order[j]].CreatedAt)
	})

	err := ErrPinExhausted
	for _, i := range order {
		p := matches[i]
		if p.Exhausted() {
			continue
		}
		if p.Expired(now) {
			err = ErrPinExpired
			continue
		}
		return i, nil
	}
	return -1, err
}

// CheckRequest is what a parent submits to see a report card.
type CheckRequest struct {
	AdmissionNo string `json:"admission_no" validate:"required,notblank"`
	Pin         string `json:"pin" validate:"required,digits10"`
}

func (cr *CheckRequest) Validate(validate *validator.Validate) error {
	cr.AdmissionNo = school.NormalizeAdmissionNo(cr.AdmissionNo)
	cr.Pin = core.CleanString(cr.Pin)
	return validate.Struct(cr)
}

// GenerateRequest asks for one fresh pin per student, or per student of ClassID when StudentIDs is empty.
type GenerateRequest struct {
	StudentIDs []string `json:"student_ids" validate:"dive,required"`
	ClassID    string   `json:"class_id"`
	TermID     string   `json:"term_id" validate:"required"`
}

func (gr *GenerateRequest) Validate(validate *validator.Validate) error {
	gr.ClassID = core.CleanString(gr.ClassID)
	gr.TermID = core.CleanString(gr.TermID)
	for i, id := range gr.StudentIDs {
		gr.StudentIDs[i] = core.CleanString(id)
	}
	if err := validate.Struct(gr); err != nil {
		return err
	}
	if len(gr.StudentIDs) == 0 && gr.ClassID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "student_ids", Error: "one of student_ids or class_id is required"})
	}
	return nil
}

// QueryFilter applies AND operation on the non-empty fields.
type QueryFilter struct {
	Pin       string `query:"pin"`
	StudentID string `query:"student_id"`
	TermID    string `query:"term_id"`
}

func (qf QueryFilter) Match(p ResultPin) bool {
	return (qf.Pin == "" || p.Pin == qf.Pin) &&
		(qf.StudentID == "" || p.StudentID == qf.StudentID) &&
		(qf.TermID == "" || p.TermID == qf.TermID)
}

// ReportRow is one subject line of a report card.
type ReportRow struct {
	Subject string `json:"subject"`
	CA      int    `json:"ca"`
	Exam    int    `json:"exam"`
	Total   int    `json:"total"`
	Grade   string `json:"grade"`
}

type Remarks struct {
	FormMaster string `json:"form_master"`
	Principal  string `json:"principal"`
}

type ReportCard struct {
	Student  school.Student `json:"student"`
	Class    string         `json:"class"`
	Arm      string         `json:"arm"`
	Term     string         `json:"term"`
	Session  string         `json:"session"`
	Scores   []ReportRow    `json:"scores"`
	Average  float64        `json:"average"`
	Remarks  Remarks        `json:"remarks"`
	UsesLeft int            `json:"uses_left"`
}
