// Package remark holds the form master and principal remarks printed on report cards.
package remark

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

// FallbackRemark is used whenever a drafted remark cannot be produced.
const FallbackRemark = "Maintains a good steady pace in academic performance."

var (
	// errors
	ErrNotFound = core.NewNotFoundError("remark not found")

	errNotYourRemark = "your role cannot write this remark"
)

type StudentRemark struct {
	StudentID        string    `json:"student_id" db:"student_id"`
	TermID           string    `json:"term_id" db:"term_id"`
	SessionID        string    `json:"session_id" db:"session_id"`
	FormMasterRemark string    `json:"form_master_remark" db:"form_master_remark"`
	PrincipalRemark  string    `json:"principal_remark" db:"principal_remark"`
	UpdatedBy        string    `json:"updated_by" db:"updated_by"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// UpdateRemark sets one or both remarks of a student for a term; nil fields are left unchanged.
type UpdateRemark struct {
	StudentID        string  `json:"student_id" validate:"required"`
	TermID           string  `json:"term_id" validate:"required"`
	FormMasterRemark *string `json:"form_master_remark" validate:"omitempty,max=500"`
	PrincipalRemark  *string `json:"principal_remark" validate:"omitempty,max=500"`
}

func (ur *UpdateRemark) Validate(validate *validator.Validate) error {
	ur.StudentID = core.CleanString(ur.StudentID)
	ur.TermID = core.CleanString(ur.TermID)
	return validate.Struct(ur)
}

// DraftRequest asks for a generated remark.
type DraftRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	TermID    string `json:"term_id" validate:"required"`
}

// Prompt is what a Writer gets to draft a remark.
type Prompt struct {
	StudentName string
	Performance string
	Perspective string // "Form Master" or "Principal"
}

type (
	Repository interface {
		GetRemark(ctx context.Context, studentID, termID string) (StudentRemark, error)
		// SaveRemark inserts r or replaces the remark of the same student and term.
		SaveRemark(ctx context.Context, r StudentRemark) (StudentRemark, error)
	}

	// Writer drafts a remark, eg. with a generative model.
	Writer interface {
		WriteRemark(ctx context.Context, p Prompt) (string, error)
	}

	Service struct {
		tx       core.Transactor
		repo     Repository
		schools  school.Repository
		scores   score.Repository
		auditor  score.Auditor
		writer   Writer
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(
	tx core.Transactor,
	repo Repository,
	schools school.Repository,
	scores score.Repository,
	auditor score.Auditor,
	writer Writer,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		schools:  schools,
		scores:   scores,
		auditor:  auditor,
		writer:   writer,
		validate: validate,
		logger:   logger,
	}
}

func (svc *Service) Get(ctx context.Context, studentID, termID string) (StudentRemark, error) {
	return core.RetryRead(ctx, func(ctx context.Context) (StudentRemark, error) {
		return svc.repo.GetRemark(ctx, studentID, termID)
	})
}

// Save writes remarks: a form master writes the form master remark, a principal the principal remark,
// an admin either.
func (svc *Service) Save(ctx context.Context, actor audit.Actor, ur UpdateRemark) (StudentRemark, error) {
	if err := ur.Validate(svc.validate); err != nil {
		return StudentRemark{}, err
	}
	if ur.FormMasterRemark != nil && !(actor.Role == user.RoleFormMaster || actor.Role == user.RoleAdmin) {
		return StudentRemark{}, core.NewValidationError(nil, core.FieldError{Field: "form_master_remark", Error: errNotYourRemark})
	}
	if ur.PrincipalRemark != nil && !(actor.Role == user.RolePrincipal || actor.Role == user.RoleAdmin) {
		return StudentRemark{}, core.NewValidationError(nil, core.FieldError{Field: "principal_remark", Error: errNotYourRemark})
	}

	if _, err := svc.schools.GetStudent(ctx, ur.StudentID); err != nil {
		return StudentRemark{}, err
	}
	term, err := svc.schools.GetTerm(ctx, ur.TermID)
	if err != nil {
		return StudentRemark{}, err
	}

	var saved StudentRemark
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		r, err := svc.repo.GetRemark(ctx, ur.StudentID, ur.TermID)
		if err != nil {
			if errors.Cause(err) != ErrNotFound {
				return errors.Wrap(err, "finding remark")
			}
			r = StudentRemark{StudentID: ur.StudentID, TermID: ur.TermID, SessionID: term.SessionID}
		}
		if ur.FormMasterRemark != nil {
			r.FormMasterRemark = strings.TrimSpace(*ur.FormMasterRemark)
		}
		if ur.PrincipalRemark != nil {
			r.PrincipalRemark = strings.TrimSpace(*ur.PrincipalRemark)
		}
		r.UpdatedBy = actor.UserID
		r.UpdatedAt = core.Now()

		if saved, err = svc.repo.SaveRemark(ctx, r); err != nil {
			return errors.Wrap(err, "saving remark")
		}
		return svc.auditor.Record(ctx, actor, audit.ActionSaveRemark, fmt.Sprintf("Remark for Student %s, Term %s", r.StudentID, r.TermID))
	})
	if err != nil {
		return StudentRemark{}, err
	}
	return saved, nil
}

// Draft proposes a remark for the student's term performance from the point of view of role.
// It never fails because of the writer: FallbackRemark is returned instead.
func (svc *Service) Draft(ctx context.Context, dr DraftRequest, role string) (string, error) {
	if err := svc.validate.Struct(dr); err != nil {
		return "", err
	}
	student, err := svc.schools.GetStudent(ctx, dr.StudentID)
	if err != nil {
		return "", err
	}
	scores, err := core.RetryRead(ctx, func(ctx context.Context) ([]score.Score, error) {
		return svc.scores.QueryScores(ctx, score.QueryFilter{StudentID: dr.StudentID, TermID: dr.TermID})
	})
	if err != nil {
		return "", errors.Wrap(err, "querying scores")
	}
	subjects, err := svc.schools.QuerySubjects(ctx)
	if err != nil {
		return "", errors.Wrap(err, "querying subjects")
	}

	perspective := "Form Master"
	if role == user.RolePrincipal {
		perspective = "Principal"
	}
	prompt := Prompt{
		StudentName: student.FullName(),
		Performance: summarize(scores, subjects),
		Perspective: perspective,
	}

	if svc.writer == nil {
		return FallbackRemark, nil
	}
	text, err := svc.writer.WriteRemark(ctx, prompt)
	if err != nil {
		svc.logger.Warn("drafting remark failed", err, map[string]interface{}{"student_id": student.ID})
		return FallbackRemark, nil
	}
	if text = strings.TrimSpace(text); text == "" {
		return FallbackRemark, nil
	}
	return text, nil
}

// summarize renders scores as "Mathematics: 85 (A), English Language: 62 (B)" in subject order.
func summarize(scores []score.Score, subjects []school.Subject) string {
	bySubject := make(map[string]score.Score, len(scores))
	for _, s := range scores {
		bySubject[s.SubjectID] = s
	}
	parts := make([]string, 0, len(scores))
	for _, sub := range subjects {
		if s, ok := bySubject[sub.ID]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d (%s)", sub.Name, s.Total, s.Grade))
		}
	}
	if len(parts) == 0 {
		return "no scores recorded yet"
	}
	return strings.Join(parts, ", ")
}
