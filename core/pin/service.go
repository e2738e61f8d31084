package pin

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
)

var (
	// errors
	ErrInvalidPin      = errors.New("invalid pin")
	ErrPinExhausted    = errors.New("pin usage limit reached")
	ErrPinExpired      = errors.New("pin has expired")
	ErrStudentNotFound = school.ErrStudentNotFound

	// NewPinFunc draws a random 10 digit pin. Mockable.
	NewPinFunc = randomPin

	pinLow  = big.NewInt(1_000_000_000)
	pinSpan = big.NewInt(9_000_000_000)
)

const (
	DefaultMaxUsage = 5
	DefaultValidity = 90 * 24 * time.Hour
)

type (
	Repository interface {
		// CreatePins appends pins; existing pins are never replaced.
		CreatePins(ctx context.Context, pins []ResultPin) error
		// QueryPins returns pins oldest first.
		QueryPins(ctx context.Context, filter QueryFilter) ([]ResultPin, error)
		// ConsumePin atomically finds the pin Select picks among those matching (pin, studentID)
		// and increments its usage count. It returns the pin after the increment, or the error of Select.
		ConsumePin(ctx context.Context, pin, studentID string, now time.Time) (ResultPin, error)
	}

	Service struct {
		repo     Repository
		schools  school.Repository
		scores   score.Repository
		remarks  remark.Repository
		audit    *audit.Service
		validate *validator.Validate
		maxUsage int
		validity time.Duration
	}
)

func NewService(
	repo Repository,
	schools school.Repository,
	scores score.Repository,
	remarks remark.Repository,
	auditSvc *audit.Service,
	validate *validator.Validate,
	conf core.PinsConfig,
) *Service {
	svc := &Service{
		repo:     repo,
		schools:  schools,
		scores:   scores,
		remarks:  remarks,
		audit:    auditSvc,
		validate: validate,
		maxUsage: conf.MaxUsage,
		validity: conf.Validity,
	}
	if svc.maxUsage <= 0 {
		svc.maxUsage = DefaultMaxUsage
	}
	if svc.validity <= 0 {
		svc.validity = DefaultValidity
	}
	return svc
}

// CheckResult consumes one use of a pin and returns the report card of the term the pin was issued for.
func (svc *Service) CheckResult(ctx context.Context, actor audit.Actor, cr CheckRequest) (ReportCard, error) {
	if err := cr.Validate(svc.validate); err != nil {
		return ReportCard{}, err
	}
	student, err := core.RetryRead(ctx, func(ctx context.Context) (school.Student, error) {
		return svc.schools.GetStudentByAdmissionNo(ctx, cr.AdmissionNo)
	})
	if err != nil {
		return ReportCard{}, err
	}

	p, err := svc.repo.ConsumePin(ctx, cr.Pin, student.ID, core.Now())
	if err != nil {
		return ReportCard{}, err
	}

	card, err := svc.reportCard(ctx, student, p.TermID)
	if err != nil {
		return ReportCard{}, errors.Wrap(err, "building report card")
	}
	card.UsesLeft = p.MaxUsage - p.UsageCount

	svc.audit.Log(ctx, actor, audit.ActionCheckResult, fmt.Sprintf("Result of Student %s, Term %s", student.ID, p.TermID))
	return card, nil
}

func (svc *Service) reportCard(ctx context.Context, student school.Student, termID string) (ReportCard, error) {
	card := ReportCard{Student: student, Scores: []ReportRow{}}

	term, err := core.RetryRead(ctx, func(ctx context.Context) (school.Term, error) {
		return svc.schools.GetTerm(ctx, termID)
	})
	if err != nil {
		return ReportCard{}, err
	}
	card.Term = term.Name
	if sess, err := svc.schools.GetSession(ctx, term.SessionID); err == nil {
		card.Session = sess.Name
	}
	if cls, err := svc.schools.GetClass(ctx, student.ClassID); err == nil {
		card.Class = cls.Name
	}
	if arm, err := svc.schools.GetArm(ctx, student.ArmID); err == nil {
		card.Arm = arm.Name
	}

	scores, err := core.RetryRead(ctx, func(ctx context.Context) ([]score.Score, error) {
		return svc.scores.QueryScores(ctx, score.QueryFilter{StudentID: student.ID, TermID: termID})
	})
	if err != nil {
		return ReportCard{}, err
	}
	subjects, err := core.RetryRead(ctx, svc.schools.QuerySubjects)
	if err != nil {
		return ReportCard{}, err
	}
	card.Scores = reportRows(scores, subjects)

	if len(card.Scores) > 0 {
		var sum int
		for _, row := range card.Scores {
			sum += row.Total
		}
		card.Average = math.Round(float64(sum)/float64(len(card.Scores))*10) / 10
	}

	rmk, err := svc.remarks.GetRemark(ctx, student.ID, termID)
	switch {
	case err == nil:
		card.Remarks = Remarks{FormMaster: rmk.FormMasterRemark, Principal: rmk.PrincipalRemark}
	case errors.Cause(err) != remark.ErrNotFound:
		return ReportCard{}, err
	}
	return card, nil
}

// reportRows lists scores in subject order; scores of unknown subjects come last under their ID.
func reportRows(scores []score.Score, subjects []school.Subject) []ReportRow {
	bySubject := make(map[string]score.Score, len(scores))
	for _, s := range scores {
		bySubject[s.SubjectID] = s
	}
	rows := make([]ReportRow, 0, len(scores))
	row := func(name string, s score.Score) ReportRow {
		return ReportRow{Subject: name, CA: s.CA(), Exam: s.Exam, Total: s.Total, Grade: s.Grade}
	}
	for _, sub := range subjects {
		if s, ok := bySubject[sub.ID]; ok {
			rows = append(rows, row(sub.Name, s))
			delete(bySubject, sub.ID)
		}
	}
	for _, s := range scores {
		if _, ok := bySubject[s.SubjectID]; ok {
			rows = append(rows, row(s.SubjectID, s))
		}
	}
	return rows
}

// Generate creates one fresh pin per student. Pins issued earlier for the same student and term stay valid.
func (svc *Service) Generate(ctx context.Context, actor audit.Actor, gr GenerateRequest) ([]ResultPin, error) {
	if err := gr.Validate(svc.validate); err != nil {
		return nil, err
	}
	if _, err := svc.schools.GetTerm(ctx, gr.TermID); err != nil {
		return nil, err
	}

	studentIDs := gr.StudentIDs
	if len(studentIDs) == 0 {
		students, err := svc.classStudents(ctx, gr.ClassID)
		if err != nil {
			return nil, err
		}
		for _, st := range students {
			studentIDs = append(studentIDs, st.ID)
		}
	} else {
		for _, id := range studentIDs {
			if _, err := svc.schools.GetStudent(ctx, id); err != nil {
				return nil, err
			}
		}
	}

	now := core.Now()
	pins := make([]ResultPin, 0, len(studentIDs))
	for _, id := range studentIDs {
		value, err := NewPinFunc()
		if err != nil {
			return nil, errors.Wrap(err, "drawing pin")
		}
		pins = append(pins, ResultPin{
			ID:         uuid.NewString(),
			Pin:        value,
			StudentID:  id,
			TermID:     gr.TermID,
			UsageCount: 0,
			MaxUsage:   svc.maxUsage,
			ExpiryDate: now.Add(svc.validity),
			CreatedAt:  now,
		})
	}
	if len(pins) == 0 {
		return pins, nil
	}
	if err := svc.repo.CreatePins(ctx, pins); err != nil {
		return nil, errors.Wrap(err, "inserting pins")
	}

	svc.audit.Log(ctx, actor, audit.ActionGeneratePins, fmt.Sprintf("Generated %d pins for Term %s", len(pins), gr.TermID))
	return pins, nil
}

// GenerateForClass creates one fresh pin per student of the class.
func (svc *Service) GenerateForClass(ctx context.Context, actor audit.Actor, classID, termID string) ([]ResultPin, error) {
	return svc.Generate(ctx, actor, GenerateRequest{ClassID: classID, TermID: termID})
}

func (svc *Service) classStudents(ctx context.Context, classID string) ([]school.Student, error) {
	if _, err := svc.schools.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	return core.RetryRead(ctx, func(ctx context.Context) ([]school.Student, error) {
		return svc.schools.QueryStudents(ctx, school.StudentFilter{ClassID: classID})
	})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]ResultPin, error) {
	return core.RetryRead(ctx, func(ctx context.Context) ([]ResultPin, error) {
		return svc.repo.QueryPins(ctx, filter)
	})
}

func randomPin() (string, error) {
	n, err := rand.Int(rand.Reader, pinSpan)
	if err != nil {
		return "", err
	}
	return n.Add(n, pinLow).String(), nil
}
