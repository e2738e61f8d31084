package school

import (
	"context"

	"github.com/nickiconcept/E-Result-Management-System/core"
)

var (
	// errors
	ErrSessionNotFound = core.NewNotFoundError("session not found")
	ErrTermNotFound    = core.NewNotFoundError("term not found")
	ErrClassNotFound   = core.NewNotFoundError("class not found")
	ErrArmNotFound     = core.NewNotFoundError("arm not found")
	ErrSubjectNotFound = core.NewNotFoundError("subject not found")
	ErrStudentNotFound = core.NewNotFoundError("student not found")
)

type (
	Repository interface {
		GetSession(ctx context.Context, id string) (Session, error)
		GetTerm(ctx context.Context, id string) (Term, error)
		GetClass(ctx context.Context, id string) (Class, error)
		GetArm(ctx context.Context, id string) (Arm, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		GetStudentByAdmissionNo(ctx context.Context, admissionNo string) (Student, error)

		QuerySessions(ctx context.Context) ([]Session, error)
		QueryTerms(ctx context.Context, sessionID string) ([]Term, error)
		QueryClasses(ctx context.Context) ([]Class, error)
		QueryArms(ctx context.Context) ([]Arm, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		// QueryStudents returns students ordered by last name, first name, then admission number.
		QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		CountStudents(ctx context.Context) (int, error)

		// Save* insert the record or replace the one with the same ID.
		SaveSession(ctx context.Context, s Session) error
		SaveTerm(ctx context.Context, t Term) error
		SaveClass(ctx context.Context, c Class) error
		SaveArm(ctx context.Context, a Arm) error
		SaveSubject(ctx context.Context, s Subject) error
		SaveStudent(ctx context.Context, s Student) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetTerm(ctx context.Context, id string) (Term, error) {
	return core.RetryRead(ctx, func(ctx context.Context) (Term, error) {
		return svc.repo.GetTerm(ctx, core.CleanString(id))
	})
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return core.RetryRead(ctx, func(ctx context.Context) (Student, error) {
		return svc.repo.GetStudent(ctx, core.CleanString(id))
	})
}

func (svc *Service) GetStudentByAdmissionNo(ctx context.Context, admissionNo string) (Student, error) {
	return core.RetryRead(ctx, func(ctx context.Context) (Student, error) {
		return svc.repo.GetStudentByAdmissionNo(ctx, NormalizeAdmissionNo(admissionNo))
	})
}

func (svc *Service) QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	if filter.ClassID != "" {
		if _, err := svc.repo.GetClass(ctx, filter.ClassID); err != nil {
			return nil, err
		}
	}
	return core.RetryRead(ctx, func(ctx context.Context) ([]Student, error) {
		return svc.repo.QueryStudents(ctx, filter)
	})
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	return core.RetryRead(ctx, svc.repo.QueryClasses)
}

func (svc *Service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return core.RetryRead(ctx, svc.repo.QuerySubjects)
}

func (svc *Service) QuerySessions(ctx context.Context) ([]Session, error) {
	return core.RetryRead(ctx, svc.repo.QuerySessions)
}

func (svc *Service) CountStudents(ctx context.Context) (int, error) {
	return core.RetryRead(ctx, svc.repo.CountStudents)
}

// Fixtures is reference data loaded in one go (admin seed command, dev memory store).
type Fixtures struct {
	Sessions []Session
	Terms    []Term
	Classes  []Class
	Arms     []Arm
	Subjects []Subject
	Students []Student
}

// Seed saves every fixture; existing records with the same IDs are replaced.
func (svc *Service) Seed(ctx context.Context, fx Fixtures) error {
	for _, s := range fx.Sessions {
		if err := svc.repo.SaveSession(ctx, s); err != nil {
			return err
		}
	}
	for _, t := range fx.Terms {
		if err := svc.repo.SaveTerm(ctx, t); err != nil {
			return err
		}
	}
	for _, c := range fx.Classes {
		if err := svc.repo.SaveClass(ctx, c); err != nil {
			return err
		}
	}
	for _, a := range fx.Arms {
		if err := svc.repo.SaveArm(ctx, a); err != nil {
			return err
		}
	}
	for _, s := range fx.Subjects {
		if err := svc.repo.SaveSubject(ctx, s); err != nil {
			return err
		}
	}
	for _, s := range fx.Students {
		s.AdmissionNo = NormalizeAdmissionNo(s.AdmissionNo)
		if err := svc.repo.SaveStudent(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
