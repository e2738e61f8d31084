package score

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("score not found")
	ErrLocked   = errors.New("score entry is locked for this student/subject")

	errSessionMismatch = "term does not belong to this session"
	errLockNotAllowed  = "your role cannot change the lock"
)

type (
	Repository interface {
		GetScore(ctx context.Context, key Key) (Score, error)
		QueryScores(ctx context.Context, filter QueryFilter) ([]Score, error)
		// QueryRows returns one row per student of the class, ordered by last name.
		QueryRows(ctx context.Context, filter SheetFilter) ([]Row, error)
		// UpsertScore inserts s, or replaces the row with the same key.
		// When the stored row is locked it fails with ErrLocked and changes nothing.
		UpsertScore(ctx context.Context, s Score) (Score, error)
		// SetScoreLock changes the lock state of an existing row, locked or not.
		SetScoreLock(ctx context.Context, key Key, locked bool, updatedBy string, at time.Time) (Score, error)
		// AverageTotal is 0 when there are no scores.
		AverageTotal(ctx context.Context) (float64, error)
	}

	// Auditor records audit logs strictly: its error aborts the surrounding transaction.
	Auditor interface {
		Record(ctx context.Context, actor audit.Actor, action, affectedRecord string) error
	}

	Service struct {
		tx       core.Transactor
		repo     Repository
		schools  school.Repository
		auditor  Auditor
		validate *validator.Validate
		keys     *core.KeyedMutex
	}
)

func NewService(
	tx core.Transactor,
	repo Repository,
	schools school.Repository,
	auditor Auditor,
	validate *validator.Validate,
) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		schools:  schools,
		auditor:  auditor,
		validate: validate,
		keys:     core.NewKeyedMutex(),
	}
}

// Get returns the score sheet of a class: every student, with zero valued rows for missing scores.
func (svc *Service) Get(ctx context.Context, filter SheetFilter) ([]Row, error) {
	if err := filter.Validate(svc.validate); err != nil {
		return nil, err
	}
	if _, err := svc.schools.GetClass(ctx, filter.ClassID); err != nil {
		return nil, err
	}
	if _, err := svc.schools.GetSubject(ctx, filter.SubjectID); err != nil {
		return nil, err
	}
	if _, err := svc.schools.GetTerm(ctx, filter.TermID); err != nil {
		return nil, err
	}

	rows, err := core.RetryRead(ctx, func(ctx context.Context) ([]Row, error) {
		return svc.repo.QueryRows(ctx, filter)
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying score rows")
	}
	return rows, nil
}

// QueryByStudent returns every score of a student for a term, across subjects.
func (svc *Service) QueryByStudent(ctx context.Context, studentID, termID string) ([]Score, error) {
	return core.RetryRead(ctx, func(ctx context.Context) ([]Score, error) {
		return svc.repo.QueryScores(ctx, QueryFilter{StudentID: studentID, TermID: termID})
	})
}

// Upsert creates or replaces the score row of ns.Key(); total and grade are recomputed.
// The write and its audit log commit together. Upserts of the same key never interleave.
func (svc *Service) Upsert(ctx context.Context, actor audit.Actor, ns NewScore) (Score, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Score{}, err
	}
	if ns.IsLocked != nil && !(actor.Role == user.RolePrincipal || actor.Role == user.RoleAdmin) {
		return Score{}, core.NewValidationError(nil, core.FieldError{Field: "is_locked", Error: errLockNotAllowed})
	}
	key, err := svc.resolveKey(ctx, ns.Key())
	if err != nil {
		return Score{}, err
	}
	if _, err = svc.schools.GetStudent(ctx, key.StudentID); err != nil {
		return Score{}, err
	}
	if _, err = svc.schools.GetSubject(ctx, key.SubjectID); err != nil {
		return Score{}, err
	}

	unlock, err := svc.keys.Lock(ctx, key.String())
	if err != nil {
		return Score{}, errors.Wrap(err, "waiting for score key")
	}
	defer unlock()

	var saved Score
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := core.Now()
		s := Score{
			ID:        uuid.NewString(),
			StudentID: key.StudentID,
			SubjectID: key.SubjectID,
			TermID:    key.TermID,
			SessionID: key.SessionID,
			CreatedAt: now,
		}

		existing, err := svc.repo.GetScore(ctx, key)
		switch {
		case err == nil:
			if existing.IsLocked {
				return ErrLocked
			}
			s.ID = existing.ID
			s.CreatedAt = existing.CreatedAt
			s.IsLocked = existing.IsLocked
		case errors.Cause(err) != ErrNotFound:
			return errors.Wrap(err, "finding score")
		}

		s.CA1, s.CA2, s.Assignment, s.Notes, s.Exam = ns.CA1, ns.CA2, ns.Assignment, ns.Notes, ns.Exam
		if ns.IsLocked != nil {
			s.IsLocked = *ns.IsLocked
		}
		s.Compute()
		s.UpdatedBy = actor.UserID
		s.UpdatedAt = now

		if saved, err = svc.repo.UpsertScore(ctx, s); err != nil {
			if errors.Cause(err) == ErrLocked {
				return ErrLocked
			}
			return errors.Wrap(err, "upserting score")
		}
		return svc.auditor.Record(
			ctx, actor, audit.ActionUpdateScore,
			fmt.Sprintf("Updated score for Student %s, Subject %s", key.StudentID, key.SubjectID),
		)
	})
	if err != nil {
		return Score{}, err
	}
	return saved, nil
}

// SetLock locks or unlocks an existing score row.
func (svc *Service) SetLock(ctx context.Context, actor audit.Actor, lr LockRequest, locked bool) (Score, error) {
	if err := lr.Validate(svc.validate); err != nil {
		return Score{}, err
	}
	key, err := svc.resolveKey(ctx, lr.Key())
	if err != nil {
		return Score{}, err
	}

	unlock, err := svc.keys.Lock(ctx, key.String())
	if err != nil {
		return Score{}, errors.Wrap(err, "waiting for score key")
	}
	defer unlock()

	action := audit.ActionUnlockScore
	if locked {
		action = audit.ActionLockScore
	}

	var saved Score
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetScore(ctx, key); err != nil {
			return err
		}
		if saved, err = svc.repo.SetScoreLock(ctx, key, locked, actor.UserID, core.Now()); err != nil {
			return errors.Wrap(err, "setting score lock")
		}
		return svc.auditor.Record(ctx, actor, action, "Score "+key.String())
	})
	if err != nil {
		return Score{}, err
	}
	return saved, nil
}

func (svc *Service) AverageTotal(ctx context.Context) (float64, error) {
	return core.RetryRead(ctx, svc.repo.AverageTotal)
}

// resolveKey checks the term and fills in, or checks, the session it belongs to.
func (svc *Service) resolveKey(ctx context.Context, key Key) (Key, error) {
	term, err := svc.schools.GetTerm(ctx, key.TermID)
	if err != nil {
		return Key{}, err
	}
	if key.SessionID == "" {
		key.SessionID = term.SessionID
	} else if key.SessionID != term.SessionID {
		return Key{}, core.NewValidationError(nil, core.FieldError{Field: "session_id", Error: errSessionMismatch})
	}
	return key, nil
}
