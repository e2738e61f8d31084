package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
)

type scoreRepository struct {
	db      *scoreTable
	schools *schoolRepository
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *DB) *scoreRepository {
	return &scoreRepository{db: db.score, schools: NewSchoolRepository(db)}
}

func (repo *scoreRepository) GetScore(_ context.Context, key score.Key) (score.Score, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if s, ok := repo.db.t[key]; ok {
		return s, nil
	}
	return score.Score{}, score.ErrNotFound
}

func (repo *scoreRepository) QueryScores(_ context.Context, filter score.QueryFilter) ([]score.Score, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(filter), nil
}

func (repo *scoreRepository) query(filter score.QueryFilter) []score.Score {
	scores := make([]score.Score, 0)
	for _, s := range repo.db.t {
		if filter.Match(s) {
			scores = append(scores, s)
		}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].CreatedAt.Before(scores[j].CreatedAt) })
	return scores
}

func (repo *scoreRepository) QueryRows(ctx context.Context, filter score.SheetFilter) ([]score.Row, error) {
	students, err := repo.schools.QueryStudents(ctx, school.StudentFilter{ClassID: filter.ClassID})
	if err != nil {
		return nil, err
	}

	repo.db.mutex.RLock()
	scores := repo.query(score.QueryFilter{SubjectID: filter.SubjectID, TermID: filter.TermID})
	repo.db.mutex.RUnlock()

	return score.JoinRows(students, scores, filter.SubjectID, filter.TermID), nil
}

func (repo *scoreRepository) UpsertScore(ctx context.Context, s score.Score) (score.Score, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := s.Key()
	prev, existed := repo.db.t[key]
	if existed {
		if prev.IsLocked {
			return score.Score{}, score.ErrLocked
		}
		s.ID = prev.ID
		s.CreatedAt = prev.CreatedAt
	}
	repo.db.t[key] = s
	repo.onRollbackRestore(ctx, key, prev, existed)
	return s, nil
}

func (repo *scoreRepository) SetScoreLock(ctx context.Context, key score.Key, locked bool, updatedBy string, at time.Time) (score.Score, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prev, ok := repo.db.t[key]
	if !ok {
		return score.Score{}, score.ErrNotFound
	}
	s := prev
	s.IsLocked = locked
	s.UpdatedBy = updatedBy
	s.UpdatedAt = at
	repo.db.t[key] = s
	repo.onRollbackRestore(ctx, key, prev, true)
	return s, nil
}

func (repo *scoreRepository) AverageTotal(_ context.Context) (float64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if len(repo.db.t) == 0 {
		return 0, nil
	}
	var sum int
	for _, s := range repo.db.t {
		sum += s.Total
	}
	return float64(sum) / float64(len(repo.db.t)), nil
}

func (repo *scoreRepository) onRollbackRestore(ctx context.Context, key score.Key, prev score.Score, existed bool) {
	onRollback(ctx, func() {
		repo.db.mutex.Lock()
		defer repo.db.mutex.Unlock()
		if existed {
			repo.db.t[key] = prev
		} else {
			delete(repo.db.t, key)
		}
	})
}
