package sheetsdb

import (
	"context"
	"sort"
	"time"

	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
)

type scoreRepository struct {
	st *Store
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func scoreCells(s score.Score) cells {
	return cells{
		"id":         s.ID,
		"student_id": s.StudentID,
		"subject_id": s.SubjectID,
		"term_id":    s.TermID,
		"session_id": s.SessionID,
		"ca1":        s.CA1,
		"ca2":        s.CA2,
		"assignment": s.Assignment,
		"notes":      s.Notes,
		"exam":       s.Exam,
		"total":      s.Total,
		"grade":      s.Grade,
		"is_locked":  s.IsLocked,
		"updated_by": s.UpdatedBy,
		"created_at": formatTime(s.CreatedAt),
		"updated_at": formatTime(s.UpdatedAt),
	}
}

func decodeScore(d *decoder) score.Score {
	return score.Score{
		ID:         d.String("id"),
		StudentID:  d.String("student_id"),
		SubjectID:  d.String("subject_id"),
		TermID:     d.String("term_id"),
		SessionID:  d.String("session_id"),
		CA1:        d.Int("ca1"),
		CA2:        d.Int("ca2"),
		Assignment: d.Int("assignment"),
		Notes:      d.Int("notes"),
		Exam:       d.Int("exam"),
		Total:      d.Int("total"),
		Grade:      d.String("grade"),
		IsLocked:   d.Bool("is_locked"),
		UpdatedBy:  d.String("updated_by"),
		CreatedAt:  d.Time("created_at"),
		UpdatedAt:  d.Time("updated_at"),
	}
}

func keyOf(key score.Key) func(c cells) bool {
	return func(c cells) bool {
		return eq("student_id", key.StudentID)(c) &&
			eq("subject_id", key.SubjectID)(c) &&
			eq("term_id", key.TermID)(c) &&
			eq("session_id", key.SessionID)(c)
	}
}

// lookup returns the rows of the table and the index of key's row, or -1. The caller holds the lock.
func (repo *scoreRepository) lookup(ctx context.Context, key score.Key) ([]record, int, error) {
	records, err := repo.st.rows(ctx, scoresTable)
	if err != nil {
		return nil, -1, err
	}
	return records, find(records, keyOf(key)), nil
}

func (repo *scoreRepository) GetScore(ctx context.Context, key score.Key) (score.Score, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return score.Score{}, err
	}
	defer release()

	records, i, err := repo.lookup(ctx, key)
	if err != nil {
		return score.Score{}, err
	}
	if i < 0 {
		return score.Score{}, score.ErrNotFound
	}
	return decodeOne(scoresTable, records[i], decodeScore)
}

func (repo *scoreRepository) QueryScores(ctx context.Context, filter score.QueryFilter) ([]score.Score, error) {
	all, err := listAll(ctx, repo.st, scoresTable, decodeScore)
	if err != nil {
		return nil, err
	}
	scores := make([]score.Score, 0, len(all))
	for _, s := range all {
		if filter.Match(s) {
			scores = append(scores, s)
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].CreatedAt.Before(scores[j].CreatedAt) })
	return scores, nil
}

func (repo *scoreRepository) QueryRows(ctx context.Context, filter score.SheetFilter) ([]score.Row, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	studentRecords, err := repo.st.rows(ctx, studentsTable)
	if err != nil {
		return nil, err
	}
	all, err := decodeAll(studentsTable, studentRecords, decodeStudent)
	if err != nil {
		return nil, err
	}
	students := make([]school.Student, 0, len(all))
	for _, s := range all {
		if s.ClassID == filter.ClassID {
			students = append(students, s)
		}
	}

	scoreRecords, err := repo.st.rows(ctx, scoresTable)
	if err != nil {
		return nil, err
	}
	scores, err := decodeAll(scoresTable, scoreRecords, decodeScore)
	if err != nil {
		return nil, err
	}
	return score.JoinRows(students, scores, filter.SubjectID, filter.TermID), nil
}

func (repo *scoreRepository) UpsertScore(ctx context.Context, s score.Score) (score.Score, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return score.Score{}, err
	}
	defer release()

	records, i, err := repo.lookup(ctx, s.Key())
	if err != nil {
		return score.Score{}, err
	}
	if i < 0 {
		return s, repo.st.insert(ctx, scoresTable, scoreCells(s))
	}

	stored, err := decodeOne(scoresTable, records[i], decodeScore)
	if err != nil {
		return score.Score{}, err
	}
	if stored.IsLocked {
		return score.Score{}, score.ErrLocked
	}
	return s, repo.st.update(ctx, scoresTable, records[i].num, scoreCells(s))
}

func (repo *scoreRepository) SetScoreLock(ctx context.Context, key score.Key, locked bool, updatedBy string, at time.Time) (score.Score, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return score.Score{}, err
	}
	defer release()

	records, i, err := repo.lookup(ctx, key)
	if err != nil {
		return score.Score{}, err
	}
	if i < 0 {
		return score.Score{}, score.ErrNotFound
	}
	s, err := decodeOne(scoresTable, records[i], decodeScore)
	if err != nil {
		return score.Score{}, err
	}
	s.IsLocked, s.UpdatedBy, s.UpdatedAt = locked, updatedBy, at.UTC()
	return s, repo.st.update(ctx, scoresTable, records[i].num, scoreCells(s))
}

func (repo *scoreRepository) AverageTotal(ctx context.Context) (float64, error) {
	scores, err := listAll(ctx, repo.st, scoresTable, decodeScore)
	if err != nil || len(scores) == 0 {
		return 0, err
	}
	sum := 0
	for _, s := range scores {
		sum += s.Total
	}
	return float64(sum) / float64(len(scores)), nil
}
