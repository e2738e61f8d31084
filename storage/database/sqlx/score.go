package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/nickiconcept/E-Result-Management-System/core/score"
)

type scoreRepository struct {
	st *Store
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

const scoreColumns = `id, student_id, subject_id, term_id, session_id, ca1, ca2, assignment, notes, exam,
	total, grade, is_locked, updated_by, created_at, updated_at`

type scoreRow struct {
	ID         string      `db:"id"`
	StudentID  string      `db:"student_id"`
	SubjectID  string      `db:"subject_id"`
	TermID     string      `db:"term_id"`
	SessionID  string      `db:"session_id"`
	CA1        int         `db:"ca1"`
	CA2        int         `db:"ca2"`
	Assignment int         `db:"assignment"`
	Notes      int         `db:"notes"`
	Exam       int         `db:"exam"`
	Total      int         `db:"total"`
	Grade      string      `db:"grade"`
	IsLocked   bool        `db:"is_locked"`
	UpdatedBy  null.String `db:"updated_by"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func toScoreRow(s score.Score) scoreRow {
	return scoreRow{
		ID:         s.ID,
		StudentID:  s.StudentID,
		SubjectID:  s.SubjectID,
		TermID:     s.TermID,
		SessionID:  s.SessionID,
		CA1:        s.CA1,
		CA2:        s.CA2,
		Assignment: s.Assignment,
		Notes:      s.Notes,
		Exam:       s.Exam,
		Total:      s.Total,
		Grade:      s.Grade,
		IsLocked:   s.IsLocked,
		UpdatedBy:  null.NewString(s.UpdatedBy, s.UpdatedBy != ""),
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
}

func (r scoreRow) score() score.Score {
	return score.Score{
		ID:         r.ID,
		StudentID:  r.StudentID,
		SubjectID:  r.SubjectID,
		TermID:     r.TermID,
		SessionID:  r.SessionID,
		CA1:        r.CA1,
		CA2:        r.CA2,
		Assignment: r.Assignment,
		Notes:      r.Notes,
		Exam:       r.Exam,
		Total:      r.Total,
		Grade:      r.Grade,
		IsLocked:   r.IsLocked,
		UpdatedBy:  r.UpdatedBy.String,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

// GetScore locks the row until the end of the transaction when called inside one.
func (repo *scoreRepository) GetScore(ctx context.Context, key score.Key) (score.Score, error) {
	q := "SELECT " + scoreColumns + ` FROM scores
		WHERE student_id = $1 AND subject_id = $2 AND term_id = $3 AND session_id = $4`
	if inTx(ctx) {
		q += " FOR UPDATE"
	}

	var row scoreRow
	err := repo.st.exec(ctx).GetContext(ctx, &row, q, key.StudentID, key.SubjectID, key.TermID, key.SessionID)
	if err == sql.ErrNoRows {
		return score.Score{}, score.ErrNotFound
	}
	if err != nil {
		return score.Score{}, wrap(err, "selecting score")
	}
	return row.score(), nil
}

func (repo *scoreRepository) QueryScores(ctx context.Context, filter score.QueryFilter) ([]score.Score, error) {
	var (
		conds []string
		args  []interface{}
	)
	for col, val := range map[string]string{
		"student_id": filter.StudentID,
		"subject_id": filter.SubjectID,
		"term_id":    filter.TermID,
		"session_id": filter.SessionID,
	} {
		if val != "" {
			args = append(args, val)
			conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}

	q := "SELECT " + scoreColumns + " FROM scores"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at, id"

	var rows []scoreRow
	if err := repo.st.exec(ctx).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, wrap(err, "selecting scores")
	}
	scores := make([]score.Score, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, r.score())
	}
	return scores, nil
}

func (repo *scoreRepository) QueryRows(ctx context.Context, filter score.SheetFilter) ([]score.Row, error) {
	q := `SELECT st.id AS student_id, st.admission_no, st.first_name, st.last_name,
			COALESCE(sc.id, '') AS score_id,
			COALESCE(sc.ca1, 0) AS ca1, COALESCE(sc.ca2, 0) AS ca2,
			COALESCE(sc.assignment, 0) AS assignment, COALESCE(sc.notes, 0) AS notes,
			COALESCE(sc.exam, 0) AS exam, COALESCE(sc.total, 0) AS total,
			COALESCE(sc.grade, 'F') AS grade, COALESCE(sc.is_locked, false) AS is_locked
		FROM students st
		LEFT JOIN scores sc ON st.id = sc.student_id AND sc.subject_id = $2 AND sc.term_id = $3
		WHERE st.class_id = $1
		ORDER BY st.last_name ASC, st.first_name ASC, st.admission_no ASC`

	rows := make([]score.Row, 0)
	err := repo.st.exec(ctx).SelectContext(ctx, &rows, q, filter.ClassID, filter.SubjectID, filter.TermID)
	return rows, wrap(err, "selecting score rows")
}

// UpsertScore only touches unlocked rows: a locked conflict makes the statement return nothing.
func (repo *scoreRepository) UpsertScore(ctx context.Context, s score.Score) (score.Score, error) {
	q := `INSERT INTO scores (` + scoreColumns + `)
		VALUES (:id, :student_id, :subject_id, :term_id, :session_id, :ca1, :ca2, :assignment, :notes, :exam,
			:total, :grade, :is_locked, :updated_by, :created_at, :updated_at)
		ON CONFLICT (student_id, subject_id, term_id, session_id) DO UPDATE SET
			ca1 = EXCLUDED.ca1, ca2 = EXCLUDED.ca2, assignment = EXCLUDED.assignment,
			notes = EXCLUDED.notes, exam = EXCLUDED.exam, total = EXCLUDED.total, grade = EXCLUDED.grade,
			is_locked = EXCLUDED.is_locked, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
		WHERE scores.is_locked = false
		RETURNING ` + scoreColumns

	exec := repo.st.exec(ctx)
	query, args, err := exec.BindNamed(q, toScoreRow(s))
	if err != nil {
		return score.Score{}, wrap(err, "binding score")
	}

	var row scoreRow
	err = exec.GetContext(ctx, &row, query, args...)
	if err == sql.ErrNoRows {
		return score.Score{}, score.ErrLocked
	}
	if err != nil {
		return score.Score{}, wrap(err, "upserting score")
	}
	return row.score(), nil
}

func (repo *scoreRepository) SetScoreLock(ctx context.Context, key score.Key, locked bool, updatedBy string, at time.Time) (score.Score, error) {
	q := `UPDATE scores SET is_locked = $5, updated_by = $6, updated_at = $7
		WHERE student_id = $1 AND subject_id = $2 AND term_id = $3 AND session_id = $4
		RETURNING ` + scoreColumns

	var row scoreRow
	err := repo.st.exec(ctx).GetContext(
		ctx, &row, q,
		key.StudentID, key.SubjectID, key.TermID, key.SessionID,
		locked, null.NewString(updatedBy, updatedBy != ""), at.UTC(),
	)
	if err == sql.ErrNoRows {
		return score.Score{}, score.ErrNotFound
	}
	if err != nil {
		return score.Score{}, wrap(err, "updating score lock")
	}
	return row.score(), nil
}

func (repo *scoreRepository) AverageTotal(ctx context.Context) (float64, error) {
	var avg float64
	err := repo.st.exec(ctx).GetContext(ctx, &avg, "SELECT COALESCE(AVG(total), 0)::float8 FROM scores")
	return avg, wrap(err, "averaging scores")
}
