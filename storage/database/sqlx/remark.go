package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/nickiconcept/E-Result-Management-System/core/remark"
)

type remarkRepository struct {
	st *Store
}

var _ remark.Repository = (*remarkRepository)(nil) // interface compliance check

const remarkColumns = "student_id, term_id, session_id, form_master_remark, principal_remark, updated_by, updated_at"

type remarkRow struct {
	StudentID        string      `db:"student_id"`
	TermID           string      `db:"term_id"`
	SessionID        string      `db:"session_id"`
	FormMasterRemark string      `db:"form_master_remark"`
	PrincipalRemark  string      `db:"principal_remark"`
	UpdatedBy        null.String `db:"updated_by"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func (r remarkRow) remark() remark.StudentRemark {
	return remark.StudentRemark{
		StudentID:        r.StudentID,
		TermID:           r.TermID,
		SessionID:        r.SessionID,
		FormMasterRemark: r.FormMasterRemark,
		PrincipalRemark:  r.PrincipalRemark,
		UpdatedBy:        r.UpdatedBy.String,
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func (repo *remarkRepository) GetRemark(ctx context.Context, studentID, termID string) (remark.StudentRemark, error) {
	var row remarkRow
	err := repo.st.exec(ctx).GetContext(
		ctx, &row,
		"SELECT "+remarkColumns+" FROM student_remarks WHERE student_id = $1 AND term_id = $2",
		studentID, termID,
	)
	if err == sql.ErrNoRows {
		return remark.StudentRemark{}, remark.ErrNotFound
	}
	if err != nil {
		return remark.StudentRemark{}, wrap(err, "selecting remark")
	}
	return row.remark(), nil
}

func (repo *remarkRepository) SaveRemark(ctx context.Context, r remark.StudentRemark) (remark.StudentRemark, error) {
	row := remarkRow{
		StudentID:        r.StudentID,
		TermID:           r.TermID,
		SessionID:        r.SessionID,
		FormMasterRemark: r.FormMasterRemark,
		PrincipalRemark:  r.PrincipalRemark,
		UpdatedBy:        null.NewString(r.UpdatedBy, r.UpdatedBy != ""),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	q := `INSERT INTO student_remarks (` + remarkColumns + `)
		VALUES (:student_id, :term_id, :session_id, :form_master_remark, :principal_remark, :updated_by, :updated_at)
		ON CONFLICT (student_id, term_id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			form_master_remark = EXCLUDED.form_master_remark,
			principal_remark = EXCLUDED.principal_remark,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`
	if _, err := repo.st.exec(ctx).NamedExecContext(ctx, q, row); err != nil {
		return remark.StudentRemark{}, wrap(err, "saving remark")
	}
	return row.remark(), nil
}
