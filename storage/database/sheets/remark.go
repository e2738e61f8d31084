package sheetsdb

import (
	"context"

	"github.com/nickiconcept/E-Result-Management-System/core/remark"
)

type remarkRepository struct {
	st *Store
}

var _ remark.Repository = (*remarkRepository)(nil) // interface compliance check

func decodeRemark(d *decoder) remark.StudentRemark {
	return remark.StudentRemark{
		StudentID:        d.String("student_id"),
		TermID:           d.String("term_id"),
		SessionID:        d.String("session_id"),
		FormMasterRemark: d.String("form_master_remark"),
		PrincipalRemark:  d.String("principal_remark"),
		UpdatedBy:        d.String("updated_by"),
		UpdatedAt:        d.Time("updated_at"),
	}
}

func remarkOf(studentID, termID string) func(c cells) bool {
	return func(c cells) bool {
		return eq("student_id", studentID)(c) && eq("term_id", termID)(c)
	}
}

func (repo *remarkRepository) GetRemark(ctx context.Context, studentID, termID string) (remark.StudentRemark, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return remark.StudentRemark{}, err
	}
	defer release()

	records, err := repo.st.rows(ctx, remarksTable)
	if err != nil {
		return remark.StudentRemark{}, err
	}
	i := find(records, remarkOf(studentID, termID))
	if i < 0 {
		return remark.StudentRemark{}, remark.ErrNotFound
	}
	return decodeOne(remarksTable, records[i], decodeRemark)
}

func (repo *remarkRepository) SaveRemark(ctx context.Context, r remark.StudentRemark) (remark.StudentRemark, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return remark.StudentRemark{}, err
	}
	defer release()

	records, err := repo.st.rows(ctx, remarksTable)
	if err != nil {
		return remark.StudentRemark{}, err
	}
	c := cells{
		"student_id":         r.StudentID,
		"term_id":            r.TermID,
		"session_id":         r.SessionID,
		"form_master_remark": r.FormMasterRemark,
		"principal_remark":   r.PrincipalRemark,
		"updated_by":         r.UpdatedBy,
		"updated_at":         formatTime(r.UpdatedAt),
	}
	if i := find(records, remarkOf(r.StudentID, r.TermID)); i >= 0 {
		return r, repo.st.update(ctx, remarksTable, records[i].num, c)
	}
	return r, repo.st.insert(ctx, remarksTable, c)
}
