package inmemdb

import (
	"context"

	"github.com/nickiconcept/E-Result-Management-System/core/remark"
)

type remarkRepository struct {
	db *remarkTable
}

var _ remark.Repository = (*remarkRepository)(nil) // interface compliance check

func NewRemarkRepository(db *DB) *remarkRepository {
	return &remarkRepository{db: db.remark}
}

func (repo *remarkRepository) GetRemark(_ context.Context, studentID, termID string) (remark.StudentRemark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if r, ok := repo.db.t[remarkKey{studentID: studentID, termID: termID}]; ok {
		return r, nil
	}
	return remark.StudentRemark{}, remark.ErrNotFound
}

func (repo *remarkRepository) SaveRemark(ctx context.Context, r remark.StudentRemark) (remark.StudentRemark, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := remarkKey{studentID: r.StudentID, termID: r.TermID}
	prev, existed := repo.db.t[key]
	repo.db.t[key] = r
	onRollback(ctx, func() {
		repo.db.mutex.Lock()
		defer repo.db.mutex.Unlock()
		if existed {
			repo.db.t[key] = prev
		} else {
			delete(repo.db.t, key)
		}
	})
	return r, nil
}
