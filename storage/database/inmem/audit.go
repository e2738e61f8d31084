package inmemdb

import (
	"context"

	"github.com/nickiconcept/E-Result-Management-System/core/audit"
)

type auditRepository struct {
	db *auditTable
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) *auditRepository {
	return &auditRepository{db: db.audit}
}

func (repo *auditRepository) CreateLog(ctx context.Context, l audit.Log) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.t = append(repo.db.t, l)
	id := l.ID
	onRollback(ctx, func() {
		repo.db.mutex.Lock()
		defer repo.db.mutex.Unlock()
		for i := len(repo.db.t) - 1; i >= 0; i-- {
			if repo.db.t[i].ID == id {
				repo.db.t = append(repo.db.t[:i], repo.db.t[i+1:]...)
				return
			}
		}
	})
	return nil
}

// QueryLogs walks the table backwards: the last appended log is the newest.
func (repo *auditRepository) QueryLogs(_ context.Context, filter audit.QueryFilter) ([]audit.Log, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	logs := make([]audit.Log, 0)
	for i := len(repo.db.t) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(logs) >= filter.Limit {
			break
		}
		if l := repo.db.t[i]; filter.Match(l) {
			logs = append(logs, l)
		}
	}
	return logs, nil
}
