package sheetsdb

import (
	"context"

	"github.com/nickiconcept/E-Result-Management-System/core/audit"
)

type auditRepository struct {
	st *Store
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func decodeLog(d *decoder) audit.Log {
	return audit.Log{
		ID:             d.String("id"),
		UserID:         d.String("user_id"),
		UserRole:       d.String("user_role"),
		Action:         d.String("action"),
		AffectedRecord: d.String("affected_record"),
		Timestamp:      d.Time("timestamp"),
		IPAddress:      d.String("ip_address"),
	}
}

func (repo *auditRepository) CreateLog(ctx context.Context, l audit.Log) error {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return repo.st.insert(ctx, auditTable, cells{
		"id":              l.ID,
		"user_id":         l.UserID,
		"user_role":       l.UserRole,
		"action":          l.Action,
		"affected_record": l.AffectedRecord,
		"timestamp":       formatTime(l.Timestamp),
		"ip_address":      l.IPAddress,
	})
}

// QueryLogs walks the tab bottom up: rows are appended, so the last one is the newest.
func (repo *auditRepository) QueryLogs(ctx context.Context, filter audit.QueryFilter) ([]audit.Log, error) {
	all, err := listAll(ctx, repo.st, auditTable, decodeLog)
	if err != nil {
		return nil, err
	}
	logs := make([]audit.Log, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(logs) >= filter.Limit {
			break
		}
		if filter.Match(all[i]) {
			logs = append(logs, all[i])
		}
	}
	return logs, nil
}
