package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/nickiconcept/E-Result-Management-System/core/audit"
)

type auditRepository struct {
	st *Store
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

const auditColumns = "id, user_id, user_role, action, affected_record, timestamp, ip_address"

func (repo *auditRepository) CreateLog(ctx context.Context, l audit.Log) error {
	l.Timestamp = l.Timestamp.UTC()
	q := `INSERT INTO audit_logs (` + auditColumns + `)
		VALUES (:id, :user_id, :user_role, :action, :affected_record, :timestamp, :ip_address)`
	_, err := repo.st.exec(ctx).NamedExecContext(ctx, q, l)
	return wrap(err, "inserting audit log")
}

// QueryLogs breaks timestamp ties with the insertion sequence.
func (repo *auditRepository) QueryLogs(ctx context.Context, filter audit.QueryFilter) ([]audit.Log, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}

	q := "SELECT " + auditColumns + " FROM audit_logs"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY timestamp DESC, seq DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	logs := make([]audit.Log, 0)
	if err := repo.st.exec(ctx).SelectContext(ctx, &logs, q, args...); err != nil {
		return nil, wrap(err, "selecting audit logs")
	}
	for i := range logs {
		logs[i].Timestamp = logs[i].Timestamp.UTC()
	}
	return logs, nil
}
