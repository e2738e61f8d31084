// Package audit keeps the append-only trail of sensitive actions.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
)

// Actions
const (
	ActionLogin        = "LOGIN"
	ActionUpdateScore  = "UPDATE_SCORE"
	ActionLockScore    = "LOCK_SCORE"
	ActionUnlockScore  = "UNLOCK_SCORE"
	ActionGeneratePins = "GENERATE_PINS"
	ActionCheckResult  = "CHECK_RESULT"
	ActionCreateUser   = "CREATE_USER"
	ActionSaveRemark   = "SAVE_REMARK"
)

const defaultLimit = 100

type Log struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	UserRole       string    `json:"user_role" db:"user_role"`
	Action         string    `json:"action" db:"action"`
	AffectedRecord string    `json:"affected_record" db:"affected_record"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"` // UTC
	IPAddress      string    `json:"ip_address" db:"ip_address"`
}

// Actor is whoever performs an audited action.
type Actor struct {
	UserID    string
	Role      string
	IPAddress string
}

type QueryFilter struct {
	UserID string `query:"user_id"`
	Action string `query:"action"`
	Limit  int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.UserID = core.CleanString(qf.UserID)
	qf.Action = core.CleanString(qf.Action)
	if qf.Limit <= 0 {
		qf.Limit = defaultLimit
	}
}

func (qf QueryFilter) Match(l Log) bool {
	return (qf.UserID == "" || l.UserID == qf.UserID) && (qf.Action == "" || l.Action == qf.Action)
}

type (
	Repository interface {
		CreateLog(ctx context.Context, l Log) error
		// QueryLogs returns at most filter.Limit logs, newest first.
		QueryLogs(ctx context.Context, filter QueryFilter) ([]Log, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func NewLog(actor Actor, action, affectedRecord string) Log {
	return Log{
		ID:             uuid.NewString(),
		UserID:         actor.UserID,
		UserRole:       actor.Role,
		Action:         action,
		AffectedRecord: affectedRecord,
		Timestamp:      core.Now(),
		IPAddress:      actor.IPAddress,
	}
}

// Record appends a log entry and reports failures. Use it inside a transaction
// when the entry must commit or roll back with the audited change.
func (svc *Service) Record(ctx context.Context, actor Actor, action, affectedRecord string) error {
	if err := svc.repo.CreateLog(ctx, NewLog(actor, action, affectedRecord)); err != nil {
		return errors.Wrap(err, "inserting audit log")
	}
	return nil
}

// Log appends a log entry on a best-effort basis: failures are reported to the logger, never to the caller.
func (svc *Service) Log(ctx context.Context, actor Actor, action, affectedRecord string) {
	if err := svc.Record(ctx, actor, action, affectedRecord); err != nil {
		svc.logger.Error(fmt.Sprintf("audit log %s dropped", action), err, map[string]interface{}{
			"user_id":         actor.UserID,
			"affected_record": affectedRecord,
		})
	}
}

// Query returns logs newest first.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Log, error) {
	filter.Clean()
	return core.RetryRead(ctx, func(ctx context.Context) ([]Log, error) {
		return svc.repo.QueryLogs(ctx, filter)
	})
}
