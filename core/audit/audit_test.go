package audit_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/storage/database/inmem"
)

type failingRepo struct{}

func (failingRepo) CreateLog(context.Context, audit.Log) error {
	return core.NewIOError("appending audit log", errors.New("quota exceeded"))
}

func (failingRepo) QueryLogs(context.Context, audit.QueryFilter) ([]audit.Log, error) {
	return nil, nil
}

type recordingLogger struct {
	core.NopLogger
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func TestService_Log(t *testing.T) {
	ctx := context.Background()
	actor := audit.Actor{UserID: "u1", Role: user.RoleAdmin, IPAddress: "192.0.2.1"}

	t.Run("appended", func(t *testing.T) {
		svc := audit.NewService(inmemdb.Open().AuditRepository(), core.NopLogger{})
		svc.Log(ctx, actor, audit.ActionLogin, "User u1")

		logs, err := svc.Query(ctx, audit.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.NotEmpty(t, logs[0].ID)
		assert.Equal(t, actor.UserID, logs[0].UserID)
		assert.Equal(t, actor.Role, logs[0].UserRole)
		assert.Equal(t, actor.IPAddress, logs[0].IPAddress)
		assert.Equal(t, "User u1", logs[0].AffectedRecord)
		assert.False(t, logs[0].Timestamp.IsZero())
	})

	t.Run("failure reported to the logger only", func(t *testing.T) {
		logger := new(recordingLogger)
		svc := audit.NewService(failingRepo{}, logger)
		svc.Log(ctx, actor, audit.ActionLogin, "User u1")
		assert.Equal(t, []string{"audit log LOGIN dropped"}, logger.errors)

		err := svc.Record(ctx, actor, audit.ActionLogin, "User u1")
		assert.True(t, core.IsIOError(err))
	})
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc := audit.NewService(inmemdb.Open().AuditRepository(), core.NopLogger{})

	for _, l := range []struct{ user, action string }{
		{"u1", audit.ActionLogin},
		{"u2", audit.ActionUpdateScore},
		{"u1", audit.ActionLockScore},
		{"u2", audit.ActionUpdateScore},
	} {
		require.NoError(t, svc.Record(ctx, audit.Actor{UserID: l.user}, l.action, "x"))
	}
	actions := func(logs []audit.Log) []string {
		acts := make([]string, 0, len(logs))
		for _, l := range logs {
			acts = append(acts, l.UserID+":"+l.Action)
		}
		return acts
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   []string
	}{
		{name: "newest first", want: []string{"u2:UPDATE_SCORE", "u1:LOCK_SCORE", "u2:UPDATE_SCORE", "u1:LOGIN"}},
		{name: "by user", filter: audit.QueryFilter{UserID: " u1 "}, want: []string{"u1:LOCK_SCORE", "u1:LOGIN"}},
		{name: "by action", filter: audit.QueryFilter{Action: audit.ActionUpdateScore}, want: []string{"u2:UPDATE_SCORE", "u2:UPDATE_SCORE"}},
		{name: "limited", filter: audit.QueryFilter{Limit: 1}, want: []string{"u2:UPDATE_SCORE"}},
		{name: "none", filter: audit.QueryFilter{UserID: "u3"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, err := svc.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, actions(logs))
		})
	}
}
