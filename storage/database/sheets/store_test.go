package sheetsdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
)

var now = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T, fs *fakeSpreadsheet) *Store {
	t.Helper()
	st, err := Open(context.Background(), fs, time.Second)
	require.NoError(t, err)
	return st
}

func newScore(id string, exam int) score.Score {
	s := score.Score{
		ID:        id,
		StudentID: "st1",
		SubjectID: "sub1",
		TermID:    "t2",
		SessionID: "s1",
		CA1:       8,
		CA2:       7,
		Exam:      exam,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Compute()
	return s
}

func TestOpen(t *testing.T) {
	fs := newFakeSpreadsheet()
	openStore(t, fs)

	for _, tb := range tables {
		rows, ok := fs.tabs[tb.name]
		if assert.True(t, ok, "tab %s", tb.name) && assert.Len(t, rows, 1, "tab %s", tb.name) {
			assert.Len(t, rows[0], len(tb.columns))
			assert.Equal(t, tb.columns[0], rows[0][0])
		}
	}

	// existing tabs are left alone
	openStore(t, fs)
	assert.Len(t, fs.tabs[usersTable.name], 1)
}

func TestOpen_missingColumn(t *testing.T) {
	fs := newFakeSpreadsheet()
	fs.tabs["Sessions"] = [][]interface{}{{"id", "name"}}

	_, err := Open(context.Background(), fs, time.Second)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `"active"`)
	}
}

func TestStore_typedCells(t *testing.T) {
	fs := newFakeSpreadsheet()
	// hand made tab: columns in another order, booleans typed as text
	fs.tabs["Sessions"] = [][]interface{}{
		{"name", "active", "id"},
		{"2023/2024", "TRUE", "s1"},
		{"", "", ""},
		{"2024/2025", "FALSE", "s2"},
	}
	st := openStore(t, fs)
	repo := st.SchoolRepository()

	s1, err := repo.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "2023/2024", s1.Name)
	assert.True(t, s1.Active)

	sessions, err := repo.QuerySessions(context.Background())
	require.NoError(t, err)
	if assert.Len(t, sessions, 2) {
		assert.False(t, sessions[1].Active)
	}
}

func TestScoreRepository_UpsertScore(t *testing.T) {
	ctx := context.Background()
	fs := newFakeSpreadsheet()
	repo := openStore(t, fs).ScoreRepository()

	s, err := repo.UpsertScore(ctx, newScore("sc1", 55))
	require.NoError(t, err)
	assert.Equal(t, 70, s.Total)

	_, err = repo.UpsertScore(ctx, newScore("sc1", 50))
	require.NoError(t, err)
	got, err := repo.GetScore(ctx, s.Key())
	require.NoError(t, err)
	assert.Equal(t, 50, got.Exam)
	assert.Equal(t, 65, got.Total)
	assert.Len(t, fs.tabs[scoresTable.name], 2, "same key, same row")

	// a principal ticks the lock in the sheet itself
	fs.edit(scoresTable.name, 2, "is_locked", "TRUE")
	_, err = repo.UpsertScore(ctx, newScore("sc1", 60))
	assert.Equal(t, score.ErrLocked, err)

	got, err = repo.GetScore(ctx, s.Key())
	require.NoError(t, err)
	assert.True(t, got.IsLocked)
	assert.Equal(t, 50, got.Exam)
}

func TestStore_WithinTx(t *testing.T) {
	ctx := context.Background()
	fs := newFakeSpreadsheet()
	st := openStore(t, fs)
	scores, logs := st.ScoreRepository(), st.AuditRepository()

	_, err := scores.UpsertScore(ctx, newScore("sc1", 40))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = st.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := scores.UpsertScore(ctx, newScore("sc1", 60)); err != nil {
			return err
		}
		other := newScore("sc2", 10)
		other.SubjectID = "sub2"
		if _, err := scores.UpsertScore(ctx, other); err != nil {
			return err
		}
		if err := logs.CreateLog(ctx, audit.Log{ID: "l1", Action: audit.ActionUpdateScore, Timestamp: now}); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, errors.Cause(err))

	all, err := scores.QueryScores(ctx, score.QueryFilter{})
	require.NoError(t, err)
	if assert.Len(t, all, 1) {
		assert.Equal(t, 40, all[0].Exam)
	}
	entries, err := logs.QueryLogs(ctx, audit.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	// the next append reuses the blanked row
	other := newScore("sc2", 10)
	other.SubjectID = "sub2"
	_, err = scores.UpsertScore(ctx, other)
	require.NoError(t, err)
	all, err = scores.QueryScores(ctx, score.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Len(t, fs.tabs[scoresTable.name], 3)
}

func TestStore_WithinTx_failedWrite(t *testing.T) {
	ctx := context.Background()
	fs := newFakeSpreadsheet()
	st := openStore(t, fs)
	scores, logs := st.ScoreRepository(), st.AuditRepository()

	fs.failWrite[auditTable.name] = errors.New("quota exceeded")
	err := st.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := scores.UpsertScore(ctx, newScore("sc1", 55)); err != nil {
			return err
		}
		return logs.CreateLog(ctx, audit.Log{ID: "l1", Action: audit.ActionUpdateScore, Timestamp: now})
	})
	assert.True(t, core.IsIOError(err), "got %v", err)

	_, err = scores.GetScore(ctx, newScore("sc1", 55).Key())
	assert.Equal(t, score.ErrNotFound, err)
}

func TestPinRepository_ConsumePin(t *testing.T) {
	ctx := context.Background()
	fs := newFakeSpreadsheet()
	repo := openStore(t, fs).PinRepository()

	require.NoError(t, repo.CreatePins(ctx, []pin.ResultPin{
		{ID: "p1", Pin: "1234567890", StudentID: "st1", TermID: "t2", MaxUsage: 5, ExpiryDate: now.Add(time.Hour), CreatedAt: now},
		{ID: "p2", Pin: "5555555555", StudentID: "st1", TermID: "t2", MaxUsage: 5, ExpiryDate: now.Add(-time.Hour), CreatedAt: now},
	}))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exhausted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ConsumePin(ctx, "1234567890", "st1", now)
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				succeeded++
			case pin.ErrPinExhausted:
				exhausted++
			default:
				t.Errorf("ConsumePin() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 15, exhausted)

	pins, err := repo.QueryPins(ctx, pin.QueryFilter{Pin: "1234567890"})
	require.NoError(t, err)
	if assert.Len(t, pins, 1) {
		assert.Equal(t, 5, pins[0].UsageCount)
	}

	_, err = repo.ConsumePin(ctx, "1234567890", "st2", now)
	assert.Equal(t, pin.ErrInvalidPin, err)
	_, err = repo.ConsumePin(ctx, "5555555555", "st1", now)
	assert.Equal(t, pin.ErrPinExpired, err)
}

func TestAuditRepository_QueryLogs(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t, newFakeSpreadsheet()).AuditRepository()

	for i, action := range []string{audit.ActionLogin, audit.ActionUpdateScore, audit.ActionLogin} {
		require.NoError(t, repo.CreateLog(ctx, audit.Log{
			ID:        string(rune('a' + i)),
			UserID:    "u1",
			Action:    action,
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, err := repo.QueryLogs(ctx, audit.QueryFilter{Action: audit.ActionLogin})
	require.NoError(t, err)
	if assert.Len(t, logs, 2) {
		assert.Equal(t, "c", logs[0].ID)
		assert.Equal(t, "a", logs[1].ID)
	}

	logs, err = repo.QueryLogs(ctx, audit.QueryFilter{Limit: 1})
	require.NoError(t, err)
	if assert.Len(t, logs, 1) {
		assert.Equal(t, "c", logs[0].ID)
	}
}
