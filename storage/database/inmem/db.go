package inmemdb

import (
	"context"
	"sync"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

type (
	// DB is the process-local store. Tables have their own locks; transactions keep an undo journal.
	DB struct {
		user   *userTable
		school *schoolTables
		score  *scoreTable
		pin    *pinTable
		audit  *auditTable
		remark *remarkTable
	}

	userTable struct {
		t     map[string]user.User
		mutex sync.RWMutex
	}

	schoolTables struct {
		sessions map[string]school.Session
		terms    map[string]school.Term
		classes  map[string]school.Class
		arms     map[string]school.Arm
		subjects map[string]school.Subject
		students map[string]school.Student
		mutex    sync.RWMutex
	}

	scoreTable struct {
		t     map[score.Key]score.Score
		mutex sync.RWMutex
	}

	pinTable struct {
		t     []pin.ResultPin // insertion order
		mutex sync.Mutex
	}

	auditTable struct {
		t     []audit.Log // insertion order
		mutex sync.RWMutex
	}

	remarkKey struct {
		studentID string
		termID    string
	}

	remarkTable struct {
		t     map[remarkKey]remark.StudentRemark
		mutex sync.RWMutex
	}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{
		user: &userTable{t: make(map[string]user.User)},
		school: &schoolTables{
			sessions: make(map[string]school.Session),
			terms:    make(map[string]school.Term),
			classes:  make(map[string]school.Class),
			arms:     make(map[string]school.Arm),
			subjects: make(map[string]school.Subject),
			students: make(map[string]school.Student),
		},
		score:  &scoreTable{t: make(map[score.Key]score.Score)},
		pin:    &pinTable{},
		audit:  &auditTable{},
		remark: &remarkTable{t: make(map[remarkKey]remark.StudentRemark)},
	}
}

func (db *DB) Close() error { return nil }

type (
	txKey struct{}

	journal struct {
		mu    sync.Mutex
		undos []func()
	}
)

// WithinTx runs fn with a journal in its context; writes made through that context are undone,
// newest first, when fn fails. A nested call joins the outer transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := new(journal)
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		j.rollback()
		return err
	}
	return nil
}

func (j *journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
	j.undos = nil
}

// onRollback registers undo when ctx carries a transaction. undo must take the table lock itself.
func onRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(txKey{}).(*journal); ok {
		j.mu.Lock()
		j.undos = append(j.undos, undo)
		j.mu.Unlock()
	}
}

func (db *DB) UserRepository() user.Repository     { return NewUserRepository(db) }
func (db *DB) SchoolRepository() school.Repository { return NewSchoolRepository(db) }
func (db *DB) ScoreRepository() score.Repository   { return NewScoreRepository(db) }
func (db *DB) PinRepository() pin.Repository       { return NewPinRepository(db) }
func (db *DB) AuditRepository() audit.Repository   { return NewAuditRepository(db) }
func (db *DB) RemarkRepository() remark.Repository { return NewRemarkRepository(db) }
