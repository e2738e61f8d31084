package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

// pq error codes
const uniqueViolation = "23505"

type txKey struct{}

// Store is the PostgreSQL backend. The running transaction, if any, travels in the context.
type Store struct {
	db *sqlx.DB
}

var _ core.Transactor = (*Store)(nil) // interface compliance check

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB is the underlying pool, for migrations.
func (st *Store) DB() *sql.DB {
	return st.db.DB
}

func (st *Store) Close() error {
	return st.db.Close()
}

// WithinTx commits fn's writes together. A nested call joins the outer transaction.
func (st *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := st.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewIOError("beginning transaction", err)
	}
	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return core.NewIOError("committing transaction", err)
	}
	return nil
}

func (st *Store) UserRepository() user.Repository     { return &userRepository{st} }
func (st *Store) SchoolRepository() school.Repository { return &schoolRepository{st} }
func (st *Store) ScoreRepository() score.Repository   { return &scoreRepository{st} }
func (st *Store) PinRepository() pin.Repository       { return &pinRepository{st} }
func (st *Store) AuditRepository() audit.Repository   { return &auditRepository{st} }
func (st *Store) RemarkRepository() remark.Repository { return &remarkRepository{st} }

// exec returns the transaction of ctx, or the pool.
func (st *Store) exec(ctx context.Context) core.DBExecutor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return st.db
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}

// wrap tells server-side SQL errors (bugs, constraint violations) from backend failures (connection, timeout).
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) || err == sql.ErrNoRows {
		return errors.Wrap(err, op)
	}
	return core.NewIOError(op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
