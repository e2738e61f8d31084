package sheetsdb

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/nickiconcept/E-Result-Management-System/core"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

// table is a tab whose first row is the header. The first column identifies a row;
// rows where it is blank are skipped.
type table struct {
	name    string
	columns []string
}

var (
	usersTable = table{"Users", []string{
		"id", "name", "email", "role", "status", "password_hash", "created_at", "updated_at", "last_login",
	}}
	sessionsTable = table{"Sessions", []string{"id", "name", "active"}}
	termsTable    = table{"Terms", []string{"id", "name", "session_id", "active"}}
	classesTable  = table{"Classes", []string{"id", "name"}}
	armsTable     = table{"Arms", []string{"id", "name"}}
	subjectsTable = table{"Subjects", []string{"id", "name", "code"}}
	studentsTable = table{"Students", []string{
		"id", "admission_no", "first_name", "last_name", "gender", "class_id", "arm_id", "parent_id",
	}}
	scoresTable = table{"Scores", []string{
		"id", "student_id", "subject_id", "term_id", "session_id", "ca1", "ca2", "assignment", "notes", "exam",
		"total", "grade", "is_locked", "updated_by", "created_at", "updated_at",
	}}
	pinsTable = table{"ResultPins", []string{
		"id", "pin", "student_id", "term_id", "usage_count", "max_usage", "expiry_date", "created_at",
	}}
	auditTable = table{"AuditLogs", []string{
		"id", "user_id", "user_role", "action", "affected_record", "timestamp", "ip_address",
	}}
	remarksTable = table{"StudentRemarks", []string{
		"student_id", "term_id", "session_id", "form_master_remark", "principal_remark", "updated_by", "updated_at",
	}}

	tables = []table{
		usersTable, sessionsTable, termsTable, classesTable, armsTable, subjectsTable, studentsTable,
		scoresTable, pinsTable, auditTable, remarksTable,
	}
)

type (
	// Store keeps every table in a tab of one spreadsheet. A single lock serializes all
	// operations; transactions hold it from start to end and undo their writes on failure.
	Store struct {
		ss      Spreadsheet
		lock    chan struct{}
		timeout time.Duration
		headers map[string][]string
	}

	txKey struct{}

	// tx remembers the content of every tab before its first write.
	tx struct {
		snapshots map[string][][]interface{}
		order     []string
	}

	// record is a data row with its 1-based row number in the tab.
	record struct {
		num   int
		cells cells
	}
)

var _ core.Transactor = (*Store)(nil) // interface compliance check

// Open creates missing tabs and header rows. timeout bounds every API call (0: no bound).
func Open(ctx context.Context, ss Spreadsheet, timeout time.Duration) (*Store, error) {
	st := &Store{
		ss:      ss,
		lock:    make(chan struct{}, 1),
		timeout: timeout,
		headers: make(map[string][]string, len(tables)),
	}
	if err := st.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *Store) Close() error { return nil }

func (st *Store) ensureSchema(ctx context.Context) error {
	var titles []string
	err := st.call(ctx, "listing tabs", func(ctx context.Context) (err error) {
		titles, err = st.ss.Tabs(ctx)
		return err
	})
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(titles))
	for _, t := range titles {
		existing[t] = true
	}

	for _, t := range tables {
		if !existing[t.name] {
			err = st.call(ctx, "adding tab "+t.name, func(ctx context.Context) error {
				return st.ss.AddTab(ctx, t.name)
			})
			if err != nil {
				return err
			}
		}

		var head [][]interface{}
		err = st.call(ctx, "reading header of "+t.name, func(ctx context.Context) (err error) {
			head, err = st.ss.Read(ctx, t.name+"!1:1")
			return err
		})
		if err != nil {
			return err
		}

		if len(head) == 0 || len(head[0]) == 0 {
			header := make([]interface{}, len(t.columns))
			for i, c := range t.columns {
				header[i] = c
			}
			err = st.call(ctx, "writing header of "+t.name, func(ctx context.Context) error {
				return st.ss.Write(ctx, t.name+"!A1", [][]interface{}{header})
			})
			if err != nil {
				return err
			}
			st.headers[t.name] = t.columns
			continue
		}

		header := make([]string, len(head[0]))
		present := make(map[string]bool, len(header))
		for i, v := range head[0] {
			header[i], _ = parseString(v)
			present[header[i]] = true
		}
		for _, c := range t.columns {
			if !present[c] {
				return errors.Errorf("tab %s has no column %q", t.name, c)
			}
		}
		st.headers[t.name] = header
	}
	return nil
}

// call runs one API request under the store's timeout; failures are backend failures.
func (st *Store) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if st.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.timeout)
		defer cancel()
	}
	return core.NewIOError(op, fn(ctx))
}

// acquire takes the store lock, unless ctx belongs to a transaction that already holds it.
func (st *Store) acquire(ctx context.Context) (func(), error) {
	if _, ok := ctx.Value(txKey{}).(*tx); ok {
		return func() {}, nil
	}
	select {
	case st.lock <- struct{}{}:
		return func() { <-st.lock }, nil
	case <-ctx.Done():
		return nil, core.NewIOError("waiting for spreadsheet lock", ctx.Err())
	}
}

// WithinTx holds the lock for the whole of fn and restores the touched tabs when fn fails.
// A nested call joins the outer transaction.
func (st *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*tx); ok {
		return fn(ctx)
	}

	release, err := st.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	t := &tx{snapshots: make(map[string][][]interface{})}
	if err = fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		// restore even when ctx is done
		if rbErr := st.rollback(context.WithoutCancel(ctx), t); rbErr != nil {
			return errors.Wrapf(err, "rollback failed (%v)", rbErr)
		}
		return err
	}
	return nil
}

// touch snapshots tab before the first write of the transaction in ctx.
func (st *Store) touch(ctx context.Context, tb table) error {
	t, ok := ctx.Value(txKey{}).(*tx)
	if !ok {
		return nil
	}
	if _, done := t.snapshots[tb.name]; done {
		return nil
	}
	values, err := st.read(ctx, tb.name)
	if err != nil {
		return err
	}
	t.snapshots[tb.name] = values
	t.order = append(t.order, tb.name)
	return nil
}

// rollback writes the snapshots back, blanking rows appended since. It carries on past a
// failing tab and reports the first failure.
func (st *Store) rollback(ctx context.Context, t *tx) error {
	var first error
	for i := len(t.order) - 1; i >= 0; i-- {
		if err := st.restore(ctx, t.order[i], t.snapshots[t.order[i]]); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (st *Store) restore(ctx context.Context, name string, snapshot [][]interface{}) error {
	current, err := st.read(ctx, name)
	if err != nil {
		return err
	}

	width := len(st.headers[name])
	restored := make([][]interface{}, 0, len(current))
	for _, row := range snapshot {
		restored = append(restored, pad(row, width))
	}
	for len(restored) < len(current) {
		restored = append(restored, pad(nil, width))
	}
	if len(restored) == 0 {
		return nil
	}
	return st.call(ctx, "restoring "+name, func(ctx context.Context) error {
		return st.ss.Write(ctx, name+"!A1", restored)
	})
}

func pad(row []interface{}, width int) []interface{} {
	if len(row) > width {
		width = len(row)
	}
	padded := make([]interface{}, width)
	for i := range padded {
		padded[i] = ""
	}
	copy(padded, row)
	return padded
}

func (st *Store) read(ctx context.Context, rng string) ([][]interface{}, error) {
	var values [][]interface{}
	err := st.call(ctx, "reading "+rng, func(ctx context.Context) (err error) {
		values, err = st.ss.Read(ctx, rng)
		return err
	})
	return values, err
}

// rows returns the data rows of tb, keyed by the tab's header.
func (st *Store) rows(ctx context.Context, tb table) ([]record, error) {
	values, err := st.read(ctx, tb.name)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i], _ = parseString(v)
	}
	key := tb.columns[0]

	records := make([]record, 0, len(values)-1)
	for i, raw := range values[1:] {
		c := make(cells, len(header))
		for j, name := range header {
			if j < len(raw) {
				c[name] = raw[j]
			}
		}
		if isBlank(c[key]) {
			continue
		}
		records = append(records, record{num: i + 2, cells: c})
	}
	return records, nil
}

// encode lays c out in the order of the tab's header.
func (st *Store) encode(tb table, c cells) []interface{} {
	header := st.headers[tb.name]
	row := make([]interface{}, len(header))
	for i, name := range header {
		if v, ok := c[name]; ok {
			row[i] = v
		} else {
			row[i] = ""
		}
	}
	return row
}

func (st *Store) insert(ctx context.Context, tb table, rows ...cells) error {
	if len(rows) == 0 {
		return nil
	}
	if err := st.touch(ctx, tb); err != nil {
		return err
	}
	values := make([][]interface{}, len(rows))
	for i, c := range rows {
		values[i] = st.encode(tb, c)
	}
	return st.call(ctx, "appending to "+tb.name, func(ctx context.Context) error {
		return st.ss.Append(ctx, tb.name+"!A1", values)
	})
}

func (st *Store) update(ctx context.Context, tb table, num int, c cells) error {
	if err := st.touch(ctx, tb); err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d", tb.name, num)
	return st.call(ctx, "updating "+rng, func(ctx context.Context) error {
		return st.ss.Write(ctx, rng, [][]interface{}{st.encode(tb, c)})
	})
}

// find returns the first row matching pred, or -1.
func find(records []record, pred func(c cells) bool) int {
	for i, r := range records {
		if pred(r.cells) {
			return i
		}
	}
	return -1
}

func eq(col, val string) func(c cells) bool {
	return func(c cells) bool {
		s, _ := parseString(c[col])
		return s == val
	}
}

// decodeAll turns rows into values with fn; a malformed row fails the whole read.
func decodeAll[T any](tb table, records []record, fn func(d *decoder) T) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		v, err := decodeOne(tb, r, fn)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOne[T any](tb table, r record, fn func(d *decoder) T) (T, error) {
	d := &decoder{c: r.cells}
	v := fn(d)
	if d.err != nil {
		return v, errors.Wrapf(d.err, "reading %s row %d", tb.name, r.num)
	}
	return v, nil
}

// getByID is the locked lookup of the row whose id column equals id.
func getByID[T any](ctx context.Context, st *Store, tb table, id string, notFound error, fn func(d *decoder) T) (T, error) {
	var zero T
	release, err := st.acquire(ctx)
	if err != nil {
		return zero, err
	}
	defer release()

	records, err := st.rows(ctx, tb)
	if err != nil {
		return zero, err
	}
	i := find(records, eq(tb.columns[0], id))
	if i < 0 {
		return zero, notFound
	}
	return decodeOne(tb, records[i], fn)
}

// listAll is the locked read of every row of tb.
func listAll[T any](ctx context.Context, st *Store, tb table, fn func(d *decoder) T) ([]T, error) {
	release, err := st.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	records, err := st.rows(ctx, tb)
	if err != nil {
		return nil, err
	}
	return decodeAll(tb, records, fn)
}

// save replaces the row with the same id, or appends c.
func (st *Store) save(ctx context.Context, tb table, c cells) error {
	release, err := st.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	records, err := st.rows(ctx, tb)
	if err != nil {
		return err
	}
	id, _ := parseString(c[tb.columns[0]])
	if i := find(records, eq(tb.columns[0], id)); i >= 0 {
		return st.update(ctx, tb, records[i].num, c)
	}
	return st.insert(ctx, tb, c)
}

func (st *Store) UserRepository() user.Repository     { return &userRepository{st} }
func (st *Store) SchoolRepository() school.Repository { return &schoolRepository{st} }
func (st *Store) ScoreRepository() score.Repository   { return &scoreRepository{st} }
func (st *Store) PinRepository() pin.Repository       { return &pinRepository{st} }
func (st *Store) AuditRepository() audit.Repository   { return &auditRepository{st} }
func (st *Store) RemarkRepository() remark.Repository { return &remarkRepository{st} }
