package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/nickiconcept/E-Result-Management-System/core/school"
)

type schoolRepository struct {
	st *Store
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

const studentColumns = "id, admission_no, first_name, last_name, gender, class_id, arm_id, parent_id"

type studentRow struct {
	ID          string      `db:"id"`
	AdmissionNo string      `db:"admission_no"`
	FirstName   string      `db:"first_name"`
	LastName    string      `db:"last_name"`
	Gender      string      `db:"gender"`
	ClassID     string      `db:"class_id"`
	ArmID       null.String `db:"arm_id"`
	ParentID    null.String `db:"parent_id"`
}

func (r studentRow) student() school.Student {
	return school.Student{
		ID:          r.ID,
		AdmissionNo: r.AdmissionNo,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Gender:      r.Gender,
		ClassID:     r.ClassID,
		ArmID:       r.ArmID.String,
		ParentID:    r.ParentID.String,
	}
}

// getOne scans the single row of q into dest, mapping "no rows" to notFound.
func (repo *schoolRepository) getOne(ctx context.Context, dest interface{}, notFound error, q string, args ...interface{}) error {
	err := repo.st.exec(ctx).GetContext(ctx, dest, q, args...)
	if err == sql.ErrNoRows {
		return notFound
	}
	return wrap(err, "selecting "+strings.TrimSuffix(notFound.Error(), " not found"))
}

func (repo *schoolRepository) GetSession(ctx context.Context, id string) (school.Session, error) {
	var s school.Session
	err := repo.getOne(ctx, &s, school.ErrSessionNotFound, "SELECT id, name, active FROM sessions WHERE id = $1", id)
	return s, err
}

func (repo *schoolRepository) GetTerm(ctx context.Context, id string) (school.Term, error) {
	var t school.Term
	err := repo.getOne(ctx, &t, school.ErrTermNotFound, "SELECT id, name, session_id, active FROM terms WHERE id = $1", id)
	return t, err
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	var c school.Class
	err := repo.getOne(ctx, &c, school.ErrClassNotFound, "SELECT id, name FROM classes WHERE id = $1", id)
	return c, err
}

func (repo *schoolRepository) GetArm(ctx context.Context, id string) (school.Arm, error) {
	var a school.Arm
	err := repo.getOne(ctx, &a, school.ErrArmNotFound, "SELECT id, name FROM arms WHERE id = $1", id)
	return a, err
}

func (repo *schoolRepository) GetSubject(ctx context.Context, id string) (school.Subject, error) {
	var s school.Subject
	err := repo.getOne(ctx, &s, school.ErrSubjectNotFound, "SELECT id, name, code FROM subjects WHERE id = $1", id)
	return s, err
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	var r studentRow
	if err := repo.getOne(ctx, &r, school.ErrStudentNotFound, "SELECT "+studentColumns+" FROM students WHERE id = $1", id); err != nil {
		return school.Student{}, err
	}
	return r.student(), nil
}

func (repo *schoolRepository) GetStudentByAdmissionNo(ctx context.Context, admissionNo string) (school.Student, error) {
	var r studentRow
	if err := repo.getOne(ctx, &r, school.ErrStudentNotFound, "SELECT "+studentColumns+" FROM students WHERE admission_no = $1", admissionNo); err != nil {
		return school.Student{}, err
	}
	return r.student(), nil
}

func (repo *schoolRepository) QuerySessions(ctx context.Context) ([]school.Session, error) {
	sessions := make([]school.Session, 0)
	err := repo.st.exec(ctx).SelectContext(ctx, &sessions, "SELECT id, name, active FROM sessions ORDER BY name")
	return sessions, wrap(err, "selecting sessions")
}

func (repo *schoolRepository) QueryTerms(ctx context.Context, sessionID string) ([]school.Term, error) {
	terms := make([]school.Term, 0)
	q := "SELECT id, name, session_id, active FROM terms WHERE ($1 = '' OR session_id = $1) ORDER BY id"
	err := repo.st.exec(ctx).SelectContext(ctx, &terms, q, sessionID)
	return terms, wrap(err, "selecting terms")
}

func (repo *schoolRepository) QueryClasses(ctx context.Context) ([]school.Class, error) {
	classes := make([]school.Class, 0)
	err := repo.st.exec(ctx).SelectContext(ctx, &classes, "SELECT id, name FROM classes ORDER BY name")
	return classes, wrap(err, "selecting classes")
}

func (repo *schoolRepository) QueryArms(ctx context.Context) ([]school.Arm, error) {
	arms := make([]school.Arm, 0)
	err := repo.st.exec(ctx).SelectContext(ctx, &arms, "SELECT id, name FROM arms ORDER BY name")
	return arms, wrap(err, "selecting arms")
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	subjects := make([]school.Subject, 0)
	err := repo.st.exec(ctx).SelectContext(ctx, &subjects, "SELECT id, name, code FROM subjects ORDER BY name")
	return subjects, wrap(err, "selecting subjects")
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter school.StudentFilter) ([]school.Student, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ClassID != "" {
		conds = append(conds, "class_id = "+arg(filter.ClassID))
	}
	if filter.ArmID != "" {
		conds = append(conds, "arm_id = "+arg(filter.ArmID))
	}
	if len(filter.IDs) > 0 {
		conds = append(conds, "id = ANY("+arg(pq.Array(filter.IDs))+")")
	}

	q := "SELECT " + studentColumns + " FROM students"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY last_name, first_name, admission_no"

	var rows []studentRow
	if err := repo.st.exec(ctx).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, wrap(err, "selecting students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (repo *schoolRepository) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := repo.st.exec(ctx).GetContext(ctx, &n, "SELECT COUNT(*) FROM students")
	return n, wrap(err, "counting students")
}

func (repo *schoolRepository) save(ctx context.Context, what, q string, arg interface{}) error {
	_, err := repo.st.exec(ctx).NamedExecContext(ctx, q, arg)
	return wrap(err, "saving "+what)
}

func (repo *schoolRepository) SaveSession(ctx context.Context, s school.Session) error {
	return repo.save(ctx, "session", `INSERT INTO sessions (id, name, active) VALUES (:id, :name, :active)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active`, s)
}

func (repo *schoolRepository) SaveTerm(ctx context.Context, t school.Term) error {
	return repo.save(ctx, "term", `INSERT INTO terms (id, name, session_id, active) VALUES (:id, :name, :session_id, :active)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, session_id = EXCLUDED.session_id, active = EXCLUDED.active`, t)
}

func (repo *schoolRepository) SaveClass(ctx context.Context, c school.Class) error {
	return repo.save(ctx, "class", `INSERT INTO classes (id, name) VALUES (:id, :name)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, c)
}

func (repo *schoolRepository) SaveArm(ctx context.Context, a school.Arm) error {
	return repo.save(ctx, "arm", `INSERT INTO arms (id, name) VALUES (:id, :name)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, a)
}

func (repo *schoolRepository) SaveSubject(ctx context.Context, s school.Subject) error {
	return repo.save(ctx, "subject", `INSERT INTO subjects (id, name, code) VALUES (:id, :name, :code)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, code = EXCLUDED.code`, s)
}

func (repo *schoolRepository) SaveStudent(ctx context.Context, s school.Student) error {
	row := studentRow{
		ID:          s.ID,
		AdmissionNo: s.AdmissionNo,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Gender:      s.Gender,
		ClassID:     s.ClassID,
		ArmID:       null.NewString(s.ArmID, s.ArmID != ""),
		ParentID:    null.NewString(s.ParentID, s.ParentID != ""),
	}
	return repo.save(ctx, "student", `INSERT INTO students (`+studentColumns+`)
		VALUES (:id, :admission_no, :first_name, :last_name, :gender, :class_id, :arm_id, :parent_id)
		ON CONFLICT (id) DO UPDATE SET admission_no = EXCLUDED.admission_no, first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name, gender = EXCLUDED.gender, class_id = EXCLUDED.class_id,
			arm_id = EXCLUDED.arm_id, parent_id = EXCLUDED.parent_id`, row)
}
