package sheetsdb

import (
	"context"
	"sort"

	"github.com/nickiconcept/E-Result-Management-System/core/school"
)

type schoolRepository struct {
	st *Store
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func decodeSession(d *decoder) school.Session {
	return school.Session{ID: d.String("id"), Name: d.String("name"), Active: d.Bool("active")}
}

func decodeTerm(d *decoder) school.Term {
	return school.Term{
		ID:        d.String("id"),
		Name:      d.String("name"),
		SessionID: d.String("session_id"),
		Active:    d.Bool("active"),
	}
}

func decodeClass(d *decoder) school.Class {
	return school.Class{ID: d.String("id"), Name: d.String("name")}
}

func decodeArm(d *decoder) school.Arm {
	return school.Arm{ID: d.String("id"), Name: d.String("name")}
}

func decodeSubject(d *decoder) school.Subject {
	return school.Subject{ID: d.String("id"), Name: d.String("name"), Code: d.String("code")}
}

func decodeStudent(d *decoder) school.Student {
	return school.Student{
		ID:          d.String("id"),
		AdmissionNo: school.NormalizeAdmissionNo(d.String("admission_no")),
		FirstName:   d.String("first_name"),
		LastName:    d.String("last_name"),
		Gender:      d.String("gender"),
		ClassID:     d.String("class_id"),
		ArmID:       d.String("arm_id"),
		ParentID:    d.String("parent_id"),
	}
}

func (repo *schoolRepository) GetSession(ctx context.Context, id string) (school.Session, error) {
	return getByID(ctx, repo.st, sessionsTable, id, school.ErrSessionNotFound, decodeSession)
}

func (repo *schoolRepository) GetTerm(ctx context.Context, id string) (school.Term, error) {
	return getByID(ctx, repo.st, termsTable, id, school.ErrTermNotFound, decodeTerm)
}

func (repo *schoolRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	return getByID(ctx, repo.st, classesTable, id, school.ErrClassNotFound, decodeClass)
}

func (repo *schoolRepository) GetArm(ctx context.Context, id string) (school.Arm, error) {
	return getByID(ctx, repo.st, armsTable, id, school.ErrArmNotFound, decodeArm)
}

func (repo *schoolRepository) GetSubject(ctx context.Context, id string) (school.Subject, error) {
	return getByID(ctx, repo.st, subjectsTable, id, school.ErrSubjectNotFound, decodeSubject)
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (school.Student, error) {
	return getByID(ctx, repo.st, studentsTable, id, school.ErrStudentNotFound, decodeStudent)
}

// GetStudentByAdmissionNo compares normalized numbers: sheets are edited by hand.
func (repo *schoolRepository) GetStudentByAdmissionNo(ctx context.Context, admissionNo string) (school.Student, error) {
	students, err := listAll(ctx, repo.st, studentsTable, decodeStudent)
	if err != nil {
		return school.Student{}, err
	}
	admissionNo = school.NormalizeAdmissionNo(admissionNo)
	for _, s := range students {
		if s.AdmissionNo == admissionNo {
			return s, nil
		}
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) QuerySessions(ctx context.Context) ([]school.Session, error) {
	sessions, err := listAll(ctx, repo.st, sessionsTable, decodeSession)
	if err != nil {
		return nil, err
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions, nil
}

func (repo *schoolRepository) QueryTerms(ctx context.Context, sessionID string) ([]school.Term, error) {
	all, err := listAll(ctx, repo.st, termsTable, decodeTerm)
	if err != nil {
		return nil, err
	}
	terms := make([]school.Term, 0, len(all))
	for _, t := range all {
		if sessionID == "" || t.SessionID == sessionID {
			terms = append(terms, t)
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].ID < terms[j].ID })
	return terms, nil
}

func (repo *schoolRepository) QueryClasses(ctx context.Context) ([]school.Class, error) {
	classes, err := listAll(ctx, repo.st, classesTable, decodeClass)
	if err != nil {
		return nil, err
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *schoolRepository) QueryArms(ctx context.Context) ([]school.Arm, error) {
	arms, err := listAll(ctx, repo.st, armsTable, decodeArm)
	if err != nil {
		return nil, err
	}
	sort.Slice(arms, func(i, j int) bool { return arms[i].Name < arms[j].Name })
	return arms, nil
}

func (repo *schoolRepository) QuerySubjects(ctx context.Context) ([]school.Subject, error) {
	subjects, err := listAll(ctx, repo.st, subjectsTable, decodeSubject)
	if err != nil {
		return nil, err
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter school.StudentFilter) ([]school.Student, error) {
	all, err := listAll(ctx, repo.st, studentsTable, decodeStudent)
	if err != nil {
		return nil, err
	}
	students := make([]school.Student, 0, len(all))
	for _, s := range all {
		if filter.Match(s) {
			students = append(students, s)
		}
	}
	school.SortStudents(students)
	return students, nil
}

func (repo *schoolRepository) CountStudents(ctx context.Context) (int, error) {
	release, err := repo.st.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	records, err := repo.st.rows(ctx, studentsTable)
	return len(records), err
}

func (repo *schoolRepository) SaveSession(ctx context.Context, s school.Session) error {
	return repo.st.save(ctx, sessionsTable, cells{"id": s.ID, "name": s.Name, "active": s.Active})
}

func (repo *schoolRepository) SaveTerm(ctx context.Context, t school.Term) error {
	return repo.st.save(ctx, termsTable, cells{"id": t.ID, "name": t.Name, "session_id": t.SessionID, "active": t.Active})
}

func (repo *schoolRepository) SaveClass(ctx context.Context, c school.Class) error {
	return repo.st.save(ctx, classesTable, cells{"id": c.ID, "name": c.Name})
}

func (repo *schoolRepository) SaveArm(ctx context.Context, a school.Arm) error {
	return repo.st.save(ctx, armsTable, cells{"id": a.ID, "name": a.Name})
}

func (repo *schoolRepository) SaveSubject(ctx context.Context, s school.Subject) error {
	return repo.st.save(ctx, subjectsTable, cells{"id": s.ID, "name": s.Name, "code": s.Code})
}

func (repo *schoolRepository) SaveStudent(ctx context.Context, s school.Student) error {
	return repo.st.save(ctx, studentsTable, cells{
		"id":           s.ID,
		"admission_no": s.AdmissionNo,
		"first_name":   s.FirstName,
		"last_name":    s.LastName,
		"gender":       s.Gender,
		"class_id":     s.ClassID,
		"arm_id":       s.ArmID,
		"parent_id":    s.ParentID,
	})
}
