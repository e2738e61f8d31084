package inmemdb

import (
	"context"
	"sort"

	"github.com/nickiconcept/E-Result-Management-System/core/school"
)

type schoolRepository struct {
	db *schoolTables
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *schoolRepository {
	return &schoolRepository{db: db.school}
}

func (repo *schoolRepository) GetSession(_ context.Context, id string) (school.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if s, ok := repo.db.sessions[id]; ok {
		return s, nil
	}
	return school.Session{}, school.ErrSessionNotFound
}

func (repo *schoolRepository) GetTerm(_ context.Context, id string) (school.Term, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if t, ok := repo.db.terms[id]; ok {
		return t, nil
	}
	return school.Term{}, school.ErrTermNotFound
}

func (repo *schoolRepository) GetClass(_ context.Context, id string) (school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if c, ok := repo.db.classes[id]; ok {
		return c, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) GetArm(_ context.Context, id string) (school.Arm, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if a, ok := repo.db.arms[id]; ok {
		return a, nil
	}
	return school.Arm{}, school.ErrArmNotFound
}

func (repo *schoolRepository) GetSubject(_ context.Context, id string) (school.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if s, ok := repo.db.subjects[id]; ok {
		return s, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *schoolRepository) GetStudent(_ context.Context, id string) (school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if s, ok := repo.db.students[id]; ok {
		return s, nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) GetStudentByAdmissionNo(_ context.Context, admissionNo string) (school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	for _, s := range repo.db.students {
		if s.AdmissionNo == admissionNo {
			return s, nil
		}
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) QuerySessions(_ context.Context) ([]school.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	sessions := make([]school.Session, 0, len(repo.db.sessions))
	for _, s := range repo.db.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions, nil
}

func (repo *schoolRepository) QueryTerms(_ context.Context, sessionID string) ([]school.Term, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	terms := make([]school.Term, 0)
	for _, t := range repo.db.terms {
		if sessionID == "" || t.SessionID == sessionID {
			terms = append(terms, t)
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].ID < terms[j].ID })
	return terms, nil
}

func (repo *schoolRepository) QueryClasses(_ context.Context) ([]school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *schoolRepository) QueryArms(_ context.Context) ([]school.Arm, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	arms := make([]school.Arm, 0, len(repo.db.arms))
	for _, a := range repo.db.arms {
		arms = append(arms, a)
	}
	sort.Slice(arms, func(i, j int) bool { return arms[i].Name < arms[j].Name })
	return arms, nil
}

func (repo *schoolRepository) QuerySubjects(_ context.Context) ([]school.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	subjects := make([]school.Subject, 0, len(repo.db.subjects))
	for _, s := range repo.db.subjects {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *schoolRepository) QueryStudents(_ context.Context, filter school.StudentFilter) ([]school.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	students := make([]school.Student, 0)
	for _, s := range repo.db.students {
		if filter.Match(s) {
			students = append(students, s)
		}
	}
	school.SortStudents(students)
	return students, nil
}

func (repo *schoolRepository) CountStudents(_ context.Context) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return len(repo.db.students), nil
}

func (repo *schoolRepository) SaveSession(_ context.Context, s school.Session) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.sessions[s.ID] = s
	return nil
}

func (repo *schoolRepository) SaveTerm(_ context.Context, t school.Term) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.terms[t.ID] = t
	return nil
}

func (repo *schoolRepository) SaveClass(_ context.Context, c school.Class) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.classes[c.ID] = c
	return nil
}

func (repo *schoolRepository) SaveArm(_ context.Context, a school.Arm) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.arms[a.ID] = a
	return nil
}

func (repo *schoolRepository) SaveSubject(_ context.Context, s school.Subject) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.subjects[s.ID] = s
	return nil
}

func (repo *schoolRepository) SaveStudent(_ context.Context, s school.Student) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.students[s.ID] = s
	return nil
}
