package score

import (
	"sort"

	"github.com/nickiconcept/E-Result-Management-System/core/grade"
	"github.com/nickiconcept/E-Result-Management-System/core/school"
)

// JoinRows left-joins students to their scores for one subject and term.
// Backends without a query engine use it to implement Repository.QueryRows.
func JoinRows(students []school.Student, scores []Score, subjectID, termID string) []Row {
	byStudent := make(map[string]Score, len(scores))
	for _, s := range scores {
		if s.SubjectID == subjectID && s.TermID == termID {
			byStudent[s.StudentID] = s
		}
	}

	rows := make([]Row, 0, len(students))
	for _, st := range students {
		row := Row{
			StudentID:   st.ID,
			AdmissionNo: st.AdmissionNo,
			FirstName:   st.FirstName,
			LastName:    st.LastName,
			Grade:       grade.For(0),
		}
		if s, ok := byStudent[st.ID]; ok {
			row.ScoreID = s.ID
			row.CA1, row.CA2, row.Assignment, row.Notes, row.Exam = s.CA1, s.CA2, s.Assignment, s.Notes, s.Exam
			row.Total, row.Grade, row.IsLocked = s.Total, s.Grade, s.IsLocked
		}
		rows = append(rows, row)
	}
	SortRows(rows)
	return rows
}

// SortRows orders rows by last name, then first name, then admission number.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LastName != rows[j].LastName {
			return rows[i].LastName < rows[j].LastName
		}
		if rows[i].FirstName != rows[j].FirstName {
			return rows[i].FirstName < rows[j].FirstName
		}
		return rows[i].AdmissionNo < rows[j].AdmissionNo
	})
}
