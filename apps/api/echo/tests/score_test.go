package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/nickiconcept/E-Result-Management-System/apps/api/echo"
	"github.com/nickiconcept/E-Result-Management-System/core/score"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

func mathsScore(ca1, ca2, assignment, notes, exam int) score.NewScore {
	return score.NewScore{
		StudentID: "st1", SubjectID: "sub1", TermID: "t2",
		CA1: ca1, CA2: ca2, Assignment: assignment, Notes: notes, Exam: exam,
	}
}

func Test_scoreApi_upsert(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	teacherToken := app.token(t, staff[user.RoleTeacher])

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/scores", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "principal cannot enter scores", method: http.MethodPost, path: "/v1/scores", token: app.token(t, staff[user.RolePrincipal]),
			body:     marchallObj(t, mathsScore(8, 7, 9, 6, 55)),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/v1/scores", token: teacherToken,
			body:     marchallObj(t, score.NewScore{StudentID: "st404", SubjectID: "sub1", TermID: "t2"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "unknown term", method: http.MethodPost, path: "/v1/scores", token: teacherToken,
			body:     marchallObj(t, score.NewScore{StudentID: "st1", SubjectID: "sub1", TermID: "t9"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "term not found"}),
		},
		{
			name: "session mismatch", method: http.MethodPost, path: "/v1/scores", token: teacherToken,
			body:     marchallObj(t, score.NewScore{StudentID: "st1", SubjectID: "sub1", TermID: "t2", SessionID: "s2"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"session_id": "term does not belong to this session"}),
		},
	}
	app.run(t, tests)

	t.Run("out of bounds", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/scores", teacherToken, marchallObj(t, mathsScore(11, 0, 0, 0, 61)))
		app.do(req, rec)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var fields map[string]string
		unmarshal(t, rec, &fields)
		assert.Contains(t, fields, "ca1")
		assert.Contains(t, fields, "exam")
	})

	t.Run("computed", func(t *testing.T) {
		// caller supplied total and grade are ignored
		body := []byte(`{"student_id":"st1","subject_id":"sub1","term_id":"t2","ca1":8,"ca2":7,"assignment":9,"notes":6,"exam":55,"total":12,"grade":"F"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/scores", teacherToken, body)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SaveScoreResponse
		unmarshal(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, 85, resp.Score.Total)
		assert.Equal(t, "A", resp.Score.Grade)
		assert.Equal(t, "s1", resp.Score.SessionID)
		assert.Equal(t, staff[user.RoleTeacher].ID, resp.Score.UpdatedBy)
		assert.False(t, resp.Score.IsLocked)
	})

	t.Run("idempotent", func(t *testing.T) {
		var first SaveScoreResponse
		for i := 0; i < 2; i++ {
			req, rec := newAuthRequest(http.MethodPost, "/v1/scores", teacherToken, marchallObj(t, mathsScore(5, 5, 5, 5, 40)))
			app.do(req, rec)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp SaveScoreResponse
			unmarshal(t, rec, &resp)
			if i == 0 {
				first = resp
				continue
			}
			assert.Equal(t, first.Score.ID, resp.Score.ID)
			assert.Equal(t, 60, resp.Score.Total)
			assert.Equal(t, "B", resp.Score.Grade)
		}
	})
}

func Test_scoreApi_lock(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	teacherToken := app.token(t, staff[user.RoleTeacher])
	principalToken := app.token(t, staff[user.RolePrincipal])

	lockBody := marchallObj(t, score.LockRequest{StudentID: "st1", SubjectID: "sub1", TermID: "t2"})

	tests := []httpTest{
		{
			name: "nothing to lock", method: http.MethodPost, path: "/v1/scores/lock", token: principalToken, body: lockBody,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "score not found"}),
		},
		{
			name: "teacher cannot lock", method: http.MethodPost, path: "/v1/scores/lock", token: teacherToken, body: lockBody,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	app.run(t, tests)

	post := func(path, token string, body []byte) int {
		req, rec := newAuthRequest(http.MethodPost, path, token, body)
		return app.do(req, rec).Code
	}

	require.Equal(t, http.StatusOK, post("/v1/scores", teacherToken, marchallObj(t, mathsScore(8, 7, 9, 6, 55))))
	require.Equal(t, http.StatusOK, post("/v1/scores/lock", principalToken, lockBody))

	req, rec := newAuthRequest(http.MethodPost, "/v1/scores", teacherToken, marchallObj(t, mathsScore(10, 10, 10, 10, 60)))
	app.do(req, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error": "score entry is locked for this student/subject"}`, rec.Body.String())

	// the locked row is unchanged
	rows, err := app.Scores.Get(req.Context(), score.SheetFilter{ClassID: "c1", SubjectID: "sub1", TermID: "t2"})
	require.NoError(t, err)
	for _, row := range rows {
		if row.StudentID == "st1" {
			assert.Equal(t, 85, row.Total)
			assert.True(t, row.IsLocked)
		}
	}

	require.Equal(t, http.StatusOK, post("/v1/scores/unlock", principalToken, lockBody))
	assert.Equal(t, http.StatusOK, post("/v1/scores", teacherToken, marchallObj(t, mathsScore(10, 10, 10, 10, 60))))
}

func Test_scoreApi_query(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	teacherToken := app.token(t, staff[user.RoleTeacher])

	req, rec := newAuthRequest(http.MethodPost, "/v1/scores", teacherToken, marchallObj(t, mathsScore(8, 7, 9, 6, 55)))
	require.Equal(t, http.StatusOK, app.do(req, rec).Code)

	var saved SaveScoreResponse
	unmarshal(t, rec, &saved)

	tests := []httpTest{
		{
			name: "filter required", path: "/v1/scores?class_id=c1", token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"subject_id": "this field is required", "term_id": "this field is required"}),
		},
		{
			name: "unknown class", path: "/v1/scores?class_id=c9&subject_id=sub1&term_id=t2", token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{
			name: "class sheet", path: "/v1/scores?class_id=c1&subject_id=sub1&term_id=t2", token: teacherToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []score.Row{
				{StudentID: "st3", AdmissionNo: "ADM/23/003", FirstName: "Bolaji", LastName: "Adeyemi", Grade: "F"},
				{
					StudentID: "st1", AdmissionNo: "ADM/23/001", FirstName: "Chinedu", LastName: "Okonkwo", ScoreID: saved.Score.ID,
					CA1: 8, CA2: 7, Assignment: 9, Notes: 6, Exam: 55, Total: 85, Grade: "A",
				},
				{StudentID: "st2", AdmissionNo: "ADM/23/002", FirstName: "Amina", LastName: "Yusuf", Grade: "F"},
			}),
		},
		{
			name: "other term is empty", path: "/v1/scores?class_id=c1&subject_id=sub1&term_id=t1", token: teacherToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []score.Row{
				{StudentID: "st3", AdmissionNo: "ADM/23/003", FirstName: "Bolaji", LastName: "Adeyemi", Grade: "F"},
				{StudentID: "st1", AdmissionNo: "ADM/23/001", FirstName: "Chinedu", LastName: "Okonkwo", Grade: "F"},
				{StudentID: "st2", AdmissionNo: "ADM/23/002", FirstName: "Amina", LastName: "Yusuf", Grade: "F"},
			}),
		},
	}
	app.run(t, tests)
}
