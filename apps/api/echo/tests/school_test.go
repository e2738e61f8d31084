package tests

import (
	"net/http"
	"testing"

	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/storage/fixtures"
)

func Test_schoolApi(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	token := app.token(t, staff[user.RoleTeacher])
	fx := fixtures.School()

	tests := []httpTest{
		{name: "Auth required", path: "/v1/classes", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "classes", path: "/v1/classes", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, fx.Classes)},
		{
			name: "subjects", path: "/v1/subjects", token: token, wantCode: http.StatusOK,
			wantData: marchallList(t, fx.Subjects[4], fx.Subjects[2], fx.Subjects[3], fx.Subjects[1], fx.Subjects[0]),
		},
		{name: "sessions", path: "/v1/sessions", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, fx.Sessions)},
		{
			name: "students of a class", path: "/v1/students?class_id=c2", token: token, wantCode: http.StatusOK,
			wantData: marchallList(t, fx.Students[4], fx.Students[3]),
		},
		{
			name: "unknown class", path: "/v1/students?class_id=c9", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{name: "student", path: "/v1/students/st1", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, fx.Students[0])},
		{
			name: "unknown student", path: "/v1/students/st404", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "parents are not staff", path: "/v1/classes", token: app.token(t, user.User{ID: "p1", Role: user.RoleParent}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	app.run(t, tests)
}
