package tests

import (
	"net/http"
	"testing"

	. "github.com/nickiconcept/E-Result-Management-System/apps/api/echo"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
)

func Test_remarkApi(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	fmToken := app.token(t, staff[user.RoleFormMaster])
	principalToken := app.token(t, staff[user.RolePrincipal])

	str := func(s string) *string { return &s }
	fmRemark := remark.UpdateRemark{StudentID: "st1", TermID: "t2", FormMasterRemark: str("  Works hard.  ")}

	tests := []httpTest{
		{
			name: "teacher cannot write remarks", method: http.MethodPut, path: "/v1/remarks", token: app.token(t, staff[user.RoleTeacher]),
			body:     marchallObj(t, fmRemark),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "form master cannot write the principal remark", method: http.MethodPut, path: "/v1/remarks", token: fmToken,
			body:     marchallObj(t, remark.UpdateRemark{StudentID: "st1", TermID: "t2", PrincipalRemark: str("Promoted.")}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"principal_remark": "your role cannot write this remark"}),
		},
		{
			name: "not written yet", path: "/v1/remarks?student_id=st1&term_id=t2", token: fmToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "remark not found"}),
		},
		{
			name: "form master remark", method: http.MethodPut, path: "/v1/remarks", token: fmToken, body: marchallObj(t, fmRemark),
			wantCode: http.StatusOK,
		},
		{
			name: "principal remark", method: http.MethodPut, path: "/v1/remarks", token: principalToken,
			body:     marchallObj(t, remark.UpdateRemark{StudentID: "st1", TermID: "t2", PrincipalRemark: str("Promoted.")}),
			wantCode: http.StatusOK,
		},
		{
			name: "unknown student", method: http.MethodPut, path: "/v1/remarks", token: principalToken,
			body:     marchallObj(t, remark.UpdateRemark{StudentID: "st404", TermID: "t2", PrincipalRemark: str("Promoted.")}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "draft falls back without a writer", method: http.MethodPost, path: "/v1/remarks/draft", token: principalToken,
			body:     marchallObj(t, remark.DraftRequest{StudentID: "st1", TermID: "t2"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, DraftResponse{Remark: remark.FallbackRemark}),
		},
	}
	app.run(t, tests)

	t.Run("both remarks kept", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/remarks?student_id=st1&term_id=t2", principalToken)
		app.do(req, rec)

		var r remark.StudentRemark
		unmarshal(t, rec, &r)
		if r.FormMasterRemark != "Works hard." || r.PrincipalRemark != "Promoted." || r.SessionID != "s1" {
			t.Errorf("failed! remark = %+v", r)
		}
		if r.UpdatedBy != staff[user.RolePrincipal].ID {
			t.Errorf("failed! updated_by = %v; want %v", r.UpdatedBy, staff[user.RolePrincipal].ID)
		}
	})
}
