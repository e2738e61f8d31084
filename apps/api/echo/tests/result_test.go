package tests

import (
	"bytes"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/time/rate"

	"github.com/nickiconcept/E-Result-Management-System/core/pin"
	"github.com/nickiconcept/E-Result-Management-System/core/remark"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/services/export"
)

var pinRegex = regexp.MustCompile(`^[0-9]{10}$`)

func (app testApp) generatePins(t *testing.T, token string, gr pin.GenerateRequest) []pin.ResultPin {
	req, rec := newAuthRequest(http.MethodPost, "/v1/pins", token, marchallObj(t, gr))
	app.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var pins []pin.ResultPin
	unmarshal(t, rec, &pins)
	return pins
}

func checkBody(t *testing.T, admissionNo, value string) []byte {
	return marchallObj(t, pin.CheckRequest{AdmissionNo: admissionNo, Pin: value})
}

func Test_resultApi_checkResult(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)

	// a teacher enters the Mathematics score of ADM/23/001 for the second term
	req, rec := newAuthRequest(http.MethodPost, "/v1/scores", app.token(t, staff[user.RoleTeacher]), marchallObj(t, mathsScore(8, 7, 9, 6, 55)))
	require.Equal(t, http.StatusOK, app.do(req, rec).Code, rec.Body.String())

	// the form master and the principal write their remarks
	fm := "Chinedu is a diligent student."
	req, rec = newAuthRequest(http.MethodPut, "/v1/remarks", app.token(t, staff[user.RoleFormMaster]),
		marchallObj(t, remark.UpdateRemark{StudentID: "st1", TermID: "t2", FormMasterRemark: &fm}))
	require.Equal(t, http.StatusOK, app.do(req, rec).Code, rec.Body.String())

	// the admin issues the pin
	pins := app.generatePins(t, app.token(t, staff[user.RoleAdmin]), pin.GenerateRequest{StudentIDs: []string{"st1"}, TermID: "t2"})
	require.Len(t, pins, 1)
	p := pins[0]
	assert.Regexp(t, pinRegex, p.Pin)
	assert.Equal(t, 5, p.MaxUsage)
	assert.Equal(t, 0, p.UsageCount)
	assert.WithinDuration(t, time.Now().Add(90*24*time.Hour), p.ExpiryDate, time.Minute)

	tests := []httpTest{
		{
			name: "bad pin format", method: http.MethodPost, path: "/v1/results/check", body: checkBody(t, "ADM/23/001", "12345"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"pin": "must be exactly 10 digits"}),
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/v1/results/check", body: checkBody(t, "ADM/99/999", p.Pin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "pin of another student", method: http.MethodPost, path: "/v1/results/check", body: checkBody(t, "ADM/23/002", p.Pin),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid pin"}),
		},
	}
	app.run(t, tests)

	// the parent checks five times, admission number in any case
	for i := 1; i <= 5; i++ {
		req, rec := newRequest(http.MethodPost, "/v1/results/check", checkBody(t, " adm/23/001 ", p.Pin))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var card pin.ReportCard
		unmarshal(t, rec, &card)
		assert.Equal(t, 5-i, card.UsesLeft)
		if i > 1 {
			continue
		}

		assert.Equal(t, "st1", card.Student.ID)
		assert.Equal(t, "JSS1", card.Class)
		assert.Equal(t, "Gold", card.Arm)
		assert.Equal(t, "Second", card.Term)
		assert.Equal(t, "2023/2024", card.Session)
		assert.Equal(t, []pin.ReportRow{{Subject: "Mathematics", CA: 30, Exam: 55, Total: 85, Grade: "A"}}, card.Scores)
		assert.Equal(t, 85.0, card.Average)
		assert.Equal(t, pin.Remarks{FormMaster: fm}, card.Remarks)
	}

	// the sixth check is refused before any increment
	req, rec = newRequest(http.MethodPost, "/v1/results/check", checkBody(t, "ADM/23/001", p.Pin))
	app.do(req, rec)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error": "pin usage limit reached"}`, rec.Body.String())

	stored, err := app.Pins.Query(req.Context(), pin.QueryFilter{Pin: p.Pin})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 5, stored[0].UsageCount)
}

func Test_resultApi_rateLimit(t *testing.T) {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(1.0 / 60),
		Burst:     2,
		ExpiresIn: time.Minute,
	})
	app := setup(t, store)

	for i := 0; i < 2; i++ {
		req, rec := newRequest(http.MethodPost, "/v1/results/check", checkBody(t, "ADM/23/001", "1234567890"))
		app.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	req, rec := newRequest(http.MethodPost, "/v1/results/check", checkBody(t, "ADM/23/001", "1234567890"))
	app.do(req, rec)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func Test_resultApi_generatePins(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	adminToken := app.token(t, staff[user.RoleAdmin])

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/pins", token: app.token(t, staff[user.RolePrincipal]),
			body:     marchallObj(t, pin.GenerateRequest{ClassID: "c1", TermID: "t2"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "nobody to issue for", method: http.MethodPost, path: "/v1/pins", token: adminToken,
			body:     marchallObj(t, pin.GenerateRequest{TermID: "t2"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_ids": "one of student_ids or class_id is required"}),
		},
		{
			name: "unknown class", method: http.MethodPost, path: "/v1/pins", token: adminToken,
			body:     marchallObj(t, pin.GenerateRequest{ClassID: "c9", TermID: "t2"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
	}
	app.run(t, tests)

	t.Run("class", func(t *testing.T) {
		pins := app.generatePins(t, adminToken, pin.GenerateRequest{ClassID: "c1", TermID: "t2"})
		require.Len(t, pins, 3)
		for _, p := range pins {
			assert.Regexp(t, pinRegex, p.Pin)
			assert.Equal(t, "t2", p.TermID)
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/pins?term_id=t2&student_id=st1", adminToken)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		var listed []pin.ResultPin
		unmarshal(t, rec, &listed)
		require.Len(t, listed, 1)
		assert.Equal(t, "st1", listed[0].StudentID)
	})

	t.Run("xlsx", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/pins?format=xlsx", adminToken,
			marchallObj(t, pin.GenerateRequest{StudentIDs: []string{"st4", "st5"}, TermID: "t2"}))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, export.XLSXContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "pins-t2.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		rows, err := f.GetRows(export.PinsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "ADM/23/004", rows[1][0])
		assert.Equal(t, "Efe Okoro", rows[1][1])
		assert.Regexp(t, pinRegex, rows[1][2])
		assert.Equal(t, "Second", rows[1][3])
	})
}
