package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/nickiconcept/E-Result-Management-System/apps/api/echo"
	"github.com/nickiconcept/E-Result-Management-System/core/audit"
	"github.com/nickiconcept/E-Result-Management-System/core/user"
	"github.com/nickiconcept/E-Result-Management-System/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	testutil.CreateUser(t, app.DB.UserRepository(), "Old Teacher", "old@school.ng", testutil.TestPassword, user.RoleTeacher, true)

	body := func(email, pwd string) []byte {
		return marchallObj(t, LoginRequest{Email: email, Password: pwd})
	}
	badCreds := marchallObj(t, httpErr{Error: "invalid credentials"})

	tests := []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/v1/auth/login", body: []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/login", body: body("nobody@school.ng", testutil.TestPassword),
			wantCode: http.StatusUnauthorized, wantData: badCreds,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login", body: body("teacher@school.ng", "Wr0ng!pass"),
			wantCode: http.StatusUnauthorized, wantData: badCreds,
		},
		{
			name: "suspended", method: http.MethodPost, path: "/v1/auth/login", body: body("old@school.ng", testutil.TestPassword),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account suspended"}),
		},
	}
	app.run(t, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/login", body(" Teacher@School.NG ", testutil.TestPassword))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, staff[user.RoleTeacher].ID, resp.User.ID)
		assert.False(t, resp.User.LastLogin.IsZero())

		// the token is usable
		req, rec = newAuthRequest(http.MethodGet, "/v1/subjects", resp.Token)
		app.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)

		logs, err := app.Audit.Query(context.Background(), audit.QueryFilter{Action: audit.ActionLogin})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, staff[user.RoleTeacher].ID, logs[0].UserID)
		assert.Equal(t, user.RoleTeacher, logs[0].UserRole)
		assert.Equal(t, "192.0.2.1", logs[0].IPAddress)
	})
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	repo := app.DB.UserRepository()

	now := time.Now().UTC().Truncate(time.Second)
	admin := testutil.CreateUser(t, repo, "Ada Admin", "ada@school.ng", "", user.RoleAdmin, false, now)
	teacher := testutil.CreateUser(t, repo, "Tunde Teacher", "tunde@school.ng", "", user.RoleTeacher, false, now.Add(time.Hour))
	principal := testutil.CreateUser(t, repo, "Pat Principal", "pat@school.ng", "", user.RolePrincipal, false, now.Add(2*time.Hour))
	retired := testutil.CreateUser(t, repo, "Rita Teacher", "rita@school.ng", "", user.RoleTeacher, true, now.Add(3*time.Hour))

	path := func(search, status string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if status != "" {
			v.Add("status", status)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	adminToken := app.token(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Bad token", path: "/v1/users", token: "not.a.token",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "Admin required", path: "/v1/users", token: app.token(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, retired, principal, teacher, admin),
		},
		{name: "search (unknown)", path: path("lol", ""), token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "search=TEACHER", path: path("TEACHER", ""), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, retired, teacher),
		},
		{
			name: "search by email", path: path("pat@", ""), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, principal),
		},
		{
			name: "role=TEACHER,ADMIN", path: path("", "", user.RoleTeacher, user.RoleAdmin), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, retired, teacher, admin),
		},
		{
			name: "status=suspended", path: path("", user.StatusSuspended), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, retired),
		},
		{
			name: "all combo", path: path("t", user.StatusActive, user.RoleTeacher), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, teacher),
		},
		{
			name: "roles", path: "/v1/users/roles", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles),
		},
	}
	app.run(t, tests)
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	adminToken := app.token(t, staff[user.RoleAdmin])

	newUser := func(email, pwd, role string) user.NewUser {
		return user.NewUser{Name: "Ngozi Eze", Email: email, Role: role, Password: pwd, PasswordConfirm: pwd}
	}

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/users", token: app.token(t, staff[user.RolePrincipal]),
			body: marchallObj(t, newUser("ngozi@school.ng", testutil.TestPassword, user.RoleTeacher)),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "email taken", method: http.MethodPost, path: "/v1/users", token: adminToken,
			body:     marchallObj(t, newUser("Teacher@school.ng", testutil.TestPassword, user.RoleTeacher)),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/users", token: adminToken,
			body:     marchallObj(t, newUser("ngozi@school.ng", "short", user.RoleTeacher)),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "unknown role", method: http.MethodPost, path: "/v1/users", token: adminToken,
			body:     marchallObj(t, newUser("ngozi@school.ng", testutil.TestPassword, "JANITOR")),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
	}
	app.run(t, tests)

	t.Run("created", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users", adminToken, marchallObj(t, newUser("ngozi@school.ng", testutil.TestPassword, user.RoleFormMaster)))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		unmarshal(t, rec, &usr)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "ngozi@school.ng", usr.Email)
		assert.Equal(t, user.RoleFormMaster, usr.Role)
		assert.Equal(t, user.StatusActive, usr.Status)

		_, err := app.Users.Authenticate(context.Background(), "ngozi@school.ng", testutil.TestPassword)
		assert.NoError(t, err)

		logs, err := app.Audit.Query(context.Background(), audit.QueryFilter{Action: audit.ActionCreateUser})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "User ngozi@school.ng", logs[0].AffectedRecord)
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	suspended := testutil.CreateUser(t, app.DB.UserRepository(), "Old Teacher", "old@school.ng", "", user.RoleTeacher, true)

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/auth/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "suspended", method: http.MethodPost, path: "/v1/auth/token-refresh", token: app.token(t, suspended),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account suspended"}),
		},
	}
	app.run(t, tests)

	t.Run("refreshed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", app.token(t, staff[user.RoleTeacher]))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp TokenResponse
		unmarshal(t, rec, &resp)
		require.NotEmpty(t, resp.Token)

		req, rec = newAuthRequest(http.MethodGet, "/v1/classes", resp.Token)
		app.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("refresh expired", func(t *testing.T) {
		origIat := time.Now().Add(-app.Conf.Server.JWTRefreshExpirationDelta - time.Minute).Unix()
		token, err := GenerateToken(GetUserClaims(staff[user.RoleTeacher], app.Conf, origIat), app.Conf)
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
		app.do(req, rec)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error": "refresh has expired"}`, rec.Body.String())
	})
}

func Test_userApi_setStatus(t *testing.T) {
	app := setup(t)
	staff := app.staff(t)
	admin := staff[user.RoleAdmin]
	adminToken := app.token(t, admin)
	teacher := staff[user.RoleTeacher]

	suspend := marchallObj(t, SetStatusRequest{Status: user.StatusSuspended})

	tests := []httpTest{
		{
			name: "self", method: http.MethodPut, path: "/v1/users/" + admin.ID + "/status", token: adminToken, body: suspend,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "unknown user", method: http.MethodPut, path: "/v1/users/nobody/status", token: adminToken, body: suspend,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "invalid status", method: http.MethodPut, path: "/v1/users/" + teacher.ID + "/status", token: adminToken,
			body:     marchallObj(t, SetStatusRequest{Status: "retired"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "invalid status"}),
		},
	}
	app.run(t, tests)

	t.Run("suspended", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+teacher.ID+"/status", adminToken, suspend)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		unmarshal(t, rec, &usr)
		assert.Equal(t, user.StatusSuspended, usr.Status)

		_, err := app.Users.Authenticate(context.Background(), teacher.Email, testutil.TestPassword)
		assert.Equal(t, user.ErrAccountSuspended, err)
	})
}
