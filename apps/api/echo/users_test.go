package echoapi

import (
	"net/http"
	"testing"

	"github.com/noteshub/backend/core/user"
)

func Test_userApi_register(t *testing.T) {
	env := setup(t)

	tests := []httpTest{
		{
			name: "name and password are required",
			body: marchallObj(t, map[string]string{"username": "jdoe"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":             "this field is required",
				"password":         "this field is required",
				"password_confirm": "this field is required",
			}),
		},
		{
			name: "password confirmation must match",
			body: marchallObj(t, map[string]string{
				"name": "Jane Doe", "username": "jdoe",
				"password": "v3rys3cret", "password_confirm": "nope1234",
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "valid registration",
			body: marchallObj(t, map[string]string{
				"name": "Jane Doe", "username": "jdoe", "email": "jdoe@test.cd",
				"password": "v3rys3cret", "password_confirm": "v3rys3cret",
			}),
			wantCode: http.StatusCreated,
		},
		{
			name: "duplicate username rejected",
			body: marchallObj(t, map[string]string{
				"name": "Jane Imposter", "username": "jdoe",
				"password": "v3rys3cret", "password_confirm": "v3rys3cret",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/v1/users/register", tt.body)
			env.app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}

	// registration always lands a student role, never anything grander
	usr, err := env.usrSvc.GetByUsername("jdoe")
	if err != nil {
		t.Fatalf("GetByUsername(): %v", err)
	}
	if !usr.IsStudent() || usr.IsAdmin() || usr.IsModerator() {
		t.Errorf("roles = %v; want student only", usr.Roles)
	}

	// a welcome email went out
	var found bool
	for _, msg := range env.mailSvc.SentMessages() {
		for _, to := range msg.To {
			if to.Address == "jdoe@test.cd" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected a welcome email to jdoe@test.cd")
	}
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	active := createUser(t, env.usrRepo, "Active", "active", "active@test.cd", "s3cret123", user.StudentRoles, true)
	createUser(t, env.usrRepo, "Sleeper", "sleeper", "sleeper@test.cd", "s3cret123", user.StudentRoles, false)
	_ = active

	tests := []httpTest{
		{
			name:     "unknown user",
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: "s3cret123"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Username: "active", Password: "wrongpass"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     marchallObj(t, LoginRequest{Username: "sleeper", Password: "s3cret123"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "login with username",
			body:     marchallObj(t, LoginRequest{Username: "active", Password: "s3cret123"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login with email",
			body:     marchallObj(t, LoginRequest{Username: "active@test.cd", Password: "s3cret123"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/v1/users/login", tt.body)
			env.app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	student := createUser(t, env.usrRepo, "Student", "student", "student@test.cd", "", user.StudentRoles, true)
	mod := createUser(t, env.usrRepo, "Mod", "mod", "mod@test.cd", "", user.ModeratorRoles, true)
	admin := createUser(t, env.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "auth required", path: "/api/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", path: "/api/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "get all", path: "/api/v1/users", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, student, mod, admin),
		},
		{
			name: "filter by role", path: "/api/v1/users?role=" + user.RoleModerator, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, mod),
		},
		{
			name: "search", path: "/api/v1/users?search=stud", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, student),
		},
		{
			name: "roles list", path: "/api/v1/users/roles", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	env := setup(t)

	student := createUser(t, env.usrRepo, "Student", "student", "student@test.cd", "", user.StudentRoles, true)
	other := createUser(t, env.usrRepo, "Other", "other", "other@test.cd", "", user.StudentRoles, true)
	admin := createUser(t, env.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	studentToken := getToken(t, student)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "owner can retrieve self", method: http.MethodGet,
			path: "/api/v1/users/" + student.ID, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, student),
		},
		{
			name: "non-owner cannot retrieve", method: http.MethodGet,
			path: "/api/v1/users/" + other.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin can retrieve anyone", method: http.MethodGet,
			path: "/api/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
		{
			name: "owner cannot change own roles", method: http.MethodPut,
			path: "/api/v1/users/" + student.ID, token: studentToken,
			body:     marchallObj(t, map[string]interface{}{"roles": []string{user.RoleAdmin}}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "owner can change own name", method: http.MethodPut,
			path: "/api/v1/users/" + student.ID, token: studentToken,
			body:     marchallObj(t, map[string]string{"name": "Renamed"}),
			wantCode: http.StatusOK,
		},
		{
			name: "only admin can delete", method: http.MethodDelete,
			path: "/api/v1/users/" + student.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin cannot delete themselves", method: http.MethodDelete,
			path: "/api/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin can delete others", method: http.MethodDelete,
			path: "/api/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil && tt.wantCode != http.StatusNoContent {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}
