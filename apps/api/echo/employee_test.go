package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/tujenge/kazi/core/employee"
	testutil "github.com/tujenge/kazi/tests"
)

func Test_employeeApi_login(t *testing.T) {
	app := setup(t)

	emp := testutil.CreateEmployee(t, empRepo, "Aida Kone", "aida", "aida@tujenge.io", "s3cr3tP4ss", nil, true)
	_ = testutil.CreateEmployee(t, empRepo, "N Dog", "ndog", "ndog@tujenge.io", "s3cr3tP4ss", nil, false)

	tests := []httpTest{
		{
			name: "required fields", body: marchallObj(t, LoginRequest{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown username", body: marchallObj(t, LoginRequest{Username: "who", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, LoginRequest{Username: emp.Username, Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marchallObj(t, LoginRequest{Username: "ndog", Password: "s3cr3tP4ss"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login with username", body: marchallObj(t, LoginRequest{Username: emp.Username, Password: "s3cr3tP4ss"}),
			wantCode: http.StatusOK,
		},
		{
			name: "login with email", body: marchallObj(t, LoginRequest{Username: emp.Email, Password: "s3cr3tP4ss"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/employees/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_employeeApi_query(t *testing.T) {
	app := setup(t)

	path := func(search string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/employees?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	aida := testutil.CreateEmployee(t, empRepo, "Aida Kone", "aida", "aida@tujenge.io", "", []string{employee.RoleEmployee}, true)
	brian := testutil.CreateEmployee(t, empRepo, "Brian Otieno", "brian", "brian@tujenge.io", "", []string{employee.RoleEmployee}, true)
	admin := testutil.CreateEmployee(t, empRepo, "Admin", "admin", "admin@tujenge.io", "", []string{employee.RoleAdmin}, true)
	owner := testutil.CreateEmployee(t, empRepo, "Owner", "owner", "owner@tujenge.io", "", []string{employee.RoleAdminOwner}, true)
	naughty := testutil.CreateEmployee(t, empRepo, "N Dog", "ndog", "ndog@tujenge.io", "", []string{employee.RoleEmployee}, false)

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/employees", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/employees", token: getToken(t, aida), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all", path: "/v1/employees", token: adminToken, wantData: marchallList(t, aida, brian, admin, owner, naughty)},
		{name: "search (unknown)", path: path("lol", nil), token: adminToken, wantData: empty},
		{name: "search=BRIA", path: path("BRIA", nil), token: adminToken, wantData: marchallList(t, brian)},
		{name: "role (unknown)", path: path("", nil, "lol"), token: adminToken, wantData: empty},
		{name: "role=admin:", path: path("", nil, employee.RoleAdmin), token: adminToken, wantData: marchallList(t, admin, owner)},
		{
			name: "role=employee:", path: path("", nil, employee.RoleEmployee), token: adminToken,
			wantData: marchallList(t, aida, brian, naughty),
		},
		{
			name: "is_active=true", path: path("", bPtr(true)), token: adminToken,
			wantData: marchallList(t, aida, brian, admin, owner),
		},
		{name: "is_active=false", path: path("", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_employeeApi_retrieve(t *testing.T) {
	app := setup(t)

	aida := testutil.CreateEmployee(t, empRepo, "Aida Kone", "aida", "aida@tujenge.io", "", []string{employee.RoleEmployee}, true)
	brian := testutil.CreateEmployee(t, empRepo, "Brian Otieno", "brian", "brian@tujenge.io", "", []string{employee.RoleEmployee}, true)
	admin := testutil.CreateEmployee(t, empRepo, "Admin", "admin", "admin@tujenge.io", "", []string{employee.RoleAdmin}, true)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/employees/" + aida.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Own profile", path: "/v1/employees/" + aida.ID, token: getToken(t, aida), wantCode: http.StatusOK, wantData: marchallObj(t, aida)},
		{
			name: "Someone else's profile not found", path: "/v1/employees/" + brian.ID, token: getToken(t, aida),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Admin reads any", path: "/v1/employees/" + brian.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, brian)},
		{
			name: "Unknown ID", path: "/v1/employees/0ae8e8b0-0000-0000-0000-000000000000", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_employeeApi_refreshToken(t *testing.T) {
	app := setup(t)

	naughty := testutil.CreateEmployee(t, empRepo, "N Dog", "ndog", "ndog@tujenge.io", "", []string{employee.RoleEmployee}, false)
	aida := testutil.CreateEmployee(t, empRepo, "Aida Kone", "aida", "aida@tujenge.io", "", []string{employee.RoleEmployee}, true)

	now := time.Now()
	unrefreshableClaims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    testConf.AppName,
			Subject:   aida.ID,
			Audience:  "Tujenge",
			ExpiresAt: now.Add(testConf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * testConf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     aida.Username,
		Email:        aida.Email,
		IsEmployee:   aida.IsEmployee(),
		IsAdmin:      aida.IsAdmin(),
		Roles:        aida.Roles,
	}
	unrefreshableToken, err := GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive employee not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: getToken(t, aida), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/employees/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess the new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_employeeApi_resetPassword(t *testing.T) {
	app := setup(t)

	emp := testutil.CreateEmployee(t, empRepo, "Aida Kone", "aida", "aida@tujenge.io", "", []string{employee.RoleEmployee}, true)
	successData := marchallObj(t, SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData,
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, PasswordResetRequest{Email: emp.Email}),
			wantData: successData,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/employees/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_employeeApi_destroy(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateEmployee(t, empRepo, "Admin", "admin", "admin@tujenge.io", "", []string{employee.RoleAdmin}, true)
	aida := testutil.CreateEmployee(t, empRepo, "Aida Kone", "aida", "aida@tujenge.io", "", []string{employee.RoleEmployee}, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/employees/" + aida.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/employees/" + admin.ID, token: getToken(t, aida), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "No self-delete", path: "/v1/employees/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Deleted", path: "/v1/employees/" + aida.ID, token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if tt.wantData != nil {
				if ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData); err != nil || !ok {
					t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
				}
			}
		})
	}
}

func Test_employeeApi_queryRoles(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateEmployee(t, empRepo, "Admin", "admin", "admin@tujenge.io", "", []string{employee.RoleAdmin}, true)
	aida := testutil.CreateEmployee(t, empRepo, "Aida Kone", "aida", "aida@tujenge.io", "", []string{employee.RoleEmployee}, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, aida), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Get all roles", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, employee.Roles)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/employees/roles"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
