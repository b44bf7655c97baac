// SPDX-License-Identifier: ice License 1.0

package console

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bid-agri/console/api"
	"github.com/bid-agri/console/auth/guard"
	"github.com/bid-agri/console/auth/session"
	"github.com/bid-agri/console/auth/store"
	"github.com/bid-agri/console/auth/token"
	tokenFixture "github.com/bid-agri/console/auth/token/fixture"
	"github.com/bid-agri/console/server"
	"github.com/bid-agri/console/server/fixture"
)

const (
	superAdmin = "root@bid-agri.test"
	storeAdmin = "store@bid-agri.test"
	farmer     = "farmer@bid-agri.test"
	buyer      = "buyer@bid-agri.test"
	password   = "s3cret"

	verificationToken = "0b6f0bd2-3b1a-4c36-9f0e-3c4b1b3c2f11"
)

type (
	remoteCall struct {
		Body   map[string]any
		Method string
		Path   string
		Query  string
		Bearer string
	}
	// remote is an in-memory stand-in for the marketplace API.
	remote struct {
		users   map[string][]string
		tenants map[int64]*api.Tenant
		calls   []*remoteCall
		nextID  int64
		mx      sync.Mutex
	}
	sessionBody struct {
		User *struct {
			ID    string   `json:"id"`
			Email string   `json:"email"`
			Roles []string `json:"roles"`
		} `json:"user"`
		CurrentTenant    *api.Tenant   `json:"currentTenant"`
		Username         string        `json:"username"`
		LandingPath      string        `json:"landingPath"`
		AvailableTenants []*api.Tenant `json:"availableTenants"`
		IsAuthenticated  bool          `json:"isAuthenticated"`
		IsLoading        bool          `json:"isLoading"`
	}
	errorBody struct {
		Data  map[string]any `json:"data"`
		Error string         `json:"error"`
		Code  string         `json:"code"`
	}
	pageBody struct {
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
		Name   string `json:"page"`
		From   string `json:"from"`
		Notice string `json:"notice"`
	}
)

func newRemote() *remote {
	return &remote{
		users: map[string][]string{
			superAdmin: {token.RoleSuperAdmin},
			storeAdmin: {"ROLE_TENANT_ADMIN"},
			farmer:     {token.RoleSystemUser},
			buyer:      {"BUYER"},
		},
		tenants: make(map[int64]*api.Tenant),
	}
}

func newTestConsole(t *testing.T) (fixture.HTTPTestClient, *remote) {
	t.Helper()
	rem := newRemote()
	apiSrv := httptest.NewServer(rem.handler())
	t.Cleanup(apiSrv.Close)

	return newTestConsoleFor(t, apiSrv.URL+"/api/v1"), rem
}

func newTestConsoleFor(t *testing.T, apiBaseURL string) fixture.HTTPTestClient {
	t.Helper()
	grd := guard.NewWithConfig(&guard.Config{LandingRules: []*guard.LandingRule{
		{Role: token.RoleTenantAdmin, Path: "/storeDashboard"},
		{Role: token.RoleSystemUser, Path: "/farmerDashboard"},
		{Role: token.RoleSuperAdmin, Path: "/dashboard"},
	}})
	policy := &session.Policy{Name: "dashboard", AllowedRoles: []string{token.RoleTenantAdmin, token.RoleSystemUser, token.RoleSuperAdmin}}
	svc := new(service).setup(new(Config), api.NewWithConfig(&api.Config{BaseURL: apiBaseURL}), store.NewMemory(), grd, policy, nil)
	t.Cleanup(func() { assert.NoError(t, svc.Close(context.Background())) })

	return fixture.NewHTTPTestClient(t, server.NewRouter(svc, ""), "")
}

func decode[T any](t *testing.T, body string) *T {
	t.Helper()
	val := new(T)
	require.NoError(t, json.Unmarshal([]byte(body), val), body)

	return val
}

func login(ctx context.Context, t *testing.T, client fixture.HTTPTestClient, userName string) *sessionBody {
	t.Helper()
	body, headers := client.WrapJSONBody(fmt.Sprintf(`{"userName":%q,"password":%q}`, userName, password))
	resp, status, _ := client.Post(ctx, t, "/v1/session", body, headers)
	require.Equal(t, http.StatusOK, status, resp)

	return decode[sessionBody](t, resp)
}

func currentSession(ctx context.Context, t *testing.T, client fixture.HTTPTestClient) *sessionBody {
	t.Helper()
	resp, status, _ := client.Get(ctx, t, "/v1/session")
	require.Equal(t, http.StatusOK, status, resp)

	return decode[sessionBody](t, resp)
}

func TestConsole_HealthCheck(t *testing.T) {
	client, _ := newTestConsole(t)
	client.TestHealthCheck(context.Background(), t)
}

func TestLogin_AllowedRole(t *testing.T) {
	ctx := context.Background()
	client, rem := newTestConsole(t)

	sess := login(ctx, t, client, storeAdmin)
	assert.True(t, sess.IsAuthenticated)
	assert.False(t, sess.IsLoading)
	require.NotNil(t, sess.User)
	assert.Equal(t, storeAdmin, sess.User.ID)
	assert.Equal(t, []string{"ROLE_TENANT_ADMIN"}, sess.User.Roles)
	assert.Equal(t, storeAdmin, sess.Username)
	assert.Equal(t, "/storeDashboard", sess.LandingPath)
	assert.Equal(t, map[string]any{"userName": storeAdmin, "password": password}, rem.lastCall(t, "/api/v1/auth/login").Body)

	resp, status, _ := client.Get(ctx, t, "/storeDashboard")
	require.Equal(t, http.StatusOK, status, resp)
	page := decode[pageBody](t, resp)
	assert.Equal(t, "storeDashboard", page.Name)
	require.NotNil(t, page.User)
	assert.Equal(t, storeAdmin, page.User.ID)

	sess = currentSession(ctx, t, client)
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, []string{"ROLE_TENANT_ADMIN"}, sess.User.Roles)
}

func TestLogin_RoleNotAllowed(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestConsole(t)

	body, headers := client.WrapJSONBody(fmt.Sprintf(`{"userName":%q,"password":%q}`, buyer, password))
	resp, status, _ := client.Post(ctx, t, "/v1/session", body, headers)
	require.Equal(t, http.StatusForbidden, status, resp)
	failure := decode[errorBody](t, resp)
	assert.Equal(t, session.AccessDeniedCode, failure.Code)
	assert.Contains(t, failure.Error, token.RoleTenantAdmin)
	assert.Equal(t, []any{"BUYER"}, failure.Data["roles"])

	sess := currentSession(ctx, t, client)
	assert.False(t, sess.IsAuthenticated)
	assert.Nil(t, sess.User)
	assert.Empty(t, sess.Username)
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()
	client, rem := newTestConsole(t)

	body, headers := client.WrapJSONBody(fmt.Sprintf(`{"userName":%q,"password":"wrong"}`, farmer))
	resp, status, _ := client.Post(ctx, t, "/v1/session", body, headers)
	require.Equal(t, http.StatusUnauthorized, status, resp)
	assert.Equal(t, &errorBody{Error: "Bad credentials", Code: InvalidCredentialsCode}, decode[errorBody](t, resp))
	assert.Len(t, rem.callsTo("/api/v1/auth/login"), 1)

	body, headers = client.WrapJSONBody(`{"userName":"` + farmer + `"}`)
	resp, status, _ = client.Post(ctx, t, "/v1/session", body, headers)
	require.Equal(t, http.StatusUnprocessableEntity, status, resp)
	assert.Equal(t, "MISSING_PROPERTIES", decode[errorBody](t, resp).Code)
	assert.Len(t, rem.callsTo("/api/v1/auth/login"), 1)
}

func TestLogin_RemoteUnavailable(t *testing.T) {
	ctx := context.Background()
	apiSrv := httptest.NewServer(http.NotFoundHandler())
	apiSrv.Close()
	client := newTestConsoleFor(t, apiSrv.URL)

	body, headers := client.WrapJSONBody(fmt.Sprintf(`{"userName":%q,"password":%q}`, farmer, password))
	resp, status, _ := client.Post(ctx, t, "/v1/session", body, headers)
	require.Equal(t, http.StatusBadGateway, status, resp)
	assert.Equal(t, RemoteAPIUnavailableCode, decode[errorBody](t, resp).Code)
}

func TestGuardedPages(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestConsole(t)

	resp, status, headers := client.Get(ctx, t, "/dashboard")
	require.Equal(t, http.StatusFound, status, resp)
	assert.Equal(t, "/?from=%2Fdashboard", headers.Get("Location"))

	resp, status, _ = client.Get(ctx, t, "/?from=%2Fdashboard")
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, &pageBody{Name: "home", From: "/dashboard"}, decode[pageBody](t, resp))

	login(ctx, t, client, farmer)

	resp, status, headers = client.Get(ctx, t, "/storeDashboard")
	require.Equal(t, http.StatusFound, status, resp)
	assert.Equal(t, "/farmerDashboard?"+url.Values{guard.NoticeQueryParam: {guard.AccessDeniedNotice}}.Encode(), headers.Get("Location"))

	resp, status, headers = client.Get(ctx, t, "/")
	require.Equal(t, http.StatusFound, status, resp)
	assert.Equal(t, "/farmerDashboard", headers.Get("Location"))

	resp, status, _ = client.Get(ctx, t, "/farmerDashboard?notice=denied")
	require.Equal(t, http.StatusOK, status, resp)
	page := decode[pageBody](t, resp)
	assert.Equal(t, "farmerDashboard", page.Name)
	assert.Equal(t, "denied", page.Notice)

	resp, status, _ = client.Get(ctx, t, "/profile")
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, "profile", decode[pageBody](t, resp).Name)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestConsole(t)

	_, status, _ := client.Delete(ctx, t, "/v1/session")
	assert.Equal(t, http.StatusNoContent, status)

	login(ctx, t, client, superAdmin)
	_, status, _ = client.Get(ctx, t, "/dashboard")
	require.Equal(t, http.StatusOK, status)

	_, status, _ = client.Delete(ctx, t, "/v1/session")
	assert.Equal(t, http.StatusNoContent, status)
	assert.False(t, currentSession(ctx, t, client).IsAuthenticated)
	_, status, headers := client.Get(ctx, t, "/dashboard")
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/?from=%2Fdashboard", headers.Get("Location"))
}

func TestSessions_ArePerClient(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestConsole(t)
	other := client.NewBrowser(t)

	login(ctx, t, client, superAdmin)
	assert.False(t, currentSession(ctx, t, other).IsAuthenticated)
	login(ctx, t, other, farmer)

	assert.Equal(t, superAdmin, currentSession(ctx, t, client).Username)
	assert.Equal(t, farmer, currentSession(ctx, t, other).Username)
}

//nolint:funlen // A whole flow.
func TestTenants_SuperAdmin(t *testing.T) {
	ctx := context.Background()
	client, rem := newTestConsole(t)
	login(ctx, t, client, superAdmin)

	body, headers := client.WrapJSONBody(`{"tenantCode":"STORE-1","tenantName":"Green Valley Agro","enabled":true}`)
	resp, status, _ := client.Post(ctx, t, "/v1/tenants", body, headers)
	require.Equal(t, http.StatusCreated, status, resp)
	created := decode[api.Tenant](t, resp)
	assert.Equal(t, &api.Tenant{ID: 1, TenantCode: "STORE-1", TenantName: "Green Valley Agro", Enabled: true}, created)
	assert.True(t, strings.HasPrefix(rem.lastCall(t, "/api/v1/tenant").Bearer, "ey"))

	body, headers = client.WrapJSONBody(`{"tenantCode":"STORE-2","tenantName":"Hill Farms"}`)
	_, status, _ = client.Post(ctx, t, "/v1/tenants", body, headers)
	require.Equal(t, http.StatusCreated, status)

	resp, status, _ = client.Get(ctx, t, "/v1/tenants")
	require.Equal(t, http.StatusOK, status, resp)
	tenants := *decode[[]*api.Tenant](t, resp)
	require.Len(t, tenants, 2)
	assert.Equal(t, "Hill Farms", tenants[1].TenantName)
	assert.Len(t, currentSession(ctx, t, client).AvailableTenants, 2)

	resp, status, _ = client.Get(ctx, t, "/v1/tenants/2")
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, "STORE-2", decode[api.Tenant](t, resp).TenantCode)
	resp, status, _ = client.Get(ctx, t, "/v1/tenants/42")
	require.Equal(t, http.StatusNotFound, status, resp)
	assert.Equal(t, &errorBody{Error: "Tenant not found", Code: NotFoundCode}, decode[errorBody](t, resp))

	body, headers = client.WrapJSONBody(`{"tenantId":1}`)
	resp, status, _ = client.Put(ctx, t, "/v1/session/tenant", body, headers)
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, created, decode[sessionBody](t, resp).CurrentTenant)

	body, headers = client.WrapJSONBody(`{"tenantCode":"STORE-1","tenantName":"Green Valley Agro Co.","enabled":false}`)
	resp, status, _ = client.Put(ctx, t, "/v1/tenants/1", body, headers)
	require.Equal(t, http.StatusOK, status, resp)
	assert.Equal(t, &api.Tenant{ID: 1, TenantCode: "STORE-1", TenantName: "Green Valley Agro Co."}, decode[api.Tenant](t, resp))
	assert.Equal(t, "Green Valley Agro Co.", currentSession(ctx, t, client).CurrentTenant.TenantName)

	_, status, _ = client.Delete(ctx, t, "/v1/tenants/1")
	require.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, currentSession(ctx, t, client).CurrentTenant)
	resp, _, _ = client.Get(ctx, t, "/v1/tenants")
	assert.Len(t, *decode[[]*api.Tenant](t, resp), 1)
}

func TestTenants_RequireSuperAdmin(t *testing.T) {
	ctx := context.Background()
	client, rem := newTestConsole(t)

	resp, status, _ := client.Get(ctx, t, "/v1/tenants")
	require.Equal(t, http.StatusUnauthorized, status, resp)
	assert.Equal(t, NotAuthenticatedCode, decode[errorBody](t, resp).Code)

	login(ctx, t, client, storeAdmin)
	resp, status, _ = client.Get(ctx, t, "/v1/tenants")
	require.Equal(t, http.StatusForbidden, status, resp)
	failure := decode[errorBody](t, resp)
	assert.Equal(t, session.AccessDeniedCode, failure.Code)
	assert.Equal(t, []any{"ROLE_TENANT_ADMIN"}, failure.Data["roles"])
	assert.Empty(t, rem.callsTo("/api/v1/tenants"))

	body, headers := client.WrapJSONBody(`{"tenantId":1}`)
	_, status, _ = client.Put(ctx, t, "/v1/session/tenant", body, headers)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateTenantAdmin(t *testing.T) {
	ctx := context.Background()
	client, rem := newTestConsole(t)
	login(ctx, t, client, superAdmin)

	body, headers := client.WrapJSONBody(`{"firstName":"Jane","lastName":"Doe","email":"jane@store.test","password":"t3mp","matchingPassword":"other"}`)
	resp, status, _ := client.Post(ctx, t, "/v1/tenants/7/admins", body, headers)
	require.Equal(t, http.StatusUnprocessableEntity, status, resp)
	assert.Equal(t, PasswordsMismatchCode, decode[errorBody](t, resp).Code)
	assert.Empty(t, rem.callsTo("/api/v1/user/register"))

	body, headers = client.WrapJSONBody(`{"firstName":"Jane","lastName":"Doe","email":"jane@store.test","password":"t3mp","matchingPassword":"t3mp"}`)
	resp, status, _ = client.Post(ctx, t, "/v1/tenants/7/admins", body, headers)
	require.Equal(t, http.StatusNoContent, status, resp)
	assert.Equal(t, map[string]any{
		"tenantDTO":        map[string]any{"id": float64(7)},
		"firstName":        "Jane",
		"lastName":         "Doe",
		"email":            "jane@store.test",
		"tempPassword":     "t3mp",
		"matchingPassword": "t3mp",
		"roleDTOs":         []any{map[string]any{"id": float64(defaultTenantAdminRoleID)}},
	}, rem.lastCall(t, "/api/v1/user/register").Body)

	body, headers = client.WrapJSONBody(`{"email":"jane@store.test"}`)
	_, status, _ = client.Post(ctx, t, "/v1/users/verification-token", body, headers)
	require.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, "email=jane%40store.test", rem.lastCall(t, "/api/v1/user/resendVerifyToken").Query)
}

func TestAnonymousUserFlows(t *testing.T) {
	ctx := context.Background()
	client, rem := newTestConsole(t)

	resp, status, _ := client.Get(ctx, t, "/v1/email-verification?token="+verificationToken)
	require.Equal(t, http.StatusOK, status, resp)
	assert.JSONEq(t, `{"message":"your account was verified"}`, resp)

	resp, status, _ = client.Get(ctx, t, "/v1/email-verification?token=bogus")
	require.Equal(t, http.StatusBadRequest, status, resp)
	assert.Equal(t, &errorBody{Error: "Invalid token", Code: InvalidRequestCode}, decode[errorBody](t, resp))

	_, status, _ = client.Get(ctx, t, "/v1/email-verification")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	body, headers := client.WrapJSONBody(`{"email":"jane@store.test"}`)
	_, status, _ = client.Post(ctx, t, "/v1/password/reset-token", body, headers)
	require.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, map[string]any{"email": "jane@store.test"}, rem.lastCall(t, "/api/v1/user/resetPasswordToken").Body)

	body, headers = client.WrapJSONBody(`{"userName":"jane@store.test","password":"n3w","token":"` + verificationToken + `"}`)
	_, status, _ = client.Post(ctx, t, "/v1/password/reset", body, headers)
	require.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, rem.lastCall(t, "/api/v1/user/resetPassword").Bearer)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	client, rem := newTestConsole(t)

	body, headers := client.WrapJSONBody(`{"oldPassword":"s3cret","newPassword":"n3w"}`)
	_, status, _ := client.Post(ctx, t, "/v1/password/change", body, headers)
	require.Equal(t, http.StatusUnauthorized, status)

	for userName, loginPath := range map[string]string{storeAdmin: "/storeLogin", farmer: "/farmerLogin", superAdmin: defaultLoginPage} {
		login(ctx, t, client, userName)
		body, headers = client.WrapJSONBody(`{"oldPassword":"s3cret","newPassword":"n3w"}`)
		resp, status, _ := client.Post(ctx, t, "/v1/password/change", body, headers)
		require.Equal(t, http.StatusOK, status, resp)
		assert.JSONEq(t, `{"loginPath":"`+loginPath+`"}`, resp)
		assert.Equal(t, map[string]any{"email": userName, "oldPassword": "s3cret", "newPassword": "n3w"}, rem.lastCall(t, "/api/v1/user/changePassword").Body)
		assert.False(t, currentSession(ctx, t, client).IsAuthenticated)
	}
}

func (r *remote) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, req *http.Request) {
		body := r.record(req)
		userName, _ := body["userName"].(string) //nolint:errcheck // Checked below.
		roles, found := r.users[userName]
		if !found || body["password"] != password {
			reply(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials", "success": false})

			return
		}
		tok := tokenFixture.Generate(stdlibtime.Now(), userName, stdlibtime.Hour, roles...)
		reply(w, http.StatusOK, map[string]any{"payload": map[string]any{"jwtToken": tok}, "resultStatus": api.ResultStatusSuccessful})
	})
	mux.HandleFunc("GET /api/v1/user/verifyRegistration", func(w http.ResponseWriter, req *http.Request) {
		r.record(req)
		if req.URL.Query().Get("token") != verificationToken {
			reply(w, http.StatusBadRequest, map[string]any{"message": "Invalid token", "success": false})

			return
		}
		reply(w, http.StatusOK, map[string]any{"message": "your account was verified", "resultStatus": api.ResultStatusSuccessful})
	})
	for _, pattern := range []string{"POST /api/v1/user/resetPasswordToken", "POST /api/v1/user/resetPassword"} {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
			r.record(req)
			reply(w, http.StatusOK, map[string]any{"message": "ok", "resultStatus": api.ResultStatusSuccessful})
		})
	}
	for _, pattern := range []string{"POST /api/v1/user/register", "GET /api/v1/user/resendVerifyToken", "POST /api/v1/user/changePassword"} {
		mux.HandleFunc(pattern, r.authenticated(func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
			reply(w, http.StatusOK, map[string]any{"message": "ok", "success": true})
		}))
	}
	r.tenantRoutes(mux)

	return mux
}

func (r *remote) tenantRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/tenants", r.authenticated(func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		r.mx.Lock()
		defer r.mx.Unlock()
		tenants := make([]*api.Tenant, 0, len(r.tenants))
		for _, tenant := range r.tenants {
			tenants = append(tenants, tenant)
		}
		slices.SortFunc(tenants, func(a, b *api.Tenant) int { return int(a.ID - b.ID) })
		reply(w, http.StatusOK, map[string]any{"payloadDto": tenants, "resultStatus": api.ResultStatusSuccessful})
	}))
	mux.HandleFunc("POST /api/v1/tenant", r.authenticated(func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
		r.mx.Lock()
		defer r.mx.Unlock()
		r.nextID++
		tenant := tenantOf(body)
		tenant.ID = r.nextID
		r.tenants[tenant.ID] = tenant
		reply(w, http.StatusOK, map[string]any{"payload": tenant, "resultStatus": api.ResultStatusSuccessful})
	}))
	mux.HandleFunc("/api/v1/tenant/{id}", r.authenticated(func(w http.ResponseWriter, req *http.Request, body map[string]any) {
		r.mx.Lock()
		defer r.mx.Unlock()
		id, err := strconv.ParseInt(req.PathValue("id"), 10, 64)
		tenant, found := r.tenants[id]
		if err != nil || !found {
			reply(w, http.StatusNotFound, map[string]any{"message": "Tenant not found", "success": false})

			return
		}
		switch req.Method {
		case http.MethodPut:
			tenant = tenantOf(body)
			tenant.ID = id
			r.tenants[id] = tenant
		case http.MethodDelete:
			delete(r.tenants, id)
			reply(w, http.StatusOK, map[string]any{"message": "deleted", "resultStatus": api.ResultStatusSuccessful})

			return
		}
		reply(w, http.StatusOK, map[string]any{"payloadDto": tenant, "resultStatus": api.ResultStatusSuccessful})
	}))
}

func (r *remote) authenticated(handle func(http.ResponseWriter, *http.Request, map[string]any)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		body := r.record(req)
		if !strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
			reply(w, http.StatusUnauthorized, map[string]any{"message": "Full authentication is required", "success": false})

			return
		}
		handle(w, req, body)
	}
}

func (r *remote) record(req *http.Request) map[string]any {
	var body map[string]any
	if req.ContentLength != 0 {
		_ = json.NewDecoder(req.Body).Decode(&body) //nolint:errcheck // Best effort.
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	r.calls = append(r.calls, &remoteCall{
		Body:   body,
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Bearer: strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer "),
	})

	return body
}

func (r *remote) callsTo(path string) []*remoteCall {
	r.mx.Lock()
	defer r.mx.Unlock()
	calls := make([]*remoteCall, 0, len(r.calls))
	for _, call := range r.calls {
		if call.Path == path {
			calls = append(calls, call)
		}
	}

	return calls
}

func (r *remote) lastCall(t *testing.T, path string) *remoteCall {
	t.Helper()
	calls := r.callsTo(path)
	require.NotEmpty(t, calls, path)

	return calls[len(calls)-1]
}

func tenantOf(body map[string]any) *api.Tenant {
	tenant := new(api.Tenant)
	tenant.TenantCode, _ = body["tenantCode"].(string) //nolint:errcheck // Zero value is fine.
	tenant.TenantName, _ = body["tenantName"].(string) //nolint:errcheck // Zero value is fine.
	tenant.Enabled, _ = body["enabled"].(bool)         //nolint:errcheck // Zero value is fine.

	return tenant
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // Test server.
}

func TestFailure_Mapping(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		err    error
		code   string
		msg    string
		status int
	}{
		{err: errors.Wrap(session.ErrSuperseded, "login"), status: http.StatusConflict, code: SupersededCode},
		{err: errors.Wrap(session.ErrMalformedToken, "login"), status: http.StatusBadGateway, code: InvalidRemoteTokenCode},
		{err: errors.Wrap(session.ErrNotAuthenticated, "token"), status: http.StatusUnauthorized, code: NotAuthenticatedCode},
		{err: errors.Wrap(&api.Error{Status: http.StatusConflict, Message: "tenant code taken"}, "create"), status: http.StatusConflict, code: ConflictCode, msg: "tenant code taken"},
		{err: errors.Wrap(&api.Error{Status: http.StatusForbidden, Message: "nope"}, "delete"), status: http.StatusForbidden, code: OperationNotAllowedCode, msg: "nope"},
		{err: errors.Wrap(&api.Error{Status: http.StatusInternalServerError}, "list"), status: http.StatusBadGateway, code: RemoteAPIFailedCode, msg: "list: remote api failed with 500: "},
		{err: errors.New("boom"), status: -1, msg: "boom"},
	} {
		resp := failure(tc.err)
		assert.Equal(t, tc.status, resp.Code, tc.err.Error())
		assert.Equal(t, tc.code, resp.Data.Code, tc.err.Error())
		if tc.msg != "" {
			assert.Equal(t, tc.msg, resp.Data.Error)
		}
		assert.Equal(t, tc.err, resp.Data.InternalErr())
	}
}
