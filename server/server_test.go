package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-gateway/devapi"
	"github.com/jrsteele09/go-session-gateway/internal/config"
	"github.com/jrsteele09/go-session-gateway/login"
	"github.com/jrsteele09/go-session-gateway/payroll"
	"github.com/jrsteele09/go-session-gateway/server"
	"github.com/jrsteele09/go-session-gateway/sessions"
	"github.com/jrsteele09/go-session-gateway/sessions/memstore"
	"github.com/jrsteele09/go-session-gateway/token"
	"github.com/jrsteele09/go-session-gateway/users"
	fakeuserrepo "github.com/jrsteele09/go-session-gateway/users/repofake"
)

var (
	admin    = devapi.DefaultSeedUsers[0]
	employer = devapi.DefaultSeedUsers[1]
)

// testFixture runs the gateway in front of a development payroll API
type testFixture struct {
	upstream *httptest.Server
	gateway  *httptest.Server
	store    *memstore.Store
	browser  *http.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	repo := fakeuserrepo.NewFakeUserRepo()
	data := devapi.NewDataset()
	require.NoError(t, devapi.Seed(repo, data, devapi.DefaultSeedUsers))
	issuer := token.NewIssuer("payroll-api", []byte("test-key"), time.Hour, nil)
	upstream := httptest.NewServer(devapi.New(config.New(), repo, issuer, data))
	t.Cleanup(upstream.Close)

	t.Setenv("UPSTREAM_URL", upstream.URL)
	t.Setenv("ALLOWED_ORIGINS", "https://app.payroll.test")
	cfg := config.New()

	store := memstore.New()
	srv, err := server.New(cfg, store, login.NewAuthenticator(cfg))
	require.NoError(t, err)
	gateway := httptest.NewServer(srv)
	t.Cleanup(gateway.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	browser := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testFixture{upstream: upstream, gateway: gateway, store: store, browser: browser}
}

func (f *testFixture) do(t *testing.T, method, path string, body io.Reader, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.gateway.URL+path, body)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := f.browser.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (f *testFixture) login(t *testing.T, u devapi.SeedUser) users.Identity {
	t.Helper()
	body, err := json.Marshal(map[string]string{"email": u.Email, "password": u.Password})
	require.NoError(t, err)
	resp, data := f.do(t, http.MethodPost, server.RouteLogin, bytes.NewReader(body), http.Header{"Content-Type": {"application/json"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var identity users.Identity
	require.NoError(t, json.Unmarshal(data, &identity))
	return identity
}

func (f *testFixture) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	u, err := url.Parse(f.gateway.URL)
	require.NoError(t, err)
	for _, c := range f.browser.Jar.Cookies(u) {
		if c.Name == "session_id" {
			return c
		}
	}
	return nil
}

func (f *testFixture) storedRecord(t *testing.T) (sessions.Record, bool) {
	t.Helper()
	cookie := f.sessionCookie(t)
	if cookie == nil {
		return sessions.Record{}, false
	}
	return sessions.NewManager(f.store, sessions.DefaultKey+":"+cookie.Value).Load(t.Context())
}

func TestLoginPage(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.do(t, http.MethodGet, "/login?error=Bad+things&email=a%40b.test", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	require.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
	require.Contains(t, string(body), `<form method="post" action="/login">`)
	require.Contains(t, string(body), "Bad things")
	require.Contains(t, string(body), `value="a@b.test"`)
}

func TestIndexRedirectsWhenSignedOut(t *testing.T) {
	f := setupTestFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = f.do(t, http.MethodGet, "/", nil, http.Header{"Hx-Request": {"true"}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
}

func TestFormLogin(t *testing.T) {
	f := setupTestFixture(t)
	form := url.Values{"email": {employer.Email}, "password": {"wrong"}}

	t.Run("wrong password", func(t *testing.T) {
		resp, _ := f.do(t, http.MethodPost, server.RouteLogin, strings.NewReader(form.Encode()), http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/login?error=Invalid+email+or+password", resp.Header.Get("Location"))
		require.Nil(t, f.sessionCookie(t))
		require.Zero(t, f.store.Len())
	})

	t.Run("success", func(t *testing.T) {
		form.Set("password", employer.Password)
		resp, _ := f.do(t, http.MethodPost, server.RouteLogin, strings.NewReader(form.Encode()), http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/", resp.Header.Get("Location"))

		record, ok := f.storedRecord(t)
		require.True(t, ok)
		identity, ok := record.Identity()
		require.True(t, ok)
		require.Equal(t, employer.Email, identity.Email)

		resp, body := f.do(t, http.MethodGet, "/", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, string(body), "Erin Employer")
	})
}

func TestSessionEndpoint(t *testing.T) {
	f := setupTestFixture(t)

	resp, _ := f.do(t, http.MethodGet, server.RouteSession, nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	identity := f.login(t, employer)
	resp, body := f.do(t, http.MethodGet, server.RouteSession, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got users.Identity
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, identity, got)
	require.Equal(t, users.RoleEmployer, got.Role)
}

func TestProxyDecoratesRequests(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, employer)

	// A credential supplied by the browser is never forwarded
	resp, body := f.do(t, http.MethodGet, "/api/employees", nil, http.Header{"Authorization": {"Bearer forged"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var employees []payroll.Employee
	require.NoError(t, json.Unmarshal(body, &employees))
	require.Len(t, employees, len(devapi.DefaultSeedUsers))
	require.Empty(t, resp.Header.Get("HX-Redirect"))
}

func TestProxyWithoutSession(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, string(body), "Missing Authorization header")
	require.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
}

func TestProxyForbiddenKeepsSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, devapi.DefaultSeedUsers[2]) // employee

	resp, _ := f.do(t, http.MethodGet, "/api/payroll-runs", nil, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Empty(t, resp.Header.Get("HX-Redirect"))

	_, ok := f.storedRecord(t)
	require.True(t, ok)
}

func TestProxyUnauthorizedInvalidatesSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, admin)
	require.Equal(t, 1, f.store.Len())
	cookie := f.sessionCookie(t)
	require.NotNil(t, cookie)

	resp, _ := f.do(t, http.MethodPost, "/api/admin/revoke", nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/api/me", nil, http.Header{"Hx-Request": {"true"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, string(body), "Token revoked")
	require.Equal(t, "/login", resp.Header.Get("HX-Redirect"))

	require.Zero(t, f.store.Len())
	require.Nil(t, f.sessionCookie(t))
	_, ok := sessions.NewManager(f.store, sessions.DefaultKey+":"+cookie.Value).Token(t.Context())
	require.False(t, ok)
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, employer)
	first := f.sessionCookie(t)

	f.login(t, admin)
	second := f.sessionCookie(t)
	require.NotEqual(t, first.Value, second.Value)
	require.Equal(t, 1, f.store.Len())
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, employer)

	resp, _ := f.do(t, http.MethodPost, server.RouteLogout, nil, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
	require.Zero(t, f.store.Len())
	require.Nil(t, f.sessionCookie(t))

	// Logging out twice is harmless
	resp, _ = f.do(t, http.MethodPost, server.RouteLogout, nil, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestUpstreamDown(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, employer)
	f.upstream.Close()

	resp, body := f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Contains(t, string(body), "bad_gateway")
	require.Empty(t, resp.Header.Get("HX-Redirect"))

	_, ok := f.storedRecord(t)
	require.True(t, ok)
}

func TestCorsPreflight(t *testing.T) {
	f := setupTestFixture(t)

	resp, _ := f.do(t, http.MethodOptions, "/api/employees", nil, http.Header{"Origin": {"https://app.payroll.test"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "https://app.payroll.test", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	resp, _ = f.do(t, http.MethodOptions, "/api/employees", nil, http.Header{"Origin": {"https://evil.test"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNewRejectsRelativeUpstream(t *testing.T) {
	t.Setenv("UPSTREAM_URL", "payroll-api")
	cfg := config.New()
	_, err := server.New(cfg, memstore.New(), login.NewAuthenticator(cfg))
	require.Error(t, err)
}
