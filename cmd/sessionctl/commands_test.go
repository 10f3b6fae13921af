package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-gateway/devapi"
	"github.com/jrsteele09/go-session-gateway/internal/config"
	"github.com/jrsteele09/go-session-gateway/internal/errors"
	"github.com/jrsteele09/go-session-gateway/sessions"
	"github.com/jrsteele09/go-session-gateway/sessions/filestore"
	"github.com/jrsteele09/go-session-gateway/token"
	"github.com/jrsteele09/go-session-gateway/users"
	fakeuserrepo "github.com/jrsteele09/go-session-gateway/users/repofake"
)

var (
	admin    = devapi.DefaultSeedUsers[0]
	employer = devapi.DefaultSeedUsers[1]
)

// setupTestEnv starts a development payroll API and points the CLI at it and
// at a fresh session directory.
func setupTestEnv(t *testing.T) (apiURL, dir string) {
	t.Helper()

	repo := fakeuserrepo.NewFakeUserRepo()
	data := devapi.NewDataset()
	require.NoError(t, devapi.Seed(repo, data, devapi.DefaultSeedUsers))
	issuer := token.NewIssuer("payroll-api", []byte("test-key"), time.Hour, nil)
	srv := httptest.NewServer(devapi.New(config.New(), repo, issuer, data))
	t.Cleanup(srv.Close)

	dir = t.TempDir()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("UPSTREAM_URL", srv.URL)
	t.Setenv("FOLDER", dir)
	t.Setenv(passwordEnvVar, "")
	return srv.URL, dir
}

func execute(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.SetIn(stdin)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func storedSession(t *testing.T, dir string) *sessions.Manager {
	t.Helper()
	store, err := filestore.New(dir + "/sessions")
	require.NoError(t, err)
	return sessions.NewManager(store, sessions.DefaultKey)
}

func TestLoginWhoamiLogout(t *testing.T) {
	_, dir := setupTestEnv(t)

	out, _, err := execute(t, nil, "whoami")
	require.NoError(t, err)
	require.Equal(t, "Not signed in\n", out)

	out, _, err = execute(t, nil, "login", "--email", employer.Email, "--password", employer.Password)
	require.NoError(t, err)
	require.Equal(t, "Signed in as Erin Employer (employer)\n", out)

	_, ok := storedSession(t, dir).Token(context.Background())
	require.True(t, ok)

	out, _, err = execute(t, nil, "whoami")
	require.NoError(t, err)
	require.Equal(t, "Signed in as Erin Employer (employer)\n", out)

	out, _, err = execute(t, nil, "logout")
	require.NoError(t, err)
	require.Equal(t, "Signed out\n", out)

	out, _, err = execute(t, nil, "whoami")
	require.NoError(t, err)
	require.Equal(t, "Not signed in\n", out)
}

func TestLoginPasswordSources(t *testing.T) {
	setupTestEnv(t)

	t.Run("stdin", func(t *testing.T) {
		out, _, err := execute(t, strings.NewReader(employer.Password+"\n"), "login", "--email", employer.Email)
		require.NoError(t, err)
		require.Contains(t, out, "Signed in as")
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(passwordEnvVar, admin.Password)
		out, _, err := execute(t, nil, "login", "--email", admin.Email)
		require.NoError(t, err)
		require.Contains(t, out, "(admin)")
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := execute(t, nil, "login", "--email", admin.Email, "--password", "nope")
		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})
}

func TestGet(t *testing.T) {
	setupTestEnv(t)

	_, _, err := execute(t, nil, "login", "--email", employer.Email, "--password", employer.Password)
	require.NoError(t, err)

	out, _, err := execute(t, nil, "get", "api/me")
	require.NoError(t, err)
	require.Contains(t, out, `"email": "employer@payroll.test"`)
	require.Contains(t, out, `"role": "employer"`)
}

func TestGetAfterRevocationSignsOut(t *testing.T) {
	apiURL, dir := setupTestEnv(t)

	_, _, err := execute(t, nil, "login", "--email", admin.Email, "--password", admin.Password)
	require.NoError(t, err)

	session := storedSession(t, dir)
	tok, ok := session.Token(context.Background())
	require.True(t, ok)
	req, err := http.NewRequest(http.MethodPost, apiURL+devapi.RouteRevoke, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, stderr, err := execute(t, nil, "get", "/api/me")
	require.ErrorIs(t, err, errors.ErrAuthFailure)
	require.Contains(t, stderr, "Session ended (/login). Sign in again with: sessionctl login")

	out, _, err := execute(t, nil, "whoami")
	require.NoError(t, err)
	require.Equal(t, "Not signed in\n", out)
}

func TestUpstreamFlag(t *testing.T) {
	apiURL, _ := setupTestEnv(t)
	t.Setenv("UPSTREAM_URL", "http://127.0.0.1:1")

	_, _, err := execute(t, nil, "--upstream", apiURL+"/", "login", "--email", employer.Email, "--password", employer.Password)
	require.NoError(t, err)

	out, _, err := execute(t, nil, "--upstream", apiURL, "get", "/api/notifications")
	require.NoError(t, err)
	require.Contains(t, out, "Welcome")
}

// syncBuffer is written by the watcher's debounce timer while the test reads it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	_, dir := setupTestEnv(t)
	session := storedSession(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"watch"})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	identity := &users.Identity{ID: "u1", Name: "Wendy Watcher", Role: users.RoleAuditor}
	require.Eventually(t, func() bool {
		if err := session.Login(context.Background(), "tok", identity); err != nil {
			return false
		}
		return strings.Contains(out.String(), "Signed in as Wendy Watcher (auditor)")
	}, 5*time.Second, 200*time.Millisecond)

	require.Eventually(t, func() bool {
		if err := session.Invalidate(context.Background()); err != nil {
			return false
		}
		return strings.HasSuffix(out.String(), "Not signed in\n")
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.True(t, strings.HasPrefix(out.String(), "Not signed in\n"))
}
