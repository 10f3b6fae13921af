package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-session-gateway/authclient"
	apperrors "github.com/jrsteele09/go-session-gateway/internal/errors"
	"github.com/jrsteele09/go-session-gateway/payroll"
	"github.com/jrsteele09/go-session-gateway/users"
)

func TestClient_GetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/me" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(users.Identity{ID: "u-1", Name: "Ada Lovelace", Role: users.RoleEmployer}) //nolint:errcheck
	}))
	defer srv.Close()

	f := newFixture(t, `{"state":{"token":"test-token"}}`)
	c := authclient.New(srv.URL, f.manager, f.nav, "", time.Second)

	me, err := c.GetMe(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", me.Name)
	require.Equal(t, users.RoleEmployer, me.Role)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "error_description": "Invalid token"}) //nolint:errcheck
	}))
	defer srv.Close()

	f := newFixture(t, `{"state":{"token":"expired"}}`)
	c := authclient.New(srv.URL, f.manager, f.nav, "", time.Second)

	_, err := c.ListEmployees(context.Background(), payroll.EmployeeActive, 50, 0)
	require.Error(t, err)
	require.True(t, authclient.IsStatus(err, http.StatusUnauthorized))
	require.ErrorIs(t, err, apperrors.ErrAuthFailure)
	require.Contains(t, err.Error(), "HTTP 401: unauthorized: Invalid token")

	_, found := f.persisted(t)
	require.False(t, found)
	require.Equal(t, []string{"/login"}, f.nav.Paths())
}

func TestClient_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not your payroll", http.StatusForbidden)
	}))
	defer srv.Close()

	f := newFixture(t, `{"state":{"token":"abc123"}}`)
	c := authclient.New(srv.URL, f.manager, f.nav, "", time.Second)

	_, err := c.ListPayrollRuns(context.Background())
	require.True(t, authclient.IsStatus(err, http.StatusForbidden))
	require.ErrorIs(t, err, apperrors.ErrHTTPFailure)
	require.NotErrorIs(t, err, apperrors.ErrAuthFailure)

	_, found := f.persisted(t)
	require.True(t, found)
	require.Empty(t, f.nav.Paths())
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := newFixture(t, `{"state":{"token":"abc123"}}`)
	c := authclient.New(url, f.manager, f.nav, "", time.Second)

	_, err := c.ListNotifications(context.Background())
	require.ErrorIs(t, err, apperrors.ErrNetworkFailure)
	require.False(t, authclient.IsStatus(err, http.StatusUnauthorized))

	_, found := f.persisted(t)
	require.True(t, found)
}

func TestClient_ListEmployees(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/employees", r.URL.Path)
		assert.Equal(t, "on_leave", r.URL.Query().Get("status"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]payroll.Employee{{ID: "e-1", FirstName: "Grace", Status: payroll.EmployeeOnLeave}}) //nolint:errcheck
	}))
	defer srv.Close()

	f := newFixture(t, `{"state":{"token":"abc123"}}`)
	c := authclient.New(srv.URL, f.manager, f.nav, "", time.Second)

	employees, err := c.ListEmployees(context.Background(), payroll.EmployeeOnLeave, 10, 0)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	require.Equal(t, "Grace", employees[0].FirstName)
}

func TestClient_GetEmployeeEscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/employees/a%2Fb", r.URL.EscapedPath())
		json.NewEncoder(w).Encode(payroll.Employee{ID: "a/b"}) //nolint:errcheck
	}))
	defer srv.Close()

	f := newFixture(t, "")
	c := authclient.New(srv.URL, f.manager, f.nav, "", time.Second)

	employee, err := c.GetEmployee(context.Background(), "a/b")
	require.NoError(t, err)
	require.Equal(t, "a/b", employee.ID)
}

func TestClient_Revoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/revoke", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"jti": "jti-42"}, body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	f := newFixture(t, `{"state":{"token":"test-token"}}`)
	c := authclient.New(srv.URL, f.manager, f.nav, "", time.Second)

	require.NoError(t, c.Revoke(context.Background(), "jti-42"))
	require.Empty(t, f.nav.Paths())
}
