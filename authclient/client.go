package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/go-session-gateway/internal/errors"
	"github.com/jrsteele09/go-session-gateway/payroll"
	"github.com/jrsteele09/go-session-gateway/users"
)

// Client is the payroll API client. Every call goes through the
// authenticated-request lifecycle of its Transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client whose requests are decorated from, and invalidate,
// the given session.
func New(baseURL string, sessions Session, nav Navigator, loginPath string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return NewWithHTTPClient(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(nil, sessions, nav, loginPath),
	})
}

// NewWithHTTPClient wraps an already configured http.Client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// GetMe returns the identity the API associates with the current credential.
func (c *Client) GetMe(ctx context.Context) (*users.Identity, error) {
	var me users.Identity
	if err := c.get(ctx, "/api/me", &me); err != nil {
		return nil, fmt.Errorf("client.GetMe: %w", err)
	}
	return &me, nil
}

// ListEmployees fetches employees, optionally filtered by status.
func (c *Client) ListEmployees(ctx context.Context, status payroll.EmployeeStatus, limit, offset int) ([]payroll.Employee, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", string(status))
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var employees []payroll.Employee
	if err := c.get(ctx, "/api/employees?"+params.Encode(), &employees); err != nil {
		return nil, fmt.Errorf("client.ListEmployees: %w", err)
	}
	return employees, nil
}

func (c *Client) GetEmployee(ctx context.Context, id string) (*payroll.Employee, error) {
	var employee payroll.Employee
	if err := c.get(ctx, "/api/employees/"+url.PathEscape(id), &employee); err != nil {
		return nil, fmt.Errorf("client.GetEmployee: %w", err)
	}
	return &employee, nil
}

func (c *Client) ListPayrollRuns(ctx context.Context) ([]payroll.PayrollRun, error) {
	var runs []payroll.PayrollRun
	if err := c.get(ctx, "/api/payroll-runs", &runs); err != nil {
		return nil, fmt.Errorf("client.ListPayrollRuns: %w", err)
	}
	return runs, nil
}

func (c *Client) ListNotifications(ctx context.Context) ([]payroll.Notification, error) {
	var notifications []payroll.Notification
	if err := c.get(ctx, "/api/notifications", &notifications); err != nil {
		return nil, fmt.Errorf("client.ListNotifications: %w", err)
	}
	return notifications, nil
}

// Revoke asks the API to revoke the token identified by jti, or the caller's
// own token when jti is empty. Requires the admin role.
func (c *Client) Revoke(ctx context.Context, jti string) error {
	body := map[string]string{"jti": jti}
	if err := c.doRequest(ctx, http.MethodPost, "/api/admin/revoke", body, nil); err != nil {
		return fmt.Errorf("client.Revoke: %w", err)
	}
	return nil
}

// Raw performs a GET against path and returns the response body as is.
func (c *Client) Raw(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("client.Raw: %w", err)
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrNetworkFailure, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			msg := apiErr.Error
			if apiErr.ErrorDescription != "" {
				msg += ": " + apiErr.ErrorDescription
			}
			return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
