package authclient

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-session-gateway/internal/errors"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match a 401 against ErrAuthFailure and any other status
// against ErrHTTPFailure.
func (e *HTTPError) Is(target error) bool {
	if e.StatusCode == http.StatusUnauthorized {
		return target == apperrors.ErrAuthFailure
	}
	return target == apperrors.ErrHTTPFailure
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}
