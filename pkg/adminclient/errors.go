package adminclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated is returned without a network call when the client has
// no usable tokens: before login, after logout, or after a failed refresh.
var ErrNotAuthenticated = errors.New("adminclient: not authenticated")

// ClientError reports a failure to build, send or decode a request.
type ClientError struct {
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// ApiError is a non-2xx response.
type ApiError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error"`
	Message    string `json:"error_description"`
	Field      string `json:"field,omitempty"`
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

func statusIs(err error, code int) bool {
	var e *ApiError
	return errors.As(err, &e) && e.StatusCode == code
}

func IsUnauthorized(err error) bool { return statusIs(err, http.StatusUnauthorized) }
func IsForbidden(err error) bool    { return statusIs(err, http.StatusForbidden) }
func IsNotFound(err error) bool     { return statusIs(err, http.StatusNotFound) }
func IsConflict(err error) bool     { return statusIs(err, http.StatusConflict) }
func IsRateLimited(err error) bool  { return statusIs(err, http.StatusTooManyRequests) }

// IsTenantError reports a tenant resolution failure. Callers should ask the
// user to check the organization or subdomain they are using.
func IsTenantError(err error) bool {
	var e *ApiError
	if !errors.As(err, &e) {
		return false
	}
	switch e.ErrorCode {
	case "TENANT_REQUIRED", "TENANT_NOT_FOUND", "TENANT_INACTIVE", "INVALID_TENANT":
		return true
	}
	return false
}

// isAuthRejection reports whether the server refused the credentials rather
// than failing transiently.
func isAuthRejection(err error) bool {
	var e *ApiError
	if !errors.As(err, &e) {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// IsTimeout reports whether err came from a request deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
