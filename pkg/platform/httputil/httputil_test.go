package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "smartparking/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"tenant required", dErrors.New(dErrors.CodeTenantRequired, "tenant is required"), http.StatusBadRequest, "TENANT_REQUIRED"},
		{"tenant inactive", dErrors.New(dErrors.CodeTenantInactive, "tenant is inactive"), http.StatusBadRequest, "TENANT_INACTIVE"},
		{"invalid credentials", dErrors.New(dErrors.CodeInvalidCredentials, "Invalid email or password"), http.StatusUnauthorized, "invalid_credentials"},
		{"rate limited", dErrors.New(dErrors.CodeRateLimited, "too many attempts"), http.StatusTooManyRequests, "rate_limited"},
		{"conflict", dErrors.New(dErrors.CodeConflict, "email taken"), http.StatusConflict, "conflict"},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "deadline exceeded"), http.StatusServiceUnavailable, "timeout"},
		{"plain error", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			body := decodeBody(t, w.Body.String())
			assert.Equal(t, tc.code, body["error"])
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestWriteError_HidesInternalMessages(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.Wrap(errors.New("dial tcp 10.0.0.5:5432"), dErrors.CodeInternal, "lookup failed: dial tcp"))

	body := decodeBody(t, w.Body.String())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, body, "error_description")
}

func TestWriteData(t *testing.T) {
	w := httptest.NewRecorder()
	WriteData(w, http.StatusCreated, map[string]string{"id": "42"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"status":"success","data":{"id":"42"}}`, w.Body.String())
}

func TestWriteError_UnmappedCodeIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New("made_up", "should not leak"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error","code":"internal_error"}`, w.Body.String())
}
