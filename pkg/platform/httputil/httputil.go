// Package httputil holds the JSON response conventions shared by every
// handler: the success envelope, the error body and domain error mapping.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/requestcontext"
)

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already on the wire; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(body)
}

// Envelope is the success body: {"status":"success","data":...}.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteDataMessage(w, status, data, "")
}

func WriteDataMessage(w http.ResponseWriter, status int, data any, message string) {
	WriteJSON(w, status, Envelope{Status: "success", Data: data, Message: message})
}

// ErrorResponse is the error body. Error is the stable code clients branch on;
// it is also emitted as "code" for clients of the original API shape.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Field            string `json:"field,omitempty"`
}

func (e ErrorResponse) MarshalJSON() ([]byte, error) {
	type fields ErrorResponse
	return json.Marshal(struct {
		fields
		Code string `json:"code"`
	}{fields(e), e.Error})
}

type wireError struct {
	status int
	code   string
}

// wireErrors maps domain codes onto HTTP. Tenant codes keep their upper-case
// names on the wire.
var wireErrors = map[dErrors.Code]wireError{
	dErrors.CodeNotFound:           {http.StatusNotFound, "not_found"},
	dErrors.CodeBadRequest:         {http.StatusBadRequest, "bad_request"},
	dErrors.CodeInvalidInput:       {http.StatusBadRequest, "bad_request"},
	dErrors.CodeValidation:         {http.StatusBadRequest, "validation_error"},
	dErrors.CodeInvariantViolation: {http.StatusBadRequest, "validation_error"},
	dErrors.CodeAccountInvalid:     {http.StatusBadRequest, "account_invalid"},
	dErrors.CodeTenantRequired:     {http.StatusBadRequest, string(dErrors.CodeTenantRequired)},
	dErrors.CodeTenantNotFound:     {http.StatusBadRequest, string(dErrors.CodeTenantNotFound)},
	dErrors.CodeTenantInactive:     {http.StatusBadRequest, string(dErrors.CodeTenantInactive)},
	dErrors.CodeInvalidTenant:      {http.StatusBadRequest, string(dErrors.CodeInvalidTenant)},
	dErrors.CodeConflict:           {http.StatusConflict, "conflict"},
	dErrors.CodeUnauthorized:       {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeInvalidToken:       {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeInvalidCredentials: {http.StatusUnauthorized, "invalid_credentials"},
	dErrors.CodeForbidden:          {http.StatusForbidden, "forbidden"},
	dErrors.CodeRateLimited:        {http.StatusTooManyRequests, "rate_limited"},
	dErrors.CodeTimeout:            {http.StatusServiceUnavailable, "timeout"},
}

var internalError = wireError{http.StatusInternalServerError, "internal_error"}

// WriteError renders err. Messages of 5xx errors, and every error that is
// not a domain error, stay on the server.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		WriteJSON(w, internalError.status, ErrorResponse{Error: internalError.code})
		return
	}
	we, ok := wireErrors[de.Code]
	if !ok {
		we = internalError
	}
	body := ErrorResponse{Error: we.code}
	if we.status < http.StatusInternalServerError {
		body.ErrorDescription, body.Field = de.Message, de.Field
	}
	WriteJSON(w, we.status, body)
}

// RequirePrincipal returns the authenticated administrator. Reaching a
// handler behind the auth middleware without one is a wiring fault, so the
// error is internal rather than 401.
func RequirePrincipal(ctx context.Context, logger *slog.Logger) (requestcontext.Principal, error) {
	p, ok := requestcontext.GetPrincipal(ctx)
	if ok && !p.AdminID.IsNil() {
		return p, nil
	}
	if logger != nil {
		logger.ErrorContext(ctx, "principal missing behind auth middleware",
			"request_id", requestcontext.RequestID(ctx))
	}
	return requestcontext.Principal{}, dErrors.New(dErrors.CodeInternal, "authentication context error")
}
