// Package domainerrors carries business failures as stable codes. Services
// return them; the HTTP layer maps codes to status and wire values once.
package domainerrors

import "errors"

type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeRateLimited        Code = "rate_limited"

	// Tenant resolution. These travel to clients verbatim so they can prompt
	// for the organization.
	CodeTenantRequired Code = "TENANT_REQUIRED"
	CodeTenantNotFound Code = "TENANT_NOT_FOUND"
	CodeTenantInactive Code = "TENANT_INACTIVE"
	CodeInvalidTenant  Code = "INVALID_TENANT"

	CodeInvalidCredentials Code = "invalid_credentials"
	CodeAccountInvalid     Code = "account_invalid"
	CodeInvalidToken       Code = "invalid_token"
)

type Error struct {
	Code    Code
	Message string
	// Field names the offending input of a validation failure.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err, New(code, ""))
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches msg and a code to err. A code already present in err's chain
// wins over code, so the first classification sticks.
func Wrap(err error, code Code, msg string) error {
	if c, ok := CodeOf(err); ok {
		code = c
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// Validation reports a bad input field.
func Validation(field, reason string) error {
	return &Error{Code: CodeValidation, Message: field + " " + reason, Field: field}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Code, true
}

func HasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
