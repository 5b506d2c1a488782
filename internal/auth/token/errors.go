package token

import "errors"

// ErrInvalid is the single error every rejected token matches.
var ErrInvalid = errors.New("invalid token")

// Rejection reasons, for logs and metrics only. Clients only ever see ErrInvalid.
const (
	ReasonExpired   = "expired"
	ReasonSignature = "signature"
	ReasonMalformed = "malformed"
	ReasonType      = "type"
	ReasonTooOld    = "too_old"
)

type invalidError struct {
	reason string
	cause  error
}

func invalid(reason string, cause error) error {
	return &invalidError{reason: reason, cause: cause}
}

func (e *invalidError) Error() string {
	return ErrInvalid.Error()
}

func (e *invalidError) Is(target error) bool {
	return target == ErrInvalid
}

func (e *invalidError) Unwrap() error {
	return e.cause
}

// Reason reports why a token was rejected, or "" if err is not a rejection.
func Reason(err error) string {
	var ie *invalidError
	if errors.As(err, &ie) {
		return ie.reason
	}
	return ""
}
