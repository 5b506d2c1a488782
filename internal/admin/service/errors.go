package service

import (
	"errors"

	"smartparking/internal/sentinel"
	dErrors "smartparking/pkg/domain-errors"
)

// storeErrorMapping translates a store sentinel into a domain error.
type storeErrorMapping struct {
	sentinel error
	code     dErrors.Code
	message  string
}

// storeErrorMappings are checked in order; first match wins.
var storeErrorMappings = []storeErrorMapping{
	{sentinel.ErrNotFound, dErrors.CodeNotFound, "administrator not found"},
	{sentinel.ErrAlreadyUsed, dErrors.CodeConflict, "email is already registered in this tenant"},
	{sentinel.ErrInvalidInput, dErrors.CodeBadRequest, "invalid administrator"},
	{sentinel.ErrUnavailable, dErrors.CodeTimeout, "administrator store unavailable"},
}

// translateStoreErr maps store errors to domain errors. Domain errors pass
// through unchanged and anything unrecognised becomes an internal error.
func translateStoreErr(err error, action string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	for _, m := range storeErrorMappings {
		if errors.Is(err, m.sentinel) {
			return dErrors.Wrap(err, m.code, m.message)
		}
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
