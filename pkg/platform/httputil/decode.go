package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "smartparking/pkg/domain-errors"
	"smartparking/pkg/requestcontext"
)

// Preparable is implemented by request types that normalize and validate
// themselves after decoding.
type Preparable interface {
	Normalize()
	Validate() error
}

// Decode decodes a JSON request body into T and, if T implements Preparable,
// normalizes and validates it. On failure it writes the error response and
// returns false.
//
// Usage:
//
//	req, ok := httputil.Decode[models.LoginRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	ctx := r.Context()
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, msg))
		return nil, false
	}

	if p, ok := any(&req).(Preparable); ok {
		p.Normalize()
		if err := p.Validate(); err != nil {
			logger.WarnContext(ctx, "invalid request",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			var domainErr *dErrors.Error
			if !errors.As(err, &domainErr) {
				err = dErrors.New(dErrors.CodeValidation, err.Error())
			}
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}
