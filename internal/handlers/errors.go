// Package handlers exposes the order services as a JSON HTTP API.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/diewo77/go-orders/gate"
	"github.com/diewo77/go-orders/httpx"
	"github.com/diewo77/go-orders/internal/policy"
	"github.com/diewo77/go-orders/internal/services"
	"github.com/diewo77/go-orders/internal/settings"
	"github.com/diewo77/go-orders/validation"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

var notFound = []error{
	services.ErrOrderNotFound,
	services.ErrLineNotFound,
	services.ErrReceiverNotFound,
	services.ErrImportNotFound,
	settings.ErrNotFound,
	errProfileNotFound,
}

// writeError maps service errors to status codes. Unknown errors are logged
// and reported as internal_error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Violations)
		return
	}
	for _, e := range notFound {
		if errors.Is(err, e) {
			httpx.JSONError(w, http.StatusNotFound, e.Error(), nil)
			return
		}
	}
	switch {
	case errors.Is(err, httpx.ErrBadRequest):
		httpx.JSONError(w, http.StatusBadRequest, httpx.ErrBadRequest.Error(), err.Error())
	case errors.Is(err, services.ErrOrderLocked), errors.Is(err, gate.ErrUnauthorized), errors.Is(err, gate.ErrForbidden):
		policy.WriteError(w, err)
	case errors.Is(err, services.ErrDuplicate), errors.Is(err, errSystemProfile):
		httpx.JSONError(w, http.StatusConflict, rootCode(err, services.ErrDuplicate, errSystemProfile), nil)
	case errors.Is(err, services.ErrNoRecipient):
		httpx.JSONError(w, http.StatusUnprocessableEntity, services.ErrNoRecipient.Error(), nil)
	case errors.Is(err, services.ErrMailerDisabled):
		httpx.JSONError(w, http.StatusServiceUnavailable, services.ErrMailerDisabled.Error(), nil)
	case errors.Is(err, settings.ErrInvalidValue), errors.Is(err, settings.ErrKindMismatch):
		httpx.JSONError(w, http.StatusUnprocessableEntity, rootCode(err, settings.ErrInvalidValue, settings.ErrKindMismatch), nil)
	case errors.Is(err, services.ErrInvalidInput):
		httpx.JSONError(w, http.StatusBadRequest, services.ErrInvalidInput.Error(), err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func rootCode(err error, candidates ...error) string {
	for _, c := range candidates {
		if errors.Is(err, c) {
			return c.Error()
		}
	}
	return "conflict"
}

func invalid(field, code string) error {
	return invalidAll(validation.Violations{field: code})
}

func invalidAll(v validation.Violations) error {
	return &services.ValidationError{Violations: v}
}

// decodeOptional decodes a JSON body if one was sent.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return httpx.DecodeJSON(r, dst)
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := httpx.PathID(r, name)
	if err != nil {
		return 0, invalid(name, "invalid_format")
	}
	return id, nil
}

// parseDate accepts 2006-01-02 or RFC 3339; empty yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalid(field, "invalid_date")
	}
	return t, nil
}
