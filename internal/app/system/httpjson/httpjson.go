// Package httpjson writes and reads the JSON bodies used by every feature
// handler, and maps application errors onto HTTP statuses in one place.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/limits"
)

// OK writes v as a JSON response with status 200.
func OK(w http.ResponseWriter, v any) {
	Respond(w, http.StatusOK, v)
}

// Respond writes v as a JSON response with the given status.
func Respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	Respond(w, status, map[string]string{"error": msg})
}

// WriteErr maps an application error onto an HTTP status and writes it.
// Validation→400, NotFound→404, PermissionDenied→403, Conflict→409,
// anything else→500 with a generic message so storage details never reach
// the client. Storage-kind errors are logged before being masked.
func WriteErr(w http.ResponseWriter, log *zap.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		Error(w, http.StatusBadRequest, err.Error())
	case apperr.KindNotFound:
		Error(w, http.StatusNotFound, err.Error())
	case apperr.KindPermissionDenied:
		Error(w, http.StatusForbidden, err.Error())
	case apperr.KindConflict:
		Error(w, http.StatusConflict, err.Error())
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// Decode reads a JSON request body into dst, enforcing the standard body
// size limit and rejecting unknown fields.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("request body exceeds %d bytes", maxErr.Limit)
		}
		return apperr.Validation("invalid JSON body: %v", err)
	}
	return nil
}
