// Package apperr defines the typed errors the core operations return.
//
// Five kinds cover every failure mode the web layer needs to distinguish:
// validation (bad input), not found, permission denied, conflict (unique key
// taken), and storage (persistence failure, always surfaced). Stores translate
// driver errors into these at the boundary so callers never match on
// mongo-specific errors.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindPermissionDenied
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a typed application error. It carries a kind, a message for the
// caller, and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two apperr errors by kind, so callers can use
// sentinel-style checks like errors.Is(err, apperr.NotFound("")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Validation reports malformed input (timer status out of range, negative
// capacity, bad enum value).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing church/user/group/profile.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// PermissionDenied reports an access-control rejection. Denials are errors,
// never silent empty results; the distinction matters for auditing.
func PermissionDenied(format string, args ...any) *Error {
	return &Error{Kind: KindPermissionDenied, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a duplicate unique key (domain, email, role name).
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence-layer failure. It is always surfaced to the
// caller, which decides whether to retry.
func Storage(msg string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, or 0 when err is not an application error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }
