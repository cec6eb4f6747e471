package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure for the booking boundary.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindUnauthenticated Kind = "unauthenticated"
	KindConflict        Kind = "conflict"
	KindForbidden       Kind = "forbidden"
	KindTransient       Kind = "transient"
	// KindInternal covers anything the taxonomy does not name.
	KindInternal Kind = "internal"
)

// Retryable reports whether a caller may repeat the same request with backoff.
func (k Kind) Retryable() bool {
	return k == KindTransient
}

// Error is a classified failure. Fields holds per-field messages for validation errors.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and message, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

var (
	ErrCabinNotFound      = &Error{Kind: KindNotFound, Message: "cabin not found"}
	ErrBookingNotFound    = &Error{Kind: KindNotFound, Message: "booking not found"}
	ErrNotAvailable       = &Error{Kind: KindConflict, Message: "the selected dates are no longer available"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "sign in to make a reservation"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "booking belongs to another user"}
	ErrStoreUnavailable   = &Error{Kind: KindTransient, Message: "reservation store unavailable, try again"}
	ErrTooManyRequests    = &Error{Kind: KindTransient, Message: "too many booking attempts, try again later"}
	ErrRateLimited        = &Error{Kind: KindTransient, Message: "rate limit exceeded, try again later"}
	ErrDuplicateReference = errors.New("duplicate booking reference")
)

// NewValidationError collects per-field messages under a single validation failure.
func NewValidationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid booking data", Fields: fields}
}

// FieldError is a validation failure on one field.
func FieldError(field, msg string) *Error {
	return NewValidationError(map[string]string{field: msg})
}

// Transient wraps an infrastructure failure as retryable.
func Transient(err error) *Error {
	return &Error{Kind: KindTransient, Message: ErrStoreUnavailable.Message, Err: err}
}

// KindOf classifies err. Context deadlines and cancellations are transient.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}
	return KindInternal
}

// FieldsOf returns per-field messages carried by err, if any.
func FieldsOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// MessageOf returns the short user-facing message for err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	switch KindOf(err) {
	case KindTransient:
		return ErrStoreUnavailable.Message
	default:
		return "could not process the reservation"
	}
}
