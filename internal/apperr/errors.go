// Package apperr defines the error taxonomy shared across the store,
// queue, and worker layers (see §7 of the design: Transient/Busy,
// NotFound, External/Provider, Invariant, Shutdown).
package apperr

import (
	"errors"
	"fmt"
)

// AppError carries a stable code alongside a human-readable message and
// an optional wrapped cause.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Sentinel error classes. Callers compare with errors.Is.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrInvariant  = errors.New("invariant violation")
	ErrBusy       = errors.New("store is busy")
	ErrShutdown   = errors.New("shutdown in progress")
)

// New builds an AppError with the given code and message.
func New(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Busy wraps ErrBusy with the name of the operation that exhausted its
// retry budget, surfacing as the OperationBusy failure from §4.2. cause,
// if non-nil, is the last busy/locked error observed; it still satisfies
// errors.Is(err, ErrBusy) via AppError.Unwrap falling through to ErrBusy
// when cause is absent.
func Busy(operation string, cause error) error {
	if cause == nil {
		cause = ErrBusy
	}
	return &AppError{Code: "OperationBusy", Message: operation, Cause: cause}
}

// NotFound wraps ErrNotFound with a descriptive message, e.g. naming the
// missing document/job/batch id.
func NotFound(message string) error {
	return &AppError{Code: "NOT_FOUND", Message: message, Cause: ErrNotFound}
}

// Invariant wraps ErrInvariant for state-transition rule violations, e.g.
// archiving a document that is not yet completed.
func Invariant(message string) error {
	return &AppError{Code: "INVARIANT", Message: message, Cause: ErrInvariant}
}

// IsBusy reports whether err is (or wraps) a transient busy/locked
// condition from the store, i.e. the OperationBusy failure of §4.2.
func IsBusy(err error) bool {
	if errors.Is(err, ErrBusy) {
		return true
	}
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == "OperationBusy"
}

// IsNotFound reports whether err is (or wraps) a not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
