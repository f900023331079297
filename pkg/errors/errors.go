// Package errors defines AppError, the coded error carried across the store,
// the cache, the advisory client and the CLI.  The analytics engine itself
// never fails; an AppError always describes I/O or bad input.
package errors

import (
	"errors"
	"fmt"
)

// AppError is a coded error with an optional cause.
//
//	errors.New(errors.ErrCodeSHGNotFound, "shg not found").WithDetail("id=42")
//	errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load members")
type AppError struct {
	Code    ErrorCode
	Message string
	// Detail names the entity or input involved, e.g. "id=7" or a file path.
	Detail string
	Cause  error
}

// Error renders "[CODE] message" or "[CODE] message: detail".
func (e *AppError) Error() string {
	if e.Detail == "" {
		return "[" + string(e.Code) + "] " + e.Message
	}
	return "[" + string(e.Code) + "] " + e.Message + ": " + e.Detail
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError with the same code, so sentinels such as a
// cache miss still match after WithCause or WithDetail.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code && t.Message == e.Message
}

// WithDetail returns a copy with Detail set.  Nil-safe.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	c.Detail = detail
	return &c
}

// WithCause returns a copy with Cause set.  Nil-safe.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	c.Cause = err
	return &c
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap returns nil for a nil err.  CodeUnknown keeps the code of the first
// AppError in err's chain.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		code = CodeOf(err)
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// InvalidParam reports a bad command-line argument or flag.
func InvalidParam(message string) *AppError {
	return New(ErrCodeBadRequest, message)
}

// Validation reports an invalid record or constructor input.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var ae *AppError
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Code == code {
			return true
		}
		err = ae.Cause
	}
	return false
}

// IsNotFound reports whether err names a missing SHG, product, demand
// centre or other entity.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound) ||
		IsCode(err, ErrCodeSHGNotFound) ||
		IsCode(err, ErrCodeProductNotFound) ||
		IsCode(err, ErrCodeDemandNotFound)
}

// CodeOf returns the code of the outermost AppError, CodeOK for nil and
// CodeUnknown for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Retryable reports whether the outermost code allows another attempt.
func Retryable(err error) bool {
	return IsRetryable(CodeOf(err))
}

// Process exit statuses returned by ExitCode.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
)

// ExitCode maps err to the shgctl process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsCode(err, ErrCodeBadRequest), IsCode(err, ErrCodeValidation), IsCode(err, ErrCodeInvalidRecord):
		return ExitUsage
	case IsNotFound(err):
		return ExitNotFound
	default:
		return ExitFailure
	}
}
