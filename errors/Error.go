package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrData carries structured, error-specific context (e.g. the offending
// hash or sequence) alongside a human-readable message.
type ErrData interface {
	Error() string
}

// Error is the error type returned across chain core package boundaries.
// It wraps an underlying cause without discarding it, and carries a Code
// so callers can classify failures (fatal vs recoverable) without string
// matching.
type Error struct {
	Code       Code
	Message    string
	WrappedErr error
	Data       ErrData
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)

	if e.Data != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Data.Error())
	}

	if e.WrappedErr != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.WrappedErr.Error())
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.WrappedErr
}

// Is reports whether target is an *Error with the same Code, checking the
// wrapped chain as well. A bare Code comparison would miss errors nested
// several levels deep.
func (e *Error) Is(target error) bool {
	var t *Error
	if stderrors.As(target, &t) {
		if e.Code == t.Code {
			return true
		}
	}

	if e.WrappedErr != nil {
		return stderrors.Is(e.WrappedErr, target)
	}

	return false
}

func (e *Error) As(target interface{}) bool {
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}

	if e.WrappedErr != nil {
		return stderrors.As(e.WrappedErr, target)
	}

	return false
}

// New constructs an *Error. An error value among params is recorded as
// WrappedErr. ErrData has the same method set as error, so an ErrData
// value passed here is also recorded as WrappedErr; Data is never set by
// New.
func New(code Code, message string, params ...interface{}) *Error {
	e := &Error{Code: code, Message: message}

	for _, p := range params {
		switch v := p.(type) {
		case error:
			e.WrappedErr = v
		case ErrData:
			e.Data = v
		}
	}

	return e
}

// Wrap attaches code/message context to an existing error without losing it.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, WrappedErr: err}
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error, and
// ErrUnknown otherwise.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}

	return ErrUnknown
}
