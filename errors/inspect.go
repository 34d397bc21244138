package errors

import (
	"context"
	stderrors "errors"
)

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Wrap converts any error into an AppError. AppErrors anywhere in the chain
// are returned as-is; context errors map to CANCELED or TIMEOUT; everything
// else becomes INTERNAL_ERROR.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return Timeout("sieve", err)
	case stderrors.Is(err, context.Canceled):
		return Canceled(err)
	}
	return Internal(err)
}

// ExitCode returns the process exit code for err. A nil error exits 0.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return Wrap(err).ExitCode
}
