package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// ExitCode is the process exit code for this error.
	ExitCode int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with the exit code derived from code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		ExitCode: ExitCodeFor(code),
	}
}

// --- Sieve Error Constructors ---

// ChannelCreationFailed reports that a stage channel could not be allocated.
func ChannelCreationFailed(depth int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeChannelCreation, Message: fmt.Sprintf("Unable to create the output channel of stage %d.", depth),
		ExitCode: ExitFailure, Cause: cause,
		Details: map[string]any{"stage": depth},
	}
}

// SpawnFailed reports that a stage could not start its successor.
func SpawnFailed(depth int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSpawn, Message: fmt.Sprintf("Unable to start stage %d.", depth),
		ExitCode: ExitFailure, Cause: cause,
		Details: map[string]any{"stage": depth},
	}
}

// SendFailed reports a write failure on the output channel of a stage.
// Stage 0 is the source generator.
func SendFailed(depth int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSend, Message: fmt.Sprintf("Stage %d could not forward a value.", depth),
		ExitCode: ExitFailure, Cause: cause,
		Details: map[string]any{"stage": depth},
	}
}

// ReceiveFailed reports a read failure on the input channel of a stage.
func ReceiveFailed(depth int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeReceive, Message: fmt.Sprintf("Stage %d could not read its input.", depth),
		ExitCode: ExitFailure, Cause: cause,
		Details: map[string]any{"stage": depth},
	}
}

// SinkFailed reports that a witness prime could not be emitted.
func SinkFailed(prime int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSink, Message: fmt.Sprintf("Unable to emit prime %d.", prime),
		ExitCode: ExitFailure, Cause: cause,
		Details: map[string]any{"prime": prime},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	msg := "Invalid input: " + reason
	if field != "" {
		details["field"] = field
		msg = fmt.Sprintf("Invalid input: %s %s", field, reason)
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: msg,
		ExitCode: ExitUsage, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		ExitCode: ExitUsage,
	}
}

// Canceled creates a new AppError for a run that was canceled.
func Canceled(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: "The sieve was canceled before it completed.",
		ExitCode: ExitCanceled, Cause: cause,
	}
}

// Timeout creates a new AppError for a run that exceeded its deadline.
func Timeout(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The sieve did not complete in time.",
		ExitCode: ExitFailure, Cause: cause,
		Details: map[string]any{"operation": operation},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		ExitCode: ExitFailure, Cause: cause,
	}
}
