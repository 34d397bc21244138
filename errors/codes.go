package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline construction errors
const (
	// ErrCodeChannelCreation indicates a channel could not be allocated (descriptor or memory exhaustion).
	ErrCodeChannelCreation ErrorCode = "CHANNEL_CREATION_FAILED"
	// ErrCodeSpawn indicates the next stage's execution context could not be started.
	ErrCodeSpawn ErrorCode = "SPAWN_FAILED"
)

// Channel I/O errors
const (
	// ErrCodeSend indicates a value could not be written to a channel.
	ErrCodeSend ErrorCode = "SEND_FAILED"
	// ErrCodeReceive indicates a value could not be read from a channel.
	ErrCodeReceive ErrorCode = "RECEIVE_FAILED"
	// ErrCodeSink indicates a discovered prime could not be emitted.
	ErrCodeSink ErrorCode = "SINK_FAILED"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Lifecycle errors
const (
	// ErrCodeCanceled indicates the run was canceled before completion.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeTimeout indicates the run exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Process exit codes reported by the CLI.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitCanceled = 130
)

var exitCodes = map[ErrorCode]int{
	ErrCodeInvalidInput: ExitUsage,
	ErrCodeCanceled:     ExitCanceled,
}

// ExitCodeFor returns the process exit code for an error code.
func ExitCodeFor(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return ExitFailure
}
