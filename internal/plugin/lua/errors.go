package lua

import "errors"

// Errors for script execution.
var (
	// ErrStateClosed is returned when running on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrScriptFailed wraps a failure reported by the script itself.
	ErrScriptFailed = errors.New("script failed")

	// ErrNoScript is returned for a script action with neither code nor file.
	ErrNoScript = errors.New("script action has no code")
)
