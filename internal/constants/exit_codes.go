package constants

// Process exit codes used when strict exit is enabled
const (
	ExitCodeOK        = 0
	ExitCodeError     = 1
	ExitCodeFailed    = 2
	ExitCodeAbandoned = 3
)
