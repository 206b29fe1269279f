package core

// StepStatus represents the execution status of a flow step or test case
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Assertion failed
	StatusErrored                   // Infrastructure error (session, config)
	StatusSkipped                   // Skip flag set
	StatusWarned                    // Soft failure, flow continued
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	case StatusWarned:
		return "warned"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON reports.
func (s StepStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusWarned:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// ErrorCategory classifies the type of error for reporting and recovery decisions
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryLookup                          // Element not found / not visible
	ErrCategoryExhausted                       // Navigator attempt budget spent
	ErrCategoryAssertion                       // Post-condition check failed
	ErrCategoryTimeout                         // Bounded wait expired
	ErrCategoryConnection                      // Server unreachable, session lost
	ErrCategoryConfig                          // Invalid configuration
	ErrCategoryUnknown                         // Not an ExecutionError
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryLookup:
		return "lookup"
	case ErrCategoryExhausted:
		return "exhausted"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
