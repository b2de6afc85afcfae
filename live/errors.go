package live

import "fmt"

// InvalidStateError reports a lifecycle operation attempted in a state that
// does not permit it, such as starting a controller twice or stopping one
// that was never started.
type InvalidStateError struct {
	Op    string // the attempted operation, "start" or "stop"
	State State  // the controller state at the time of the call
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("live: cannot %s controller in state %s", e.Op, e.State)
}

// OptionError reports an invalid or missing field in Options.
type OptionError struct {
	Field   string
	Message string
}

func (e OptionError) Error() string {
	return fmt.Sprintf("live: invalid option %s: %s", e.Field, e.Message)
}
