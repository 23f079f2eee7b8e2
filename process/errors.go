package process

import "fmt"

// A ValidationError reports a process field that cannot be simulated.
type ValidationError struct {
	ProcessID int
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.ProcessID == 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}

	return fmt.Sprintf("process %d: invalid %s: %s",
		e.ProcessID, e.Field, e.Reason)
}
