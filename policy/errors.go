package policy

import "fmt"

// A ConfigurationError reports a scheduling configuration that cannot run,
// such as an unknown algorithm or a Round Robin quantum that is not positive.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
