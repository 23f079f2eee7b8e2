package scheduling

import (
	"errors"
	"fmt"
)

// ErrRunFinished is returned when ticking an engine whose processes have all
// terminated.
var ErrRunFinished = errors.New("scheduling run already finished")

// ErrRunInProgress is returned when asking for statistics before every
// process has terminated.
var ErrRunInProgress = errors.New("scheduling run still in progress")

// A SimulationAbortedError reports a run that did not drain its processes
// within the tick bound. No statistics are produced for an aborted run.
type SimulationAbortedError struct {
	MaxTicks   int
	Unfinished []int
}

func (e *SimulationAbortedError) Error() string {
	return fmt.Sprintf(
		"simulation aborted after %d ticks with unfinished processes %v",
		e.MaxTicks, e.Unfinished)
}
