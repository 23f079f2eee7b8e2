// Package process defines the process records that the scheduling engine
// works on.
package process

import "fmt"

// State is the lifecycle state of a process.
type State int

// The lifecycle states of a process.
const (
	StateNew State = iota
	StateReady
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// A Process is a unit of CPU work with an arrival instant and a burst length.
//
// The total burst and the remaining burst are only changed through
// SetTotalBurst and ExecuteTick, so that setting the total burst always
// resets the remaining burst.
type Process struct {
	ID      int
	Name    string
	Arrival int
	State   State

	totalBurst     int
	remainingBurst int
}

// New creates a process. It fails with a *ValidationError if the id is not
// positive, the burst is not positive, or the arrival is negative.
func New(id int, name string, totalBurst, arrival int) (*Process, error) {
	if id <= 0 {
		return nil, &ValidationError{
			ProcessID: id,
			Field:     "id",
			Reason:    fmt.Sprintf("must be positive, got %d", id),
		}
	}

	if arrival < 0 {
		return nil, &ValidationError{
			ProcessID: id,
			Field:     "arrival",
			Reason:    fmt.Sprintf("must not be negative, got %d", arrival),
		}
	}

	if name == "" {
		name = fmt.Sprintf("Process %d", id)
	}

	p := &Process{
		ID:      id,
		Name:    name,
		Arrival: arrival,
		State:   StateNew,
	}

	if err := p.SetTotalBurst(totalBurst); err != nil {
		return nil, err
	}

	return p, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(id int, name string, totalBurst, arrival int) *Process {
	p, err := New(id, name, totalBurst, arrival)
	if err != nil {
		panic(err)
	}

	return p
}

// TotalBurst returns the CPU time the process requires.
func (p *Process) TotalBurst() int {
	return p.totalBurst
}

// RemainingBurst returns the CPU time the process still needs.
func (p *Process) RemainingBurst() int {
	return p.remainingBurst
}

// SetTotalBurst changes the burst of the process and resets the remaining
// burst to the same value.
func (p *Process) SetTotalBurst(burst int) error {
	if burst <= 0 {
		return &ValidationError{
			ProcessID: p.ID,
			Field:     "burst",
			Reason:    fmt.Sprintf("must be positive, got %d", burst),
		}
	}

	p.totalBurst = burst
	p.remainingBurst = burst

	return nil
}

// ExecuteTick consumes one tick of CPU time and returns the remaining burst.
func (p *Process) ExecuteTick() int {
	if p.remainingBurst <= 0 {
		panic(fmt.Sprintf("process %d has no remaining burst", p.ID))
	}

	p.remainingBurst--

	return p.remainingBurst
}

// Label returns the name used in statistics tables, e.g. "Editor (P3)".
func (p *Process) Label() string {
	return fmt.Sprintf("%s (P%d)", p.Name, p.ID)
}

// Clone returns a deep copy of the process.
func (p *Process) Clone() *Process {
	c := *p
	return &c
}

// CloneAll deep-copies every process in the list, keeping the order.
func CloneAll(procs []*Process) []*Process {
	clones := make([]*Process, 0, len(procs))
	for _, p := range procs {
		clones = append(clones, p.Clone())
	}

	return clones
}

// ValidateSet checks that a list of processes can be simulated together. The
// list must not be empty, contain nil entries, or reuse an id, and every
// process must still satisfy the constraints of New.
func ValidateSet(procs []*Process) error {
	if len(procs) == 0 {
		return &ValidationError{Field: "processes", Reason: "no processes given"}
	}

	seen := make(map[int]bool, len(procs))
	for i, p := range procs {
		if p == nil {
			return &ValidationError{
				Field:  "processes",
				Reason: fmt.Sprintf("entry %d is nil", i),
			}
		}

		if err := p.validate(); err != nil {
			return err
		}

		if seen[p.ID] {
			return &ValidationError{
				ProcessID: p.ID,
				Field:     "id",
				Reason:    "duplicated",
			}
		}

		seen[p.ID] = true
	}

	return nil
}

func (p *Process) validate() error {
	switch {
	case p.ID <= 0:
		return &ValidationError{
			ProcessID: p.ID,
			Field:     "id",
			Reason:    fmt.Sprintf("must be positive, got %d", p.ID),
		}
	case p.Arrival < 0:
		return &ValidationError{
			ProcessID: p.ID,
			Field:     "arrival",
			Reason:    fmt.Sprintf("must not be negative, got %d", p.Arrival),
		}
	case p.totalBurst <= 0:
		return &ValidationError{
			ProcessID: p.ID,
			Field:     "burst",
			Reason:    fmt.Sprintf("must be positive, got %d", p.totalBurst),
		}
	}

	return nil
}
