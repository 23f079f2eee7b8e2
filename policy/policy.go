// Package policy provides the decision rules of the scheduling algorithms.
//
// A Policy never owns processes. It only decides which ready process runs
// next, whether the running process should give up the CPU, and how the ready
// queue is ranked for display.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sarchlab/schedsim/process"
)

// Algorithm names a scheduling algorithm.
type Algorithm string

// The supported algorithms.
const (
	FCFS       Algorithm = "FCFS"
	SJF        Algorithm = "SJF"
	SRTF       Algorithm = "SRTF"
	RoundRobin Algorithm = "Round Robin"
)

// DefaultQuantum is the Round Robin quantum used when none is given.
const DefaultQuantum = 2

// Algorithms lists every supported algorithm.
func Algorithms() []Algorithm {
	return []Algorithm{FCFS, SJF, SRTF, RoundRobin}
}

// A Policy is the decision logic of one scheduling algorithm.
type Policy interface {
	// Algorithm returns the algorithm the policy implements.
	Algorithm() Algorithm

	// SelectNext picks the process to run from a non-empty ready queue. It
	// returns the chosen process and the remaining ready queue.
	SelectNext(ready []*process.Process) (
		*process.Process,
		[]*process.Process,
	)

	// ShouldPreempt tells if the running process must go back to the ready
	// queue. quantumUsed is the number of consecutive ticks it has run.
	ShouldPreempt(
		running *process.Process,
		ready []*process.Process,
		quantumUsed int,
	) bool

	// DisplayOrder returns the ready queue ranked for display. The input is
	// not modified.
	DisplayOrder(ready []*process.Process) []*process.Process
}

// ParseAlgorithm converts a user supplied name into an Algorithm. Names are
// case-insensitive; "RR", "RoundRobin" and "Round Robin" all select Round
// Robin.
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.NewReplacer(" ", "", "-", "", "_", "").
		Replace(normalized)

	switch normalized {
	case "FCFS", "FIFO":
		return FCFS, nil
	case "SJF":
		return SJF, nil
	case "SRTF":
		return SRTF, nil
	case "RR", "ROUNDROBIN":
		return RoundRobin, nil
	}

	return "", &ConfigurationError{
		Field:  "algorithm",
		Reason: fmt.Sprintf("unknown algorithm %q", name),
	}
}

// New creates the policy of an algorithm. The quantum is only used by Round
// Robin, which requires it to be positive.
func New(algorithm Algorithm, quantum int) (Policy, error) {
	switch algorithm {
	case FCFS:
		return fcfs{}, nil
	case SJF:
		return sjf{}, nil
	case SRTF:
		return srtf{}, nil
	case RoundRobin:
		if quantum <= 0 {
			return nil, &ConfigurationError{
				Field:  "quantum",
				Reason: fmt.Sprintf("must be positive, got %d", quantum),
			}
		}

		return roundRobin{quantum: quantum}, nil
	}

	return nil, &ConfigurationError{
		Field:  "algorithm",
		Reason: fmt.Sprintf("unknown algorithm %q", string(algorithm)),
	}
}

// NewByName parses the algorithm name and creates its policy.
func NewByName(name string, quantum int) (Policy, error) {
	algorithm, err := ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}

	return New(algorithm, quantum)
}

func sortedBy(
	ready []*process.Process,
	key func(p *process.Process) int,
) []*process.Process {
	sorted := make([]*process.Process, len(ready))
	copy(sorted, ready)

	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) < key(sorted[j])
	})

	return sorted
}

func inInsertionOrder(ready []*process.Process) []*process.Process {
	ordered := make([]*process.Process, len(ready))
	copy(ordered, ready)

	return ordered
}

func popHead(
	ready []*process.Process,
) (*process.Process, []*process.Process) {
	if len(ready) == 0 {
		return nil, ready
	}

	return ready[0], ready[1:]
}

func totalBurst(p *process.Process) int {
	return p.TotalBurst()
}

func remainingBurst(p *process.Process) int {
	return p.RemainingBurst()
}
