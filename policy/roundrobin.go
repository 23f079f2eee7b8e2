package policy

import "github.com/sarchlab/schedsim/process"

// roundRobin runs processes in ready queue order for at most quantum
// consecutive ticks each.
type roundRobin struct {
	quantum int
}

func (roundRobin) Algorithm() Algorithm {
	return RoundRobin
}

// Quantum returns the number of consecutive ticks a process may run.
func (r roundRobin) Quantum() int {
	return r.quantum
}

func (roundRobin) SelectNext(
	ready []*process.Process,
) (*process.Process, []*process.Process) {
	return popHead(ready)
}

func (r roundRobin) ShouldPreempt(
	running *process.Process,
	_ []*process.Process,
	quantumUsed int,
) bool {
	return running != nil && quantumUsed >= r.quantum
}

func (roundRobin) DisplayOrder(ready []*process.Process) []*process.Process {
	return inInsertionOrder(ready)
}
