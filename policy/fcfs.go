package policy

import "github.com/sarchlab/schedsim/process"

// fcfs runs processes in the order they enter the ready queue and never
// preempts.
type fcfs struct{}

func (fcfs) Algorithm() Algorithm {
	return FCFS
}

func (fcfs) SelectNext(
	ready []*process.Process,
) (*process.Process, []*process.Process) {
	return popHead(ready)
}

func (fcfs) ShouldPreempt(*process.Process, []*process.Process, int) bool {
	return false
}

func (fcfs) DisplayOrder(ready []*process.Process) []*process.Process {
	return inInsertionOrder(ready)
}
