package policy

import "github.com/sarchlab/schedsim/process"

// sjf picks the ready process with the shortest total burst. Ties keep the
// ready queue order. A selected process keeps the CPU until it finishes.
type sjf struct{}

func (sjf) Algorithm() Algorithm {
	return SJF
}

func (sjf) SelectNext(
	ready []*process.Process,
) (*process.Process, []*process.Process) {
	return popHead(sortedBy(ready, totalBurst))
}

func (sjf) ShouldPreempt(*process.Process, []*process.Process, int) bool {
	return false
}

func (sjf) DisplayOrder(ready []*process.Process) []*process.Process {
	return sortedBy(ready, totalBurst)
}
