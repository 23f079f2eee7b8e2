package policy

import "github.com/sarchlab/schedsim/process"

// srtf picks the ready process with the shortest remaining burst and takes the
// CPU away as soon as a ready process needs strictly less time than the
// running one.
type srtf struct{}

func (srtf) Algorithm() Algorithm {
	return SRTF
}

func (srtf) SelectNext(
	ready []*process.Process,
) (*process.Process, []*process.Process) {
	return popHead(sortedBy(ready, remainingBurst))
}

func (srtf) ShouldPreempt(
	running *process.Process,
	ready []*process.Process,
	_ int,
) bool {
	if running == nil || len(ready) == 0 {
		return false
	}

	shortest := ready[0].RemainingBurst()
	for _, p := range ready[1:] {
		if p.RemainingBurst() < shortest {
			shortest = p.RemainingBurst()
		}
	}

	return running.RemainingBurst() > shortest
}

func (srtf) DisplayOrder(ready []*process.Process) []*process.Process {
	return sortedBy(ready, remainingBurst)
}
