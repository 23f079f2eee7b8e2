package hooking

import (
	"sync"

	"github.com/sarchlab/schedsim/process"
)

// A RunTimeCounter counts the ticks that each process spends on the CPU.
type RunTimeCounter struct {
	lock   sync.Mutex
	counts map[int]int
}

// NewRunTimeCounter creates a RunTimeCounter.
func NewRunTimeCounter() *RunTimeCounter {
	return &RunTimeCounter{
		counts: make(map[int]int),
	}
}

// Func counts execute positions and ignores everything else.
func (c *RunTimeCounter) Func(ctx HookCtx) {
	if ctx.Pos != HookPosExecute {
		return
	}

	p, ok := ctx.Item.(*process.Process)
	if !ok {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.counts[p.ID]++
}

// Count returns the number of ticks the process has run.
func (c *RunTimeCounter) Count(id int) int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.counts[id]
}

// Counts returns a copy of all the counts, keyed by process id.
func (c *RunTimeCounter) Counts() map[int]int {
	c.lock.Lock()
	defer c.lock.Unlock()

	out := make(map[int]int, len(c.counts))
	for id, n := range c.counts {
		out[id] = n
	}

	return out
}
