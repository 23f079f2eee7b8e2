package scheduling

import (
	"github.com/sarchlab/schedsim/hooking"
	"github.com/sarchlab/schedsim/policy"
	"github.com/sarchlab/schedsim/process"
)

// Builder can be used to build scheduling engines.
type Builder struct {
	algorithm policy.Algorithm
	quantum   int
	maxTicks  int
	hooks     []hooking.Hook
}

// MakeBuilder creates a builder with FCFS, the default quantum and the default
// tick bound.
func MakeBuilder() Builder {
	return Builder{
		algorithm: policy.FCFS,
		quantum:   policy.DefaultQuantum,
		maxTicks:  DefaultMaxTicks,
	}
}

// WithAlgorithm sets the scheduling algorithm.
func (b Builder) WithAlgorithm(a policy.Algorithm) Builder {
	b.algorithm = a
	return b
}

// WithQuantum sets the Round Robin quantum.
func (b Builder) WithQuantum(q int) Builder {
	b.quantum = q
	return b
}

// WithMaxTicks sets the tick bound.
func (b Builder) WithMaxTicks(n int) Builder {
	b.maxTicks = n
	return b
}

// WithHook adds a hook to every engine built.
func (b Builder) WithHook(h hooking.Hook) Builder {
	hooks := make([]hooking.Hook, len(b.hooks), len(b.hooks)+1)
	copy(hooks, b.hooks)
	b.hooks = append(hooks, h)

	return b
}

// Build creates an engine for the processes.
func (b Builder) Build(procs []*process.Process) (*Engine, error) {
	pol, err := policy.New(b.algorithm, b.quantum)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithMaxTicks(b.maxTicks)}
	for _, h := range b.hooks {
		opts = append(opts, WithHook(h))
	}

	return NewEngine(procs, pol, opts...)
}
