// Package scheduling implements the tick-driven CPU scheduling engine.
package scheduling

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sarchlab/schedsim/hooking"
	"github.com/sarchlab/schedsim/policy"
	"github.com/sarchlab/schedsim/process"
	"github.com/sarchlab/schedsim/stats"
)

// DefaultMaxTicks bounds the length of a run.
const DefaultMaxTicks = 500

// An Option customizes an Engine.
type Option func(e *Engine)

// WithMaxTicks sets the number of ticks after which a run that has not
// drained is aborted.
func WithMaxTicks(n int) Option {
	return func(e *Engine) {
		e.maxTicks = n
	}
}

// WithHook registers a hook on the engine.
func WithHook(h hooking.Hook) Option {
	return func(e *Engine) {
		e.AcceptHook(h)
	}
}

// An Engine runs one scheduling run. It owns private copies of the processes
// and advances them one tick per call to Tick.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	hooking.HookableBase

	policy   policy.Policy
	maxTicks int

	processes   []*process.Process
	arrivals    []*process.Process
	ready       []*process.Process
	running     *process.Process
	quantumUsed int
	clock       int

	finishTimes map[int]int
	terminated  []*process.Process
	abortErr    error
}

// NewEngine validates the processes and creates an engine that schedules
// copies of them with the given policy. The given processes are never
// modified.
func NewEngine(
	procs []*process.Process,
	pol policy.Policy,
	opts ...Option,
) (*Engine, error) {
	if err := process.ValidateSet(procs); err != nil {
		return nil, err
	}

	if pol == nil {
		return nil, &policy.ConfigurationError{
			Field:  "policy",
			Reason: "no policy given",
		}
	}

	e := &Engine{
		policy:      pol,
		maxTicks:    DefaultMaxTicks,
		processes:   process.CloneAll(procs),
		finishTimes: make(map[int]int),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.maxTicks <= 0 {
		return nil, &policy.ConfigurationError{
			Field:  "max ticks",
			Reason: fmt.Sprintf("must be positive, got %d", e.maxTicks),
		}
	}

	for _, p := range e.processes {
		p.State = process.StateNew
	}

	e.arrivals = make([]*process.Process, len(e.processes))
	copy(e.arrivals, e.processes)
	sort.SliceStable(e.arrivals, func(i, j int) bool {
		return e.arrivals[i].Arrival < e.arrivals[j].Arrival
	})

	return e, nil
}

// Policy returns the policy of the engine.
func (e *Engine) Policy() policy.Policy {
	return e.policy
}

// MaxTicks returns the tick bound of the run.
func (e *Engine) MaxTicks() int {
	return e.maxTicks
}

// CurrentTime returns the tick the engine will execute next.
func (e *Engine) CurrentTime() int {
	return e.clock
}

// Done tells if every process has terminated.
func (e *Engine) Done() bool {
	return len(e.arrivals) == 0 && len(e.ready) == 0 && e.running == nil
}

// Err returns the error that aborted the run, if any.
func (e *Engine) Err() error {
	return e.abortErr
}

// Running returns a copy of the running process, or nil.
func (e *Engine) Running() *process.Process {
	if e.running == nil {
		return nil
	}

	return e.running.Clone()
}

// ReadyQueue returns copies of the ready processes in display order.
func (e *Engine) ReadyQueue() []*process.Process {
	return process.CloneAll(e.policy.DisplayOrder(e.ready))
}

// Terminated returns copies of the finished processes in finish order.
func (e *Engine) Terminated() []*process.Process {
	return process.CloneAll(e.terminated)
}

// Processes returns copies of all the processes in the order they were given.
func (e *Engine) Processes() []*process.Process {
	return process.CloneAll(e.processes)
}

// FinishTime returns the instant at which a process finished.
func (e *Engine) FinishTime(id int) (int, bool) {
	t, ok := e.finishTimes[id]
	return t, ok
}

// Statistics returns the statistics of a finished run. An aborted run returns
// its *SimulationAbortedError and a run that is not done returns
// ErrRunInProgress.
func (e *Engine) Statistics() (stats.Table, error) {
	if e.abortErr != nil {
		return stats.Table{}, e.abortErr
	}

	if !e.Done() {
		return stats.Table{}, ErrRunInProgress
	}

	return stats.Compute(e.processes, e.finishTimes), nil
}

// Tick runs one tick: admission, preemption, selection, snapshot, execution
// and clock advance, in that order. It returns the snapshot of the tick.
func (e *Engine) Tick() (Snapshot, error) {
	if e.abortErr != nil {
		return Snapshot{}, e.abortErr
	}

	if e.Done() {
		return Snapshot{}, ErrRunFinished
	}

	if e.clock >= e.maxTicks {
		e.abort()
		return Snapshot{}, e.abortErr
	}

	e.admit()
	e.preempt()
	e.dispatch()
	snapshot := e.snapshot()
	e.execute()

	e.clock++

	return snapshot, nil
}

func (e *Engine) admit() {
	for len(e.arrivals) > 0 && e.arrivals[0].Arrival <= e.clock {
		p := e.arrivals[0]
		e.arrivals = e.arrivals[1:]

		p.State = process.StateReady
		e.ready = append(e.ready, p)

		e.invoke(hooking.HookPosAdmit, p, nil)
	}
}

func (e *Engine) preempt() {
	if e.running == nil {
		return
	}

	if !e.policy.ShouldPreempt(e.running, e.ready, e.quantumUsed) {
		return
	}

	p := e.running
	p.State = process.StateReady
	e.ready = append(e.ready, p)
	e.running = nil
	e.quantumUsed = 0

	e.invoke(hooking.HookPosPreempt, p, nil)
}

func (e *Engine) dispatch() {
	if e.running != nil || len(e.ready) == 0 {
		return
	}

	next, rest := e.policy.SelectNext(e.ready)
	e.ready = rest

	next.State = process.StateRunning
	e.running = next
	e.quantumUsed = 0

	e.invoke(hooking.HookPosDispatch, next, nil)
}

func (e *Engine) snapshot() Snapshot {
	ranks := make(map[int]int, len(e.ready))
	for i, p := range e.policy.DisplayOrder(e.ready) {
		ranks[p.ID] = i + 1
	}

	s := Snapshot{
		Tick:   e.clock,
		States: make(map[int]string, len(e.processes)),
	}

	for _, p := range e.processes {
		switch {
		case p.State == process.StateTerminated, p.Arrival > e.clock:
			s.States[p.ID] = SymbolIdle
		case p == e.running:
			s.States[p.ID] = SymbolRunning
			s.Running = p.ID
		default:
			rank, ok := ranks[p.ID]
			if !ok {
				panic(fmt.Sprintf(
					"process %d is ready at tick %d but not ranked",
					p.ID, e.clock))
			}

			s.States[p.ID] = strconv.Itoa(rank)
		}

		if p.State != process.StateTerminated {
			s.RemainingWork += p.RemainingBurst()
		}
	}

	e.invoke(hooking.HookPosSnapshot, s, nil)

	return s
}

func (e *Engine) execute() {
	if e.running == nil {
		return
	}

	p := e.running
	remaining := p.ExecuteTick()
	e.quantumUsed++

	e.invoke(hooking.HookPosExecute, p, nil)

	if remaining > 0 {
		return
	}

	finish := e.clock + 1
	e.finishTimes[p.ID] = finish
	p.State = process.StateTerminated
	e.terminated = append(e.terminated, p)
	e.running = nil
	e.quantumUsed = 0

	e.invoke(hooking.HookPosTerminate, p, finish)
}

func (e *Engine) abort() {
	err := &SimulationAbortedError{MaxTicks: e.maxTicks}
	for _, p := range e.processes {
		if p.State != process.StateTerminated {
			err.Unfinished = append(err.Unfinished, p.ID)
		}
	}

	e.abortErr = err

	e.invoke(hooking.HookPosAbort, err, nil)
}

func (e *Engine) invoke(pos *hooking.HookPos, item, detail any) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    pos,
		Now:    e.clock,
		Item:   item,
		Detail: detail,
	})
}
