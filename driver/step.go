// Package driver runs scheduling engines, either one tick per call or on a
// wall-clock timer.
package driver

import (
	"errors"

	"github.com/sarchlab/schedsim/scheduling"
	"github.com/sarchlab/schedsim/stats"
)

// ErrDriverFinished is returned when advancing a driver that already returned
// the statistics of its run or failed.
var ErrDriverFinished = errors.New("driver already finished")

// A Step is the outcome of one Advance call. It either carries the snapshot of
// a tick or, when Done is set, the statistics of the finished run.
type Step struct {
	Snapshot   scheduling.Snapshot
	Done       bool
	Statistics stats.Table
}

// A StepDriver advances an engine one tick per call. It cannot be restarted;
// create a new engine and driver for every run.
type StepDriver struct {
	engine   *scheduling.Engine
	finished bool
}

// NewStepDriver creates a StepDriver that owns the engine.
func NewStepDriver(engine *scheduling.Engine) *StepDriver {
	return &StepDriver{engine: engine}
}

// Advance runs one tick and returns its snapshot. Once every process has
// terminated, it returns a Step with Done set and the statistics. Errors from
// the engine end the run.
func (d *StepDriver) Advance() (Step, error) {
	if d.finished {
		return Step{}, ErrDriverFinished
	}

	if d.engine.Done() {
		d.finished = true

		table, err := d.engine.Statistics()
		if err != nil {
			return Step{}, err
		}

		return Step{Done: true, Statistics: table}, nil
	}

	snapshot, err := d.engine.Tick()
	if err != nil {
		d.finished = true
		return Step{}, err
	}

	return Step{Snapshot: snapshot}, nil
}

// Run advances the engine until the run ends. Every snapshot is passed to
// visit, which may be nil.
func (d *StepDriver) Run(
	visit func(scheduling.Snapshot),
) (stats.Table, error) {
	for {
		step, err := d.Advance()
		if err != nil {
			return stats.Table{}, err
		}

		if step.Done {
			return step.Statistics, nil
		}

		if visit != nil {
			visit(step.Snapshot)
		}
	}
}
