package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sarchlab/schedsim/process"
	"github.com/sarchlab/schedsim/scheduling"
	"github.com/sarchlab/schedsim/stats"
)

// DefaultInterval is the wall-clock time between two ticks.
const DefaultInterval = time.Second

// ErrAlreadyStarted is returned when starting a realtime driver twice.
var ErrAlreadyStarted = errors.New("realtime driver already started")

// State is what a consumer can observe of a realtime run.
type State struct {
	Clock      int
	Running    *process.Process
	Ready      []*process.Process
	Terminated []*process.Process

	// Snapshot is the snapshot of the last executed tick.
	Snapshot scheduling.Snapshot

	Paused   bool
	Stopped  bool
	Finished bool

	// Statistics is only set when Finished is.
	Statistics stats.Table

	// Err is the failure that stopped the worker, if any.
	Err error
}

// A RealtimeDriver runs an engine on a background worker, one tick per
// interval. The tick body and every read of the engine run under the same
// lock.
type RealtimeDriver struct {
	lock   sync.Mutex
	engine *scheduling.Engine

	interval time.Duration
	logger   *slog.Logger

	started  bool
	paused   bool
	stopped  bool
	finished bool
	last     scheduling.Snapshot
	table    stats.Table
	err      error

	wake chan struct{}
	done chan struct{}
}

// NewRealtimeDriver creates a RealtimeDriver that owns the engine. A
// non-positive interval selects DefaultInterval and a nil logger discards
// logs.
func NewRealtimeDriver(
	engine *scheduling.Engine,
	interval time.Duration,
	logger *slog.Logger,
) *RealtimeDriver {
	if interval <= 0 {
		interval = DefaultInterval
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &RealtimeDriver{
		engine:   engine,
		interval: interval,
		logger:   logger.With("component", "realtime-driver"),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start launches the worker. The first tick runs immediately. Cancelling ctx
// stops the worker like Stop does.
func (d *RealtimeDriver) Start(ctx context.Context) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.started {
		return ErrAlreadyStarted
	}

	if d.stopped {
		return ErrDriverFinished
	}

	d.started = true

	d.logger.Info("realtime run started",
		"algorithm", string(d.engine.Policy().Algorithm()),
		"interval", d.interval)

	go d.loop(ctx)

	return nil
}

// Pause suspends tick advancement. The worker keeps running.
func (d *RealtimeDriver) Pause() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.paused || d.stopped {
		return
	}

	d.paused = true
	d.logger.Info("realtime run paused", "tick", d.engine.CurrentTime())
}

// Resume continues a paused run from the same clock value.
func (d *RealtimeDriver) Resume() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.paused {
		return
	}

	d.paused = false
	d.logger.Info("realtime run resumed", "tick", d.engine.CurrentTime())
}

// Stop terminates the worker at the next tick boundary. It can be called any
// number of times.
func (d *RealtimeDriver) Stop() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.stopped {
		return
	}

	d.stopped = true
	d.logger.Info("realtime run stopped", "tick", d.engine.CurrentTime())

	if !d.started {
		close(d.done)
		return
	}

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Done returns a channel that is closed once the worker has exited.
func (d *RealtimeDriver) Done() <-chan struct{} {
	return d.done
}

// Wait blocks until the worker has exited and returns the error that stopped
// it, if any.
func (d *RealtimeDriver) Wait() error {
	<-d.done

	d.lock.Lock()
	defer d.lock.Unlock()

	return d.err
}

// State reads the current state of the run.
func (d *RealtimeDriver) State() State {
	d.lock.Lock()
	defer d.lock.Unlock()

	return State{
		Clock:      d.engine.CurrentTime(),
		Running:    d.engine.Running(),
		Ready:      d.engine.ReadyQueue(),
		Terminated: d.engine.Terminated(),
		Snapshot:   d.last,
		Paused:     d.paused,
		Stopped:    d.stopped,
		Finished:   d.finished,
		Statistics: d.table,
		Err:        d.err,
	}
}

// Processes returns copies of the processes of the run.
func (d *RealtimeDriver) Processes() []*process.Process {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.engine.Processes()
}

func (d *RealtimeDriver) loop(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for d.tick() {
		select {
		case <-ctx.Done():
			d.Stop()
		case <-d.wake:
		case <-ticker.C:
		}
	}
}

// tick runs one tick unless paused and tells if the worker should continue.
func (d *RealtimeDriver) tick() (keepGoing bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			d.fail(fmt.Errorf("realtime driver: tick panicked: %v", r))
			keepGoing = false
		}
	}()

	if d.stopped {
		return false
	}

	if d.paused {
		return true
	}

	if !d.engine.Done() {
		snapshot, err := d.engine.Tick()
		if err != nil {
			d.fail(err)
			return false
		}

		d.last = snapshot
	}

	if !d.engine.Done() {
		return true
	}

	table, err := d.engine.Statistics()
	if err != nil {
		d.fail(err)
		return false
	}

	d.table = table
	d.finished = true
	d.stopped = true
	d.logger.Info("realtime run finished",
		"ticks", d.engine.CurrentTime(),
		"average_service_index", table.AverageServiceIndex())

	return false
}

func (d *RealtimeDriver) fail(err error) {
	d.err = err
	d.stopped = true
	d.logger.Error("realtime run failed", "error", err)
}
