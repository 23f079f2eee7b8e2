// Package stats derives the per-process performance figures of a finished
// scheduling run.
package stats

import (
	"math"

	"github.com/sarchlab/schedsim/process"
)

// A Record holds the figures of one process.
type Record struct {
	ProcessID int
	Label     string

	Arrival      int // ti
	Burst        int // t
	Finish       int // tf
	Turnaround   int // T = tf - ti
	Wait         int // Te = T - t
	ServiceIndex float64

	// Degenerate is set when the process never finished. Finish is then 0
	// and the derived figures are meaningless.
	Degenerate bool
}

// A Table holds the records of every process of a run, in the order the
// processes were given.
type Table struct {
	Records []Record
}

// Compute derives the statistics from the processes and the instants at which
// they finished. It does not modify its inputs.
func Compute(procs []*process.Process, finishTimes map[int]int) Table {
	t := Table{Records: make([]Record, 0, len(procs))}

	for _, p := range procs {
		finish, finished := finishTimes[p.ID]

		r := Record{
			ProcessID:  p.ID,
			Label:      p.Label(),
			Arrival:    p.Arrival,
			Burst:      p.TotalBurst(),
			Finish:     finish,
			Degenerate: !finished,
		}

		r.Turnaround = r.Finish - r.Arrival
		r.Wait = r.Turnaround - r.Burst
		if r.Turnaround > 0 {
			r.ServiceIndex = round4(float64(r.Burst) / float64(r.Turnaround))
		}

		t.Records = append(t.Records, r)
	}

	return t
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// AverageServiceIndex returns the mean service index. It is 0 for an empty
// table.
func (t Table) AverageServiceIndex() float64 {
	if len(t.Records) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range t.Records {
		sum += r.ServiceIndex
	}

	return sum / float64(len(t.Records))
}

// AverageWait returns the mean waiting time.
func (t Table) AverageWait() float64 {
	if len(t.Records) == 0 {
		return 0
	}

	sum := 0
	for _, r := range t.Records {
		sum += r.Wait
	}

	return float64(sum) / float64(len(t.Records))
}

// AverageTurnaround returns the mean turnaround time.
func (t Table) AverageTurnaround() float64 {
	if len(t.Records) == 0 {
		return 0
	}

	sum := 0
	for _, r := range t.Records {
		sum += r.Turnaround
	}

	return float64(sum) / float64(len(t.Records))
}

// ByID returns the records keyed by process id.
func (t Table) ByID() map[int]Record {
	m := make(map[int]Record, len(t.Records))
	for _, r := range t.Records {
		m[r.ProcessID] = r
	}

	return m
}

// HasDegenerate tells if any process lacks a finish time.
func (t Table) HasDegenerate() bool {
	for _, r := range t.Records {
		if r.Degenerate {
			return true
		}
	}

	return false
}
