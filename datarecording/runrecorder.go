package datarecording

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/schedsim/stats"
)

// Table names used by RunRecorder.
const (
	RunTable        = "runs"
	StatisticsTable = "statistics"
)

// RunEntry is one row of the runs table.
type RunEntry struct {
	RunID               string
	Algorithm           string
	Quantum             int
	NumProcesses        int
	Ticks               int
	AverageServiceIndex float64
	RecordedAt          string
}

// StatisticsEntry is one row of the statistics table.
type StatisticsEntry struct {
	RunID        string
	ProcessID    int
	Label        string
	Arrival      int
	Burst        int
	Finish       int
	Turnaround   int
	Wait         int
	ServiceIndex float64
}

// RunInfo describes a finished run.
type RunInfo struct {
	Algorithm string
	Quantum   int
	Ticks     int
}

// A RunRecorder writes the final statistics of runs. It does not record the
// tick-by-tick history.
type RunRecorder struct {
	recorder DataRecorder
}

// NewRunRecorder creates the run and statistics tables in the recorder.
func NewRunRecorder(recorder DataRecorder) (*RunRecorder, error) {
	if err := recorder.CreateTable(RunTable, RunEntry{}); err != nil {
		return nil, err
	}

	if err := recorder.CreateTable(StatisticsTable, StatisticsEntry{}); err != nil {
		return nil, err
	}

	return &RunRecorder{recorder: recorder}, nil
}

// Record stores a run and its statistics and returns the id of the run.
func (r *RunRecorder) Record(info RunInfo, table stats.Table) (string, error) {
	runID := xid.New().String()

	run := RunEntry{
		RunID:               runID,
		Algorithm:           info.Algorithm,
		Quantum:             info.Quantum,
		NumProcesses:        len(table.Records),
		Ticks:               info.Ticks,
		AverageServiceIndex: table.AverageServiceIndex(),
		RecordedAt:          time.Now().UTC().Format(time.RFC3339),
	}

	if err := r.recorder.InsertData(RunTable, run); err != nil {
		return "", err
	}

	for _, rec := range table.Records {
		entry := StatisticsEntry{
			RunID:        runID,
			ProcessID:    rec.ProcessID,
			Label:        rec.Label,
			Arrival:      rec.Arrival,
			Burst:        rec.Burst,
			Finish:       rec.Finish,
			Turnaround:   rec.Turnaround,
			Wait:         rec.Wait,
			ServiceIndex: rec.ServiceIndex,
		}

		if err := r.recorder.InsertData(StatisticsTable, entry); err != nil {
			return "", err
		}
	}

	if err := r.recorder.Flush(); err != nil {
		return "", err
	}

	return runID, nil
}

// ReadStatistics loads the statistics rows of a run, ordered by process id.
func ReadStatistics(db *sql.DB, runID string) ([]StatisticsEntry, error) {
	rows, err := db.Query(
		"SELECT * FROM "+StatisticsTable+" WHERE RunID = ? ORDER BY ProcessID",
		runID)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	defer rows.Close()

	var entries []StatisticsEntry
	for rows.Next() {
		var e StatisticsEntry
		err := rows.Scan(&e.RunID, &e.ProcessID, &e.Label, &e.Arrival,
			&e.Burst, &e.Finish, &e.Turnaround, &e.Wait, &e.ServiceIndex)
		if err != nil {
			return nil, fmt.Errorf("scan statistics: %w", err)
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
