package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/schedsim/datarecording"
	"github.com/sarchlab/schedsim/driver"
	"github.com/sarchlab/schedsim/hooking"
	"github.com/sarchlab/schedsim/report"
	"github.com/sarchlab/schedsim/scheduling"
	"github.com/sarchlab/schedsim/stats"
)

var runCmd = &cobra.Command{
	Use:   "run WORKLOAD",
	Short: "Run a workload to completion and print its timeline.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorkload(cmd, args[0])
		if err != nil {
			return err
		}

		builder, err := cfg.Builder()
		if err != nil {
			return err
		}

		engine, err := builder.
			WithHook(hooking.NewLogHook(logger, slog.LevelDebug)).
			Build(w.Processes)
		if err != nil {
			return err
		}

		var snapshots []scheduling.Snapshot
		table, err := driver.NewStepDriver(engine).Run(
			func(s scheduling.Snapshot) {
				snapshots = append(snapshots, s)
			})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Algorithm: %s\n", engine.Policy().Algorithm())
		report.WriteTimeline(out, w.Processes, snapshots)
		report.WriteStatistics(out, table)

		return recordRun(engine, table)
	},
}

func recordRun(engine *scheduling.Engine, table stats.Table) error {
	if cfg.RecordPath == "" {
		return nil
	}

	recorder, err := datarecording.New(cfg.RecordPath)
	if err != nil {
		return err
	}
	defer recorder.Close()

	runs, err := datarecording.NewRunRecorder(recorder)
	if err != nil {
		return err
	}

	runID, err := runs.Record(datarecording.RunInfo{
		Algorithm: string(engine.Policy().Algorithm()),
		Quantum:   quantumOf(engine.Policy()),
		Ticks:     engine.CurrentTime(),
	}, table)
	if err != nil {
		return err
	}

	logger.Info("statistics recorded",
		"run", runID, "path", cfg.RecordPath+".sqlite3")
	fmt.Fprintf(os.Stderr, "Statistics recorded as run %s\n", runID)

	return nil
}
