// Package cmd provides the command-line interface of schedsim.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/schedsim/config"
	"github.com/sarchlab/schedsim/logging"
	"github.com/sarchlab/schedsim/policy"
	"github.com/sarchlab/schedsim/workload"
)

var (
	flagEnvFile   string
	flagLogLevel  string
	flagLogFormat string
	flagAlgorithm string
	flagQuantum   int
	flagMaxTicks  int
	flagRecord    string

	cfg    config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schedsim",
	Short: "schedsim simulates CPU scheduling algorithms tick by tick.",
	Long: `schedsim simulates FCFS, SJF, SRTF and Round Robin scheduling ` +
		`over a set of processes, showing the CPU and ready queue at every ` +
		`tick and the turnaround, waiting time and service index of every ` +
		`process.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.LoadEnv(flagEnvFile)
		if err != nil {
			return err
		}

		cfg = loaded
		applyFlags(cmd)

		logger = logging.NewLogger(
			logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagEnvFile, "env", ".env",
		"file with SCHEDSIM_* settings")
	flags.StringVar(&flagLogLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	flags.StringVar(&flagLogFormat, "log-format", "", "log format (text, json)")
	flags.StringVarP(&flagAlgorithm, "algorithm", "a", "",
		"scheduling algorithm (FCFS, SJF, SRTF, RR)")
	flags.IntVarP(&flagQuantum, "quantum", "q", 0, "Round Robin quantum")
	flags.IntVar(&flagMaxTicks, "max-ticks", 0,
		"abort runs that do not finish within this many ticks")
	flags.StringVar(&flagRecord, "record", "",
		"export the statistics to this SQLite file prefix")

	rootCmd.AddCommand(runCmd, liveCmd)
}

func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}

	if flags.Changed("algorithm") {
		cfg.Algorithm = flagAlgorithm
	}

	if flags.Changed("quantum") {
		cfg.Quantum = flagQuantum
	}

	if flags.Changed("max-ticks") {
		cfg.MaxTicks = flagMaxTicks
	}

	if flags.Changed("record") {
		cfg.RecordPath = flagRecord
	}
}

// loadWorkload reads the workload file. Scheduling settings found in the file
// apply unless they were given as flags.
func loadWorkload(cmd *cobra.Command, path string) (*workload.Workload, error) {
	w, err := workload.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if w.Algorithm != "" && !flags.Changed("algorithm") {
		cfg.Algorithm = w.Algorithm
	}

	if w.Quantum != 0 && !flags.Changed("quantum") {
		cfg.Quantum = w.Quantum
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("workload loaded",
		"path", path,
		"processes", len(w.Processes),
		"algorithm", cfg.Algorithm)

	return w, nil
}

// quantumOf returns the quantum of a Round Robin policy and 0 for the others.
func quantumOf(pol policy.Policy) int {
	if q, ok := pol.(interface{ Quantum() int }); ok {
		return q.Quantum()
	}

	return 0
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
