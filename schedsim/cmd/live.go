package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/schedsim/driver"
	"github.com/sarchlab/schedsim/hooking"
	"github.com/sarchlab/schedsim/monitoring"
	"github.com/sarchlab/schedsim/report"
)

var (
	flagInterval    time.Duration
	flagMonitorPort int
	flagNoMonitor   bool
	flagOpenBrowser bool
)

var liveCmd = &cobra.Command{
	Use:   "live WORKLOAD",
	Short: "Run a workload in real time with an HTTP monitor.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("interval") {
			cfg.Interval = flagInterval
		}

		if flags.Changed("monitor-port") {
			cfg.MonitorPort = flagMonitorPort
		}

		w, err := loadWorkload(cmd, args[0])
		if err != nil {
			return err
		}

		builder, err := cfg.Builder()
		if err != nil {
			return err
		}

		var monitor *monitoring.Monitor
		runTimes := hooking.NewRunTimeCounter()
		builder = builder.
			WithHook(hooking.NewLogHook(logger, slog.LevelDebug)).
			WithHook(runTimes)

		if !flagNoMonitor {
			monitor = monitoring.NewMonitor(logger).
				WithPortNumber(cfg.MonitorPort)
			if flagOpenBrowser {
				monitor.WithBrowser()
			}

			totalWork := 0
			for _, p := range w.Processes {
				totalWork += p.TotalBurst()
			}

			bar := monitor.CreateProgressBar("CPU work", uint64(totalWork))
			builder = builder.WithHook(monitoring.NewProgressHook(bar))
			monitor.RegisterRunTimeCounter(runTimes)
		}

		engine, err := builder.Build(w.Processes)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(
			context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		d := driver.NewRealtimeDriver(engine, cfg.Interval, logger)

		if monitor != nil {
			monitor.RegisterController(d)
			url, err := monitor.StartServer()
			if err != nil {
				return err
			}
			defer shutdownMonitor(monitor)

			fmt.Fprintf(os.Stderr, "Monitoring run with %s\n", url)
		}

		if err := d.Start(ctx); err != nil {
			return err
		}

		printLive(cmd, d)

		if err := d.Wait(); err != nil {
			return err
		}

		state := d.State()
		if !state.Finished {
			fmt.Fprintln(cmd.OutOrStdout(), "Run stopped before finishing.")
			return nil
		}

		report.WriteStatistics(cmd.OutOrStdout(), state.Statistics)

		return recordRun(engine, state.Statistics)
	},
}

func init() {
	liveCmd.Flags().DurationVar(&flagInterval, "interval", time.Second,
		"wall-clock time between two ticks")
	liveCmd.Flags().IntVar(&flagMonitorPort, "monitor-port", 0,
		"port of the HTTP monitor, random if 0")
	liveCmd.Flags().BoolVar(&flagNoMonitor, "no-monitor", false,
		"do not start the HTTP monitor")
	liveCmd.Flags().BoolVar(&flagOpenBrowser, "open-browser", false,
		"open the monitor in a web browser")
}

// printLive prints one line per tick until the worker exits.
func printLive(cmd *cobra.Command, d *driver.RealtimeDriver) {
	out := cmd.OutOrStdout()
	lastTick := -1

	period := cfg.Interval / 4
	if period <= 0 {
		period = cfg.Interval
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		state := d.State()
		if state.Snapshot.States != nil && state.Snapshot.Tick != lastTick {
			lastTick = state.Snapshot.Tick
			fmt.Fprintf(out, "t=%-4d %s\n", lastTick, describeState(state))
		}

		select {
		case <-d.Done():
			return
		case <-ticker.C:
		}
	}
}

func describeState(s driver.State) string {
	cpu := "idle"
	if s.Running != nil {
		cpu = s.Running.Label()
	}

	ready := make([]string, 0, len(s.Ready))
	for _, p := range s.Ready {
		ready = append(ready, p.Label())
	}

	ids := make([]int, 0, len(s.Snapshot.States))
	for id := range s.Snapshot.States {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	symbols := make([]string, 0, len(ids))
	for _, id := range ids {
		symbol := s.Snapshot.States[id]
		if symbol == "" {
			symbol = "."
		}
		symbols = append(symbols, fmt.Sprintf("P%d:%s", id, symbol))
	}

	return fmt.Sprintf("cpu=%s ready=[%s] %s",
		cpu, strings.Join(ready, ", "), strings.Join(symbols, " "))
}

func shutdownMonitor(m *monitoring.Monitor) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := m.Shutdown(ctx); err != nil {
		logger.Warn("monitor shutdown failed", "error", err)
	}
}
