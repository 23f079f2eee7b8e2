// Package config holds the settings of schedsim runs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sarchlab/schedsim/policy"
	"github.com/sarchlab/schedsim/scheduling"
)

// Environment keys read by LoadEnv.
const (
	KeyAlgorithm   = "SCHEDSIM_ALGORITHM"
	KeyQuantum     = "SCHEDSIM_QUANTUM"
	KeyMaxTicks    = "SCHEDSIM_MAX_TICKS"
	KeyInterval    = "SCHEDSIM_INTERVAL"
	KeyLogLevel    = "SCHEDSIM_LOG_LEVEL"
	KeyLogFormat   = "SCHEDSIM_LOG_FORMAT"
	KeyMonitorPort = "SCHEDSIM_MONITOR_PORT"
	KeyRecordPath  = "SCHEDSIM_RECORD_PATH"
)

// Config is the configuration of a run.
type Config struct {
	Algorithm   string
	Quantum     int
	MaxTicks    int
	Interval    time.Duration
	LogLevel    string
	LogFormat   string
	MonitorPort int

	// RecordPath is the database file prefix for the statistics export. The
	// export is disabled when it is empty.
	RecordPath string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Algorithm: string(policy.FCFS),
		Quantum:   policy.DefaultQuantum,
		MaxTicks:  scheduling.DefaultMaxTicks,
		Interval:  time.Second,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadEnv reads a .env file on top of the defaults. A missing file is not an
// error.
func LoadEnv(path string) (Config, error) {
	cfg := Default()

	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.apply(values); err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) apply(values map[string]string) error {
	if v, ok := values[KeyAlgorithm]; ok {
		c.Algorithm = v
	}

	if v, ok := values[KeyLogLevel]; ok {
		c.LogLevel = v
	}

	if v, ok := values[KeyLogFormat]; ok {
		c.LogFormat = v
	}

	if v, ok := values[KeyRecordPath]; ok {
		c.RecordPath = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{KeyQuantum, &c.Quantum},
		{KeyMaxTicks, &c.MaxTicks},
		{KeyMonitorPort, &c.MonitorPort},
	}

	for _, i := range ints {
		v, ok := values[i.key]
		if !ok {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", i.key, err)
		}

		*i.dst = n
	}

	if v, ok := values[KeyInterval]; ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", KeyInterval, err)
		}

		c.Interval = d
	}

	return nil
}

// Validate checks that the configuration can run. Scheduling problems are
// reported as *policy.ConfigurationError.
func (c Config) Validate() error {
	algorithm, err := policy.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return err
	}

	if algorithm == policy.RoundRobin && c.Quantum <= 0 {
		return &policy.ConfigurationError{
			Field:  "quantum",
			Reason: fmt.Sprintf("must be positive, got %d", c.Quantum),
		}
	}

	if c.MaxTicks <= 0 {
		return &policy.ConfigurationError{
			Field:  "max ticks",
			Reason: fmt.Sprintf("must be positive, got %d", c.MaxTicks),
		}
	}

	if c.Interval <= 0 {
		return &policy.ConfigurationError{
			Field:  "interval",
			Reason: fmt.Sprintf("must be positive, got %s", c.Interval),
		}
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return &policy.ConfigurationError{
			Field:  "monitor port",
			Reason: fmt.Sprintf("out of range: %d", c.MonitorPort),
		}
	}

	return nil
}

// Builder returns an engine builder set up from the configuration.
func (c Config) Builder() (scheduling.Builder, error) {
	if err := c.Validate(); err != nil {
		return scheduling.Builder{}, err
	}

	algorithm, _ := policy.ParseAlgorithm(c.Algorithm)

	return scheduling.MakeBuilder().
		WithAlgorithm(algorithm).
		WithQuantum(c.Quantum).
		WithMaxTicks(c.MaxTicks), nil
}
