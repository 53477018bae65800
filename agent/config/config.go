package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIntervalSeconds = 1
	DefaultQueueSize       = 1024
	DefaultReportOutput    = "stdout"
)

type Config struct {
	Agent              AgentConfig              `yaml:"agent"`
	ActivityMonitoring ActivityMonitoringConfig `yaml:"activity_monitoring"`
	Report             ReportConfig             `yaml:"report"`
	Logging            LoggingConfig            `yaml:"logging"`
}

type AgentConfig struct {
	ComputerName string `yaml:"computer_name"`
}

type ActivityMonitoringConfig struct {
	IntervalSeconds   int   `yaml:"interval_seconds"`
	TrackProcessNames bool  `yaml:"track_process_names"`
	FlushOnStop       *bool `yaml:"flush_on_stop"`
}

// Interval returns the foreground window sampling cadence.
func (c ActivityMonitoringConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ShouldFlushOnStop reports whether the interval still open at shutdown is
// emitted. Unset means true.
func (c ActivityMonitoringConfig) ShouldFlushOnStop() bool {
	return c.FlushOnStop == nil || *c.FlushOnStop
}

type ReportConfig struct {
	Output    string `yaml:"output"`
	QueueSize int    `yaml:"queue_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads the YAML file at path, expanding environment variables in it.
// A missing file is not an error; defaults are returned instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Agent.ComputerName == "" {
		c.Agent.ComputerName = os.Getenv("COMPUTERNAME")
	}
	if c.Agent.ComputerName == "" {
		if host, err := os.Hostname(); err == nil {
			c.Agent.ComputerName = host
		}
	}
	if c.ActivityMonitoring.IntervalSeconds == 0 {
		c.ActivityMonitoring.IntervalSeconds = DefaultIntervalSeconds
	}
	if c.Report.Output == "" {
		c.Report.Output = DefaultReportOutput
	}
	if c.Report.QueueSize == 0 {
		c.Report.QueueSize = DefaultQueueSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.ActivityMonitoring.IntervalSeconds < 0 {
		return fmt.Errorf("activity_monitoring.interval_seconds must not be negative, got %d", c.ActivityMonitoring.IntervalSeconds)
	}
	if c.Report.QueueSize < 0 {
		return fmt.Errorf("report.queue_size must not be negative, got %d", c.Report.QueueSize)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported logging.format %q", c.Logging.Format)
	}
	return nil
}
