package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/alucardeht/wayleave/internal/logger"
)

const (
	EnvLogLevel = "WAYLEAVE_LOG_LEVEL"
	EnvInbox    = "WAYLEAVE_INBOX"
	EnvOutbox   = "WAYLEAVE_OUTBOX"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type BatchConfig struct {
	Inbox           string   `yaml:"inbox"`
	Outbox          string   `yaml:"outbox"`
	Include         []string `yaml:"include"`
	Ignore          []string `yaml:"ignore"`
	Workers         int      `yaml:"workers"`
	QueueSize       int      `yaml:"queue_size"`
	MaxFileSize     int64    `yaml:"max_file_size"`
	RequirePostcode bool     `yaml:"require_postcode"`
}

type WatchConfig struct {
	Debounce       time.Duration `yaml:"debounce"`
	MaxBatchSize   int           `yaml:"max_batch_size"`
	WatchHidden    bool          `yaml:"watch_hidden"`
	RescanSchedule string        `yaml:"rescan_schedule"`
}

type Config struct {
	DataDir      string      `yaml:"data_dir"`
	DatabasePath string      `yaml:"database_path"`
	SocketPath   string      `yaml:"socket_path"`
	Log          LogConfig   `yaml:"log"`
	Batch        BatchConfig `yaml:"batch"`
	Watch        WatchConfig `yaml:"watch"`
}

func DataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".wayleave")
}

func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

func Default() *Config {
	dataDir := DataDir()

	return &Config{
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "wayleave.db"),
		SocketPath:   filepath.Join(dataDir, "daemon.sock"),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Batch: BatchConfig{
			Inbox:       filepath.Join(dataDir, "inbox"),
			Outbox:      filepath.Join(dataDir, "outbox"),
			Include:     []string{"**/*.txt"},
			Ignore:      []string{"**/.processed/**", "**/~$*"},
			Workers:     2,
			QueueSize:   1000,
			MaxFileSize: 5 * 1024 * 1024,
		},
		Watch: WatchConfig{
			Debounce:       300 * time.Millisecond,
			MaxBatchSize:   100,
			RescanSchedule: "@every 1h",
		},
	}
}

// Load reads path over the defaults. An empty path means DefaultPath, which
// may be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvInbox); v != "" {
		c.Batch.Inbox = v
	}
	if v := os.Getenv(EnvOutbox); v != "" {
		c.Batch.Outbox = v
	}
}

// Validate reports every bad value at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !logger.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers: must be at least 1, got %d", c.Batch.Workers))
	}
	if c.Batch.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("batch.queue_size: must be at least 1, got %d", c.Batch.QueueSize))
	}
	if c.Batch.MaxFileSize < 0 {
		errs = append(errs, errors.New("batch.max_file_size: must not be negative"))
	}
	for _, pattern := range append(append([]string{}, c.Batch.Include...), c.Batch.Ignore...) {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("batch: bad glob %q", pattern))
		}
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("watch.debounce: must not be negative"))
	}
	if c.Watch.MaxBatchSize < 1 {
		errs = append(errs, fmt.Errorf("watch.max_batch_size: must be at least 1, got %d", c.Watch.MaxBatchSize))
	}
	if c.Watch.RescanSchedule != "" {
		if _, err := cron.ParseStandard(c.Watch.RescanSchedule); err != nil {
			errs = append(errs, fmt.Errorf("watch.rescan_schedule: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, filepath.Dir(c.DatabasePath), filepath.Dir(c.SocketPath), c.Batch.Outbox} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
