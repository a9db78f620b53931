package watcher

import (
	"time"

	"github.com/alucardeht/wayleave/internal/config"
)

type WatcherConfig struct {
	DebounceWindow time.Duration `json:"debounce_window"`
	MaxBatchSize   int           `json:"max_batch_size"`
	WatchHidden    bool          `json:"watch_hidden"`
	// RescanSchedule is a cron schedule; empty disables periodic rescans.
	RescanSchedule string `json:"rescan_schedule"`
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceWindow: 300 * time.Millisecond,
		MaxBatchSize:   100,
		WatchHidden:    false,
		RescanSchedule: "@every 1h",
	}
}

func FromConfig(c config.WatchConfig) WatcherConfig {
	wc := DefaultWatcherConfig()
	if c.Debounce > 0 {
		wc.DebounceWindow = c.Debounce
	}
	if c.MaxBatchSize > 0 {
		wc.MaxBatchSize = c.MaxBatchSize
	}
	wc.WatchHidden = c.WatchHidden
	wc.RescanSchedule = c.RescanSchedule
	return wc
}
