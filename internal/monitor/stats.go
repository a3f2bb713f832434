package monitor

import "time"

// MonitoringStats is a read-only snapshot of the watcher.
type MonitoringStats struct {
	MonitoredFiles  int           `json:"monitored_files"`
	CachedEntries   int           `json:"cached_entries"`
	CurrentErrors   int           `json:"current_errors"`
	SuspendedFiles  int           `json:"suspended_files"`
	Running         bool          `json:"running"`
	IntervalMinutes float64       `json:"interval_minutes"`
	Interval        time.Duration `json:"interval"`
	CacheSizeLimit  int           `json:"cache_size_limit"`
	MaxScanErrors   int           `json:"max_scan_errors"`
	Ticks           uint64        `json:"ticks"`
	LastTick        time.Time     `json:"last_tick"`
	Resources       ResourceUsage `json:"resources"`
}
