package config

import (
	"time"
)

// MonitorConfig defines configuration for the profile file watcher
type MonitorConfig struct {
	IntervalMinutes int  `json:"interval_minutes,omitempty" yaml:"interval_minutes,omitempty" toml:"interval_minutes,omitempty" validate:"min=1,max=1440"`
	AutoStart       bool `json:"auto_start" yaml:"auto_start" toml:"auto_start"`
	MaxScanErrors   int  `json:"max_scan_errors,omitempty" yaml:"max_scan_errors,omitempty" toml:"max_scan_errors,omitempty" validate:"min=1"`
	CacheSizeLimit  int  `json:"cache_size_limit,omitempty" yaml:"cache_size_limit,omitempty" toml:"cache_size_limit,omitempty" validate:"min=1"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		IntervalMinutes: DefaultMonitorIntervalMinutes,
		AutoStart:       DefaultMonitorAutoStart,
		MaxScanErrors:   DefaultMonitorMaxScanErrors,
		CacheSizeLimit:  DefaultMonitorCacheSizeLimit,
	}
}

// Interval returns the polling interval as a duration.
func (mc MonitorConfig) Interval() time.Duration {
	return time.Duration(mc.IntervalMinutes) * time.Minute
}
