package config

import "github.com/aleister1102/cfgswitch/internal/comparator"

const (
	// Monitor Defaults
	DefaultMonitorIntervalMinutes = 5
	DefaultMonitorAutoStart       = true
	DefaultMonitorMaxScanErrors   = 3
	DefaultMonitorCacheSizeLimit  = 100
	MinMonitorIntervalMinutes     = 1
	MaxMonitorIntervalMinutes     = 1440 // one day

	// Profile Defaults
	DefaultProfileDirectory     = "~/.claude"
	DefaultProfileLiveFileName  = "settings.json"
	DefaultProfileSuffix        = ".settings.json"
	DefaultProfileMaxFileSizeMB = 5

	// Storage Defaults
	DefaultStorageHistoryDBPath    = "~/.cfgswitch/history.db"
	DefaultStorageExportDir        = "~/.cfgswitch/exports"
	DefaultStorageCompressionCodec = "zstd"
	DefaultStorageHistoryEnabled   = true

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// UI Defaults
	DefaultUIShowNotifications = true
	DefaultUILanguage          = "en"
	DefaultUIIcons             = "auto"

	// ConfigPathEnvVar overrides the settings file location.
	ConfigPathEnvVar = "CFGSWITCH_CONFIG_PATH"
)

// DefaultIgnoredFields lists the top-level keys that do not affect matching out of the box.
func DefaultIgnoredFields() []string {
	return comparator.DefaultIgnoredFields()
}
