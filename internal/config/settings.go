package config

import (
	"fmt"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/comparator"
)

// SettingsChange mutates a configuration copy; ConfigManager.ChangeSettings persists it.
type SettingsChange func(cfg *GlobalConfig) error

// SetIntervalMinutes changes the polling interval.
func SetIntervalMinutes(minutes int) SettingsChange {
	return func(cfg *GlobalConfig) error {
		if minutes < MinMonitorIntervalMinutes || minutes > MaxMonitorIntervalMinutes {
			return common.NewValidationError("interval_minutes", minutes,
				fmt.Sprintf("must be between %d and %d", MinMonitorIntervalMinutes, MaxMonitorIntervalMinutes))
		}
		cfg.MonitorConfig.IntervalMinutes = minutes
		return nil
	}
}

// SetAutoStart toggles starting the watcher with the engine.
func SetAutoStart(enabled bool) SettingsChange {
	return func(cfg *GlobalConfig) error {
		cfg.MonitorConfig.AutoStart = enabled
		return nil
	}
}

// SetIgnoredFields normalizes then validates fields before storing them.
func SetIgnoredFields(fields []string) SettingsChange {
	return func(cfg *GlobalConfig) error {
		normalized := comparator.NormalizeIgnoredFields(fields)
		if err := comparator.ValidateIgnoredFields(normalized); err != nil {
			return err
		}
		cfg.ProfileConfig.IgnoredFields = normalized
		return nil
	}
}

// ResetIgnoredFields restores the default ignored fields.
func ResetIgnoredFields() SettingsChange {
	return func(cfg *GlobalConfig) error {
		cfg.ProfileConfig.IgnoredFields = DefaultIgnoredFields()
		return nil
	}
}

// ResetSettings restores the user-facing settings (monitor, ignored fields and UI)
// while keeping the profile directory, storage and logging setup.
func ResetSettings() SettingsChange {
	return func(cfg *GlobalConfig) error {
		cfg.MonitorConfig = NewDefaultMonitorConfig()
		cfg.ProfileConfig.IgnoredFields = DefaultIgnoredFields()
		cfg.UIConfig = NewDefaultUIConfig()
		return nil
	}
}

// IgnoredFieldSet builds the comparator set from the configured names.
func (pc ProfileConfig) IgnoredFieldSet() (comparator.IgnoredFieldSet, error) {
	return comparator.NewIgnoredFieldSet(pc.IgnoredFields)
}
