package config

import (
	"testing"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cfg *GlobalConfig)
		wantRule string
	}{
		{"defaults", func(cfg *GlobalConfig) {}, ""},
		{"interval too small", func(cfg *GlobalConfig) { cfg.MonitorConfig.IntervalMinutes = 0 }, "'min'"},
		{"interval too large", func(cfg *GlobalConfig) { cfg.MonitorConfig.IntervalMinutes = 1441 }, "'max'"},
		{"no scan error budget", func(cfg *GlobalConfig) { cfg.MonitorConfig.MaxScanErrors = 0 }, "'min'"},
		{"bad log level", func(cfg *GlobalConfig) { cfg.LogConfig.LogLevel = "loud" }, "'loglevel'"},
		{"bad log format", func(cfg *GlobalConfig) { cfg.LogConfig.LogFormat = "xml" }, "'logformat'"},
		{"bad icon set", func(cfg *GlobalConfig) { cfg.UIConfig.Icons = "neon" }, "'iconset'"},
		{"bad compression", func(cfg *GlobalConfig) { cfg.StorageConfig.CompressionCodec = "lz77" }, "'compression'"},
		{"bad ignored field", func(cfg *GlobalConfig) { cfg.ProfileConfig.IgnoredFields = []string{"my field"} }, "'ignoredfield'"},
		{"empty ignored list is fine", func(cfg *GlobalConfig) { cfg.ProfileConfig.IgnoredFields = nil }, ""},
		{"bad field type", func(cfg *GlobalConfig) { cfg.ProfileConfig.FieldTypes = map[string]string{"env": "map"} }, "'jsontype'"},
		{"live file with directory", func(cfg *GlobalConfig) { cfg.ProfileConfig.LiveFileName = "sub/settings.json" }, "'plainname'"},
		{"missing directory", func(cfg *GlobalConfig) { cfg.ProfileConfig.Directory = "" }, "'required'"},
		{"history without db", func(cfg *GlobalConfig) { cfg.StorageConfig.HistoryDBPath = "" }, "'required_if'"},
		{"history disabled without db", func(cfg *GlobalConfig) {
			cfg.StorageConfig.HistoryEnabled = false
			cfg.StorageConfig.HistoryDBPath = ""
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.wantRule)
		})
	}
}

func TestValidateConfig_NamesField(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.MonitorConfig.IntervalMinutes = 0

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Validation failed for 'MonitorConfig.IntervalMinutes': rule 'min' (expected: 1)")
}

func TestValidateConfig_Nil(t *testing.T) {
	assert.ErrorIs(t, ValidateConfig(nil), common.ErrValidation)
}
