package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.Equal(t, 5, cfg.MonitorConfig.IntervalMinutes)
	assert.True(t, cfg.MonitorConfig.AutoStart)
	assert.Equal(t, 3, cfg.MonitorConfig.MaxScanErrors)
	assert.Equal(t, 100, cfg.MonitorConfig.CacheSizeLimit)
	assert.Equal(t, []string{"model", "feedbackSurveyState"}, cfg.ProfileConfig.IgnoredFields)
	assert.Equal(t, "settings.json", cfg.ProfileConfig.LiveFileName)
	assert.Equal(t, ".settings.json", cfg.ProfileConfig.ProfileSuffix)
	assert.Equal(t, "zstd", cfg.StorageConfig.CompressionCodec)
	assert.Equal(t, "auto", cfg.UIConfig.Icons)

	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "config.yaml",
			content: `
monitor_config:
  interval_minutes: 10
  auto_start: false
profile_config:
  directory: /tmp/claude
  ignored_fields: [model, theme]
log_config:
  log_level: debug
`,
		},
		{
			name: "yml",
			file: "config.yml",
			content: `
monitor_config:
  interval_minutes: 10
  auto_start: false
profile_config:
  directory: /tmp/claude
  ignored_fields:
    - model
    - theme
log_config:
  log_level: debug
`,
		},
		{
			name: "toml",
			file: "config.toml",
			content: `
[monitor_config]
interval_minutes = 10
auto_start = false

[profile_config]
directory = "/tmp/claude"
ignored_fields = ["model", "theme"]

[log_config]
log_level = "debug"
`,
		},
		{
			name: "json",
			file: "config.json",
			content: `{
  "monitor_config": {"interval_minutes": 10, "auto_start": false},
  "profile_config": {"directory": "/tmp/claude", "ignored_fields": ["model", "theme"]},
  "log_config": {"log_level": "debug"}
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := LoadGlobalConfig(path, zerolog.Nop())
			require.NoError(t, err)

			assert.Equal(t, 10, cfg.MonitorConfig.IntervalMinutes)
			assert.False(t, cfg.MonitorConfig.AutoStart)
			assert.Equal(t, "/tmp/claude", cfg.ProfileConfig.Directory)
			assert.Equal(t, []string{"model", "theme"}, cfg.ProfileConfig.IgnoredFields)
			assert.Equal(t, "debug", cfg.LogConfig.LogLevel)

			// untouched sections keep defaults
			assert.Equal(t, 3, cfg.MonitorConfig.MaxScanErrors)
			assert.Equal(t, "settings.json", cfg.ProfileConfig.LiveFileName)
			assert.Equal(t, "zstd", cfg.StorageConfig.CompressionCodec)
		})
	}
}

func TestLoadGlobalConfig_InvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"monitor_config": `), 0644))

	_, err := LoadGlobalConfig(path, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal JSON")
}

func TestGetConfigPath(t *testing.T) {
	dir := t.TempDir()
	flagPath := filepath.Join(dir, "flag.yaml")
	envPath := filepath.Join(dir, "env.toml")
	require.NoError(t, os.WriteFile(flagPath, []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(envPath, []byte(""), 0644))

	t.Setenv(ConfigPathEnvVar, envPath)
	assert.Equal(t, flagPath, GetConfigPath(flagPath))
	assert.Equal(t, envPath, GetConfigPath(""))
	assert.Equal(t, envPath, GetConfigPath(filepath.Join(dir, "missing.yaml")))
}

func TestSaveGlobalConfig_RoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".toml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "config"+ext)

			cfg := NewDefaultGlobalConfig()
			cfg.MonitorConfig.IntervalMinutes = 42
			cfg.ProfileConfig.IgnoredFields = []string{"theme"}
			cfg.ProfileConfig.FieldTypes = map[string]string{"env": "object"}
			cfg.UIConfig.Icons = "ascii"

			require.NoError(t, SaveGlobalConfig(cfg, path, zerolog.Nop()))

			loaded, err := LoadGlobalConfig(path, zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, 42, loaded.MonitorConfig.IntervalMinutes)
			assert.Equal(t, []string{"theme"}, loaded.ProfileConfig.IgnoredFields)
			assert.Equal(t, map[string]string{"env": "object"}, loaded.ProfileConfig.FieldTypes)
			assert.Equal(t, "ascii", loaded.UIConfig.Icons)
		})
	}
}

func TestSaveGlobalConfig_Nil(t *testing.T) {
	err := SaveGlobalConfig(nil, filepath.Join(t.TempDir(), "config.yaml"), zerolog.Nop())
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGlobalConfig_CloneIsDeep(t *testing.T) {
	cfg := NewDefaultGlobalConfig()
	cfg.ProfileConfig.FieldTypes["env"] = "object"

	clone := cfg.Clone()
	clone.ProfileConfig.IgnoredFields[0] = "changed"
	clone.ProfileConfig.FieldTypes["env"] = "string"

	assert.Equal(t, "model", cfg.ProfileConfig.IgnoredFields[0])
	assert.Equal(t, "object", cfg.ProfileConfig.FieldTypes["env"])
}

func TestProfileConfig_Paths(t *testing.T) {
	pc := NewDefaultProfileConfig()
	pc.Directory = t.TempDir()

	dir, err := pc.ResolveDirectory()
	require.NoError(t, err)
	assert.Equal(t, pc.Directory, dir)

	live, err := pc.LivePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(pc.Directory, "settings.json"), live)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	pc.Directory = "~/.claude"
	dir, err = pc.ResolveDirectory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".claude"), dir)
}
