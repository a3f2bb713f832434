package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	MonitorConfig MonitorConfig `json:"monitor_config" yaml:"monitor_config" toml:"monitor_config"`
	ProfileConfig ProfileConfig `json:"profile_config" yaml:"profile_config" toml:"profile_config"`
	LogConfig     LogConfig     `json:"log_config" yaml:"log_config" toml:"log_config"`
	StorageConfig StorageConfig `json:"storage_config" yaml:"storage_config" toml:"storage_config"`
	UIConfig      UIConfig      `json:"ui_config" yaml:"ui_config" toml:"ui_config"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		MonitorConfig: NewDefaultMonitorConfig(),
		ProfileConfig: NewDefaultProfileConfig(),
		LogConfig:     NewDefaultLogConfig(),
		StorageConfig: NewDefaultStorageConfig(),
		UIConfig:      NewDefaultUIConfig(),
	}
}

// Clone returns a deep copy of the configuration.
func (c *GlobalConfig) Clone() *GlobalConfig {
	if c == nil {
		return NewDefaultGlobalConfig()
	}
	dst := *c
	dst.ProfileConfig = c.ProfileConfig.Clone()
	return &dst
}

// LoadGlobalConfig loads the configuration from providedPath, or from the first default
// location found by GetConfigPath when providedPath is empty.
// The decoder is picked by extension: YAML for .yaml/.yml, TOML for .toml and JSON otherwise.
// Keys missing from the file keep their default values.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := providedPath
	if filePath == "" {
		filePath = GetConfigPath("")
	}
	if filePath == "" {
		return cfg, nil
	}

	fileManager := common.NewFileManager(logger)
	if !fileManager.FileExists(filePath) {
		return nil, common.NewValidationError("config_file", filePath, "config file does not exist")
	}

	data, err := loadConfigFileContent(fileManager, filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	logger.Debug().Str("path", filePath).Msg("Loaded config file")
	return cfg, nil
}

func loadConfigFileContent(fileManager *common.FileManager, filePath string) ([]byte, error) {
	opts := common.DefaultFileReadOptions()
	opts.MaxSize = 1024 * 1024 // 1MB max config file size

	return fileManager.ReadFile(filePath, opts)
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	switch configFormat(filePath) {
	case formatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
	case formatTOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return common.NewError("failed to unmarshal TOML from '%s': %w", filePath, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
		}
	}
	return nil
}

type fileFormat int

const (
	formatJSON fileFormat = iota
	formatYAML
	formatTOML
)

func configFormat(filePath string) fileFormat {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".toml":
		return formatTOML
	default:
		return formatJSON
	}
}
