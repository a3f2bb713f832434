package config

import (
	"bytes"
	"encoding/json"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SaveGlobalConfig writes cfg to filePath, encoding by extension, through an atomic replace.
func SaveGlobalConfig(cfg *GlobalConfig, filePath string, logger zerolog.Logger) error {
	if cfg == nil {
		return common.NewValidationError("config", cfg, "config cannot be nil")
	}
	if filePath == "" {
		filePath = DefaultSavePath()
	}

	data, err := marshalConfig(cfg, filePath)
	if err != nil {
		return err
	}

	fileManager := common.NewFileManager(logger)
	opts := common.DefaultFileWriteOptions()
	opts.CreateDirs = true
	if err := fileManager.WriteFile(filePath, data, opts); err != nil {
		return common.WrapError(err, "failed to write config file")
	}

	logger.Info().
		Str("path", filePath).
		Str("format", filepath.Ext(filePath)).
		Msg("Saved config file")

	return nil
}

func marshalConfig(cfg *GlobalConfig, filePath string) ([]byte, error) {
	switch configFormat(filePath) {
	case formatYAML:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, common.NewError("failed to marshal config to YAML: %w", err)
		}
		return data, nil
	case formatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, common.NewError("failed to marshal config to TOML: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, common.NewError("failed to marshal config to JSON: %w", err)
		}
		return append(data, '\n'), nil
	}
}
