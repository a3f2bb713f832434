package logger

import (
	"github.com/aleister1102/cfgswitch/internal/config"
)

// ConfigConverter converts config.LogConfig to LoggerConfig
type ConfigConverter struct {
	levelParser  *LogLevelParser
	formatParser *LogFormatParser
}

// NewConfigConverter creates a new config converter
func NewConfigConverter() *ConfigConverter {
	return &ConfigConverter{
		levelParser:  NewLogLevelParser(),
		formatParser: NewLogFormatParser(),
	}
}

// ConvertConfig converts application config to logger config. An empty level means info.
func (cc *ConfigConverter) ConvertConfig(cfg config.LogConfig) (LoggerConfig, error) {
	out := DefaultLoggerConfig()
	out.Format = cc.formatParser.ParseFormat(cfg.LogFormat)
	out.EnableFile = cfg.LogFile != ""
	out.FilePath = cfg.LogFile
	out.MaxSizeMB = cc.getMaxSizeMB(cfg.MaxLogSizeMB)
	out.MaxBackups = cc.getMaxBackups(cfg.MaxLogBackups)

	if cfg.LogLevel == "" {
		return out, nil
	}
	level, err := cc.levelParser.ParseLevel(cfg.LogLevel)
	if err != nil {
		return out, err
	}
	out.Level = level
	return out, nil
}

func (cc *ConfigConverter) getMaxSizeMB(maxSize int) int {
	if maxSize <= 0 {
		return config.DefaultMaxLogSizeMB
	}
	return maxSize
}

func (cc *ConfigConverter) getMaxBackups(maxBackups int) int {
	if maxBackups <= 0 {
		return config.DefaultMaxLogBackups
	}
	return maxBackups
}
