package logger

import (
	"io"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/config"
	"github.com/rs/zerolog"
)

// Logger represents the main logger with configuration
type Logger struct {
	zerolog zerolog.Logger
	config  LoggerConfig
	closers []io.Closer
}

// GetZerolog returns the underlying zerolog instance
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

// GetConfig returns the effective configuration
func (l *Logger) GetConfig() LoggerConfig {
	return l.config
}

// Close flushes and closes file outputs.
func (l *Logger) Close() error {
	var collector common.ErrorCollector
	for _, c := range l.closers {
		collector.Add(c.Close())
	}
	l.closers = nil
	return collector.Error()
}

// New builds a logger from the application log settings.
func New(cfg config.LogConfig) (*Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}
