package main

import (
	"context"
	"fmt"

	"github.com/aleister1102/cfgswitch/internal/config"
	"github.com/aleister1102/cfgswitch/internal/engine"
	"github.com/aleister1102/cfgswitch/internal/logger"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	dirOverride string
	logLevel    string
	jsonOutput  bool
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "cfgswitch",
	Short: "Switch a tool's JSON configuration between named profiles",
	Long: `cfgswitch keeps named profiles (<name>.settings.json) next to a live
settings.json, reports which profiles match the live configuration and
switches between them atomically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Settings file (default: search "+config.ConfigPathEnvVar+", working dir, executable dir, user config dir)")
	flags.StringVarP(&dirOverride, "dir", "d", "", "Configuration directory holding settings.json and the profiles")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to warn, or the settings value for watch")
	flags.BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// app holds what a command needs. Fields are filled lazily by the helpers below.
type app struct {
	manager *config.ConfigManager
	log     *logger.Logger
	engine  *engine.Engine
}

type appOptions struct {
	hotReload  bool
	monitoring bool
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	manager, err := config.NewConfigManager(configPath, config.ConfigManagerOptions{
		Logger:            zerolog.Nop(),
		ValidationEnabled: true,
		HotReloadEnabled:  opts.hotReload,
	})
	if err != nil {
		return nil, err
	}

	cfg := manager.GetConfig()
	switch {
	case cmd.Flags().Changed("log-level"):
		cfg.LogConfig.LogLevel = logLevel
	case !opts.monitoring:
		cfg.LogConfig.LogLevel = "warn"
	}

	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &app{manager: manager, log: log}, nil
}

func (a *app) logger() zerolog.Logger {
	return *a.log.GetZerolog()
}

// effectiveConfig applies command line overrides to the loaded settings.
func (a *app) effectiveConfig(monitoring bool) *config.GlobalConfig {
	cfg := a.manager.GetConfig()
	if dirOverride != "" {
		cfg.ProfileConfig.Directory = dirOverride
	}
	if !monitoring {
		cfg.MonitorConfig.AutoStart = false
	}
	return cfg
}

// startEngine builds the engine and scans the configuration directory.
func (a *app) startEngine(ctx context.Context, monitoring bool, opts engine.Options) (*engine.Engine, error) {
	opts.Logger = a.logger()
	opts.Directory = dirOverride
	eng, err := engine.New(a.effectiveConfig(monitoring), opts)
	if err != nil {
		return nil, err
	}
	if err := eng.Start(ctx); err != nil {
		_ = eng.Close()
		return nil, err
	}
	a.engine = eng
	return eng, nil
}

func (a *app) Close() {
	if a.engine != nil {
		_ = a.engine.Close()
	}
	_ = a.manager.Close()
	_ = a.log.Close()
}

// withEngine runs fn against a scanned, non-monitoring engine.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, eng *engine.Engine) error) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	eng, err := a.startEngine(ctx, false, engine.Options{})
	if err != nil {
		return err
	}
	return fn(ctx, eng)
}
