package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ConfigManager owns the loaded settings, persists changes and hot-reloads the
// settings file when it is edited by hand.
type ConfigManager struct {
	mu           sync.RWMutex
	config       *GlobalConfig
	configPath   string
	savePath     string
	logger       zerolog.Logger
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	stopOnce     sync.Once
	lastModified time.Time

	validationEnabled bool
	hotReloadEnabled  bool
	reloadDelay       time.Duration

	subMu       sync.Mutex
	subscribers []chan *GlobalConfig
}

// ConfigManagerOptions holds options for creating a ConfigManager
type ConfigManagerOptions struct {
	Logger            zerolog.Logger
	ValidationEnabled bool
	HotReloadEnabled  bool
	ReloadDelay       time.Duration
}

// DefaultConfigManagerOptions returns default options for ConfigManager
func DefaultConfigManagerOptions() ConfigManagerOptions {
	return ConfigManagerOptions{
		Logger:            zerolog.Nop(),
		ValidationEnabled: true,
		HotReloadEnabled:  false,
		ReloadDelay:       500 * time.Millisecond,
	}
}

// NewConfigManager loads configPath (or the default location) and, when enabled,
// prepares the fsnotify watcher used by StartHotReload.
func NewConfigManager(configPath string, opts ConfigManagerOptions) (*ConfigManager, error) {
	cm := &ConfigManager{
		configPath:        configPath,
		logger:            opts.Logger.With().Str("component", "ConfigManager").Logger(),
		stopChan:          make(chan struct{}),
		validationEnabled: opts.ValidationEnabled,
		hotReloadEnabled:  opts.HotReloadEnabled,
		reloadDelay:       opts.ReloadDelay,
	}
	if cm.reloadDelay <= 0 {
		cm.reloadDelay = DefaultConfigManagerOptions().ReloadDelay
	}

	if err := cm.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	if cm.hotReloadEnabled && cm.configPath != "" {
		if err := cm.setupFileWatcher(); err != nil {
			cm.logger.Warn().Err(err).Msg("Failed to setup file watcher, hot-reload disabled")
			cm.hotReloadEnabled = false
		}
	}

	return cm, nil
}

// GetConfig returns a copy of the current configuration
func (cm *ConfigManager) GetConfig() *GlobalConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Clone()
}

// GetConfigPath returns the file the configuration was loaded from, or "" for defaults
func (cm *ConfigManager) GetConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// SavePath is where UpdateConfig persists changes.
func (cm *ConfigManager) SavePath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.savePath
}

// IsHotReloadEnabled returns whether hot-reload is enabled
func (cm *ConfigManager) IsHotReloadEnabled() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.hotReloadEnabled
}

// Subscribe returns a channel receiving the configuration after every successful
// reload or update. Slow subscribers miss intermediate values, never the latest one.
func (cm *ConfigManager) Subscribe() <-chan *GlobalConfig {
	ch := make(chan *GlobalConfig, 1)
	cm.subMu.Lock()
	cm.subscribers = append(cm.subscribers, ch)
	cm.subMu.Unlock()
	return ch
}

// ReloadConfig re-reads the configuration file.
func (cm *ConfigManager) ReloadConfig() error {
	cm.mu.Lock()
	err := cm.loadConfig()
	cfg := cm.config.Clone()
	cm.mu.Unlock()

	if err != nil {
		return err
	}
	cm.notify(cfg)
	return nil
}

// UpdateConfig validates newConfig, makes it current and optionally saves it.
func (cm *ConfigManager) UpdateConfig(newConfig *GlobalConfig, saveToFile bool) error {
	if cm.validationEnabled {
		if err := ValidateConfig(newConfig); err != nil {
			return err
		}
	}

	cm.mu.Lock()
	if saveToFile {
		if err := SaveGlobalConfig(newConfig, cm.savePath, cm.logger); err != nil {
			cm.mu.Unlock()
			return fmt.Errorf("failed to save configuration to file: %w", err)
		}
		if stat, err := os.Stat(cm.savePath); err == nil {
			cm.lastModified = stat.ModTime()
		}
	}
	cm.config = newConfig.Clone()
	cfg := cm.config.Clone()
	cm.mu.Unlock()

	cm.logger.Info().Bool("saved", saveToFile).Msg("Configuration updated")
	cm.notify(cfg)
	return nil
}

// ChangeSettings applies change to a copy of the current configuration, then
// validates, saves and publishes the result.
func (cm *ConfigManager) ChangeSettings(change SettingsChange) (*GlobalConfig, error) {
	cfg := cm.GetConfig()
	if err := change(cfg); err != nil {
		return nil, err
	}
	if err := cm.UpdateConfig(cfg, true); err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// StartHotReload starts the hot-reload goroutine (non-blocking)
func (cm *ConfigManager) StartHotReload(ctx context.Context) {
	if !cm.IsHotReloadEnabled() {
		return
	}
	go cm.hotReloadLoop(ctx)
}

// Close stops hot reload. It is safe to call more than once.
func (cm *ConfigManager) Close() error {
	var err error
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
		if cm.watcher != nil {
			err = cm.watcher.Close()
		}
	})
	return err
}

// loadConfig assumes cm.mu is held (or the manager is not shared yet).
func (cm *ConfigManager) loadConfig() error {
	if cm.configPath == "" {
		cm.configPath = GetConfigPath("")
	}

	cfg, err := LoadGlobalConfig(cm.configPath, cm.logger)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cm.validationEnabled {
		if err := ValidateConfig(cfg); err != nil {
			return err
		}
	}

	cm.savePath = cm.configPath
	if cm.savePath == "" {
		cm.savePath = DefaultSavePath()
	}
	if cm.configPath != "" {
		if stat, err := os.Stat(cm.configPath); err == nil {
			cm.lastModified = stat.ModTime()
		}
	}

	cm.config = cfg
	cm.logger.Info().Str("path", cm.configPath).Msg("Configuration loaded")
	return nil
}

// setupFileWatcher watches the directory so that editors replacing the file are noticed.
func (cm *ConfigManager) setupFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory '%s': %w", configDir, err)
	}

	cm.watcher = watcher
	cm.logger.Debug().Str("directory", configDir).Msg("File watcher setup for hot-reload")
	return nil
}

func (cm *ConfigManager) hotReloadLoop(ctx context.Context) {
	if cm.watcher == nil {
		return
	}

	target := filepath.Clean(cm.configPath)
	reloadTimer := time.NewTimer(cm.reloadDelay)
	reloadTimer.Stop()
	defer reloadTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			cm.logger.Debug().Msg("Hot-reload loop stopped due to context cancellation")
			return

		case <-cm.stopChan:
			cm.logger.Debug().Msg("Hot-reload loop stopped")
			return

		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				cm.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Config file change detected")
				reloadTimer.Reset(cm.reloadDelay)
			}

		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.Error().Err(err).Msg("File watcher error")

		case <-reloadTimer.C:
			if !cm.modifiedSinceLoad() {
				continue
			}
			if err := cm.ReloadConfig(); err != nil {
				cm.logger.Error().Err(err).Msg("Failed to reload configuration, keeping previous settings")
			} else {
				cm.logger.Info().Msg("Configuration reloaded")
			}
		}
	}
}

func (cm *ConfigManager) modifiedSinceLoad() bool {
	stat, err := os.Stat(cm.configPath)
	if err != nil {
		return false
	}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return stat.ModTime().After(cm.lastModified)
}

func (cm *ConfigManager) notify(cfg *GlobalConfig) {
	cm.subMu.Lock()
	defer cm.subMu.Unlock()
	for _, ch := range cm.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- cfg.Clone():
		default:
		}
	}
}
