// Package engine wires the watcher, profile store, comparator and switch
// coordinator together. An Engine is built once at startup and passed to
// every front-end operation.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/comparator"
	"github.com/aleister1102/cfgswitch/internal/config"
	"github.com/aleister1102/cfgswitch/internal/history"
	"github.com/aleister1102/cfgswitch/internal/monitor"
	"github.com/aleister1102/cfgswitch/internal/profile"
	"github.com/aleister1102/cfgswitch/internal/switcher"
	"github.com/aleister1102/cfgswitch/internal/validation"
	"github.com/rs/zerolog"
)

// recoveryTicks is how many polling intervals pass between attempts to
// re-arm suspended files.
const recoveryTicks = 3

// Options are the non-configuration inputs of New.
type Options struct {
	Logger zerolog.Logger
	// Icons overrides the icon set chosen from UIConfig.Icons.
	Icons *IconSet
	// Source overrides the file system used by the watcher.
	Source monitor.FileSource
	// Interval overrides MonitorConfig.IntervalMinutes with a finer cadence.
	Interval time.Duration
	// Writer overrides the atomic writer used for profile and live file content.
	Writer profile.LiveWriter
	// Directory overrides ProfileConfig.Directory for the engine's lifetime,
	// including settings applied later.
	Directory string
}

// Engine owns every component for the lifetime of the process.
type Engine struct {
	mu        sync.RWMutex
	profCfg   config.ProfileConfig
	monCfg    config.MonitorConfig
	ignored   comparator.IgnoredFieldSet
	validator *validation.JSONValidator
	interval  time.Duration

	dirOverride     string
	restartRequired bool

	icons       IconSet
	watcher     *monitor.FileWatcher
	store       *profile.Store
	coordinator *switcher.Coordinator
	historyDB   *history.DB
	exporter    *history.Exporter
	exportDir   string

	subMu       sync.Mutex
	subscribers []chan StatusSnapshot
	subsClosed  bool
	last        *StatusSnapshot

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool

	logger zerolog.Logger
}

// New builds an Engine from cfg. It does not scan or start monitoring; see Start.
func New(cfg *config.GlobalConfig, opts Options) (*Engine, error) {
	if cfg == nil {
		return nil, common.NewValidationError("config", nil, "configuration is required")
	}
	logger := opts.Logger.With().Str("component", "Engine").Logger()

	pc := cfg.ProfileConfig.Clone()
	if opts.Directory != "" {
		pc.Directory = opts.Directory
	}

	dir, err := pc.ResolveDirectory()
	if err != nil {
		return nil, err
	}
	ignored, err := pc.IgnoredFieldSet()
	if err != nil {
		return nil, err
	}
	validator, err := validation.NewValidatorFromSettings(pc.RequiredFields, pc.FieldTypes)
	if err != nil {
		return nil, err
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = cfg.MonitorConfig.Interval()
	}

	watcher := monitor.NewFileWatcher(monitor.WatcherOptions{
		Interval:       interval,
		MaxScanErrors:  cfg.MonitorConfig.MaxScanErrors,
		CacheSizeLimit: cfg.MonitorConfig.CacheSizeLimit,
		Source:         opts.Source,
		Logger:         opts.Logger,
	})

	store, err := profile.NewStore(profile.StoreOptions{
		Directory:     dir,
		LiveFileName:  pc.LiveFileName,
		ProfileSuffix: pc.ProfileSuffix,
		MaxFileSize:   pc.MaxFileSize(),
		Logger:        opts.Logger,
		Watcher:       watcher,
		Writer:        opts.Writer,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		profCfg:     pc,
		dirOverride: opts.Directory,
		monCfg:      cfg.MonitorConfig,
		ignored:     ignored,
		validator:   validator,
		interval:    interval,
		watcher:     watcher,
		store:       store,
		exporter:    history.NewExporter(cfg.StorageConfig.CompressionCodec, opts.Logger),
		logger:      logger,
	}
	if opts.Icons != nil {
		e.icons = *opts.Icons
	} else {
		e.icons = SelectIconSet(cfg.UIConfig.Icons)
	}

	if cfg.StorageConfig.ExportDir != "" {
		if e.exportDir, err = common.ExpandHome(cfg.StorageConfig.ExportDir); err != nil {
			return nil, err
		}
	}

	var journal switcher.Journal
	if cfg.StorageConfig.HistoryEnabled {
		dbPath, err := common.ExpandHome(cfg.StorageConfig.HistoryDBPath)
		if err != nil {
			return nil, err
		}
		db, err := history.NewDB(dbPath, opts.Logger)
		if err != nil {
			// history is optional; the engine still works without it
			logger.Warn().Err(err).Str("path", dbPath).Msg("Switch history disabled")
		} else {
			e.historyDB = db
			journal = db
		}
	}

	e.coordinator, err = switcher.NewCoordinator(switcher.CoordinatorOptions{
		Store:     store,
		Validator: validation.NewDefaultValidator(),
		Journal:   journal,
		Logger:    opts.Logger,
	})
	if err != nil {
		_ = e.closeHistory()
		return nil, err
	}

	logger.Debug().Str("directory", dir).Str("icons", e.icons.Name).Msg("Engine created")
	return e, nil
}

// Store exposes the profile store to front-ends that need direct access.
func (e *Engine) Store() *profile.Store { return e.store }

// Watcher exposes the file watcher.
func (e *Engine) Watcher() *monitor.FileWatcher { return e.watcher }

// Icons returns the icon set chosen at startup.
func (e *Engine) Icons() IconSet { return e.icons }

// Start scans the configuration directory, starts the dispatch loop and,
// when auto-start is enabled, the watcher. The engine runs until ctx is
// cancelled or Close is called.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.closed {
		return errors.New("engine is closed")
	}
	if e.cancel != nil {
		return nil
	}

	if err := e.store.CheckDirectory(); err != nil {
		return common.WrapError(err, "configuration directory is not usable")
	}
	if err := e.store.Scan(profile.Consistent); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	go e.dispatchLoop(loopCtx, e.done)

	e.mu.RLock()
	autoStart := e.monCfg.AutoStart
	e.mu.RUnlock()
	if autoStart {
		if err := e.StartMonitoring(loopCtx); err != nil {
			return err
		}
	}

	e.publish()
	e.logger.Info().Bool("monitoring", autoStart).Msg("Engine started")
	return nil
}

// StartMonitoring starts the watcher with the configured interval.
func (e *Engine) StartMonitoring(ctx context.Context) error {
	e.mu.RLock()
	interval := e.interval
	e.mu.RUnlock()
	return e.watcher.Start(ctx, interval)
}

// StopMonitoring stops the watcher; the dispatch loop keeps running.
func (e *Engine) StopMonitoring() {
	e.watcher.Stop()
}

// Close stops monitoring and the dispatch loop and closes the history store.
func (e *Engine) Close() error {
	e.runMu.Lock()
	if e.closed {
		e.runMu.Unlock()
		return nil
	}
	e.closed = true
	cancel, done := e.cancel, e.done
	e.runMu.Unlock()

	e.watcher.Stop()
	if cancel != nil {
		cancel()
		<-done
	}

	e.subMu.Lock()
	for _, ch := range e.subscribers {
		close(ch)
	}
	e.subscribers = nil
	e.subsClosed = true
	e.subMu.Unlock()

	return e.closeHistory()
}

func (e *Engine) closeHistory() error {
	if e.historyDB == nil {
		return nil
	}
	return e.historyDB.Close()
}

// dispatchLoop consumes watcher batches until ctx is done. Every
// recoveryTicks intervals it re-arms files suspended by the error budget.
func (e *Engine) dispatchLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	recovery := time.NewTimer(e.recoveryDelay())
	defer recovery.Stop()

	changes := e.watcher.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-changes:
			e.handleBatch(ctx, batch)
		case <-recovery.C:
			e.recoverSuspended()
			recovery.Reset(e.recoveryDelay())
		}
	}
}

func (e *Engine) recoveryDelay() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.interval * recoveryTicks
}

// recoverSuspended refreshes the store when the watcher has given up on a
// file, so a transient failure does not end monitoring of that file.
func (e *Engine) recoverSuspended() {
	paths := e.watcher.SuspendedPaths()
	if len(paths) == 0 {
		return
	}
	e.logger.Info().Strs("paths", paths).Msg("Re-arming suspended files")
	if err := e.Refresh(); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to re-arm suspended files")
	}
}

func (e *Engine) handleBatch(ctx context.Context, batch monitor.ChangeBatch) {
	e.logger.Debug().Uint64("tick", batch.Tick).Strs("paths", batch.Paths()).Msg("Change batch received")

	if e.historyDB != nil {
		if err := e.historyDB.RecordChangeBatch(ctx, batch); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to record change batch")
		}
	}

	if err := e.store.Scan(profile.Consistent); err != nil {
		e.logger.Error().Err(err).Msg("Profile rescan failed, keeping previous list")
	}
	e.publish()
}

// Refresh rescans the directory, re-arms suspended files and publishes statuses.
func (e *Engine) Refresh() error {
	if err := e.store.Refresh(profile.Consistent); err != nil {
		return err
	}
	e.publish()
	return nil
}

// SetInterval changes the polling cadence without restarting the watcher.
func (e *Engine) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	e.mu.Lock()
	e.interval = interval
	e.mu.Unlock()
	e.watcher.SetIntervalDuration(interval)
}

// Stats returns the watcher statistics.
func (e *Engine) Stats() monitor.MonitoringStats {
	return e.watcher.Stats()
}
