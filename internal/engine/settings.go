package engine

import (
	"context"
	"time"

	"github.com/aleister1102/cfgswitch/internal/config"
	"github.com/aleister1102/cfgswitch/internal/history"
	"github.com/aleister1102/cfgswitch/internal/validation"
)

// ApplySettings applies reloaded profile and monitor settings without
// restarting the watcher. Directory and file naming changes need a restart.
func (e *Engine) ApplySettings(pc config.ProfileConfig, mc config.MonitorConfig) error {
	ignored, err := pc.IgnoredFieldSet()
	if err != nil {
		return err
	}
	validator, err := validation.NewValidatorFromSettings(pc.RequiredFields, pc.FieldTypes)
	if err != nil {
		return err
	}

	if e.dirOverride != "" {
		pc.Directory = e.dirOverride
	}

	e.mu.Lock()
	restart := !sameDirectory(pc, e.profCfg) ||
		pc.LiveFileName != e.profCfg.LiveFileName ||
		pc.ProfileSuffix != e.profCfg.ProfileSuffix
	if restart {
		e.restartRequired = true
	}
	intervalChanged := mc.IntervalMinutes != e.monCfg.IntervalMinutes
	e.profCfg = pc.Clone()
	e.monCfg = mc
	e.ignored = ignored
	e.validator = validator
	if intervalChanged {
		e.interval = mc.Interval()
	}
	e.mu.Unlock()

	if restart {
		e.logger.Warn().Str("directory", pc.Directory).Msg("Profile location changed; restart to apply")
	}
	if intervalChanged {
		if err := e.watcher.SetInterval(mc.IntervalMinutes); err != nil {
			return err
		}
	}

	e.logger.Info().Strs("ignored_fields", ignored.Names()).Int("interval_minutes", mc.IntervalMinutes).Msg("Settings applied")
	e.publish()
	return nil
}

// RestartRequired reports whether applied settings moved the profile
// location, which only takes effect after a restart.
func (e *Engine) RestartRequired() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.restartRequired
}

func sameDirectory(a, b config.ProfileConfig) bool {
	da, errA := a.ResolveDirectory()
	db, errB := b.ResolveDirectory()
	if errA != nil || errB != nil {
		return a.Directory == b.Directory
	}
	return da == db
}

// FollowConfig applies every configuration received on updates until ctx
// is done or updates is closed.
func (e *Engine) FollowConfig(ctx context.Context, updates <-chan *config.GlobalConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			if err := e.ApplySettings(cfg.ProfileConfig, cfg.MonitorConfig); err != nil {
				e.logger.Error().Err(err).Msg("Failed to apply reloaded settings")
			}
		}
	}
}

// Settings returns the profile and monitor settings in effect.
func (e *Engine) Settings() (config.ProfileConfig, config.MonitorConfig) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profCfg.Clone(), e.monCfg
}

// HistoryEnabled reports whether switches are journaled.
func (e *Engine) HistoryEnabled() bool {
	return e.historyDB != nil
}

// RecentSwitches returns the newest switch records.
func (e *Engine) RecentSwitches(ctx context.Context, limit int) ([]history.SwitchRecord, error) {
	if e.historyDB == nil {
		return nil, errHistoryDisabled
	}
	return e.historyDB.RecentSwitches(ctx, limit)
}

// RecentChanges returns the newest recorded file changes.
func (e *Engine) RecentChanges(ctx context.Context, limit int) ([]history.ChangeEvent, error) {
	if e.historyDB == nil {
		return nil, errHistoryDisabled
	}
	return e.historyDB.RecentChanges(ctx, limit)
}

// ExportHistory writes the whole switch journal to a parquet file. An empty
// path writes a timestamped file into the configured export directory.
func (e *Engine) ExportHistory(ctx context.Context, path string) (string, error) {
	records, err := e.RecentSwitches(ctx, 0)
	if err != nil {
		return "", err
	}
	if path == "" {
		if e.exportDir == "" {
			return "", errNoExportPath
		}
		path = exportFileName(e.exportDir, time.Now())
	}
	if err := e.exporter.Export(path, records); err != nil {
		return "", err
	}
	return path, nil
}

// LoadHistory reads a parquet file written by ExportHistory.
func (e *Engine) LoadHistory(path string) ([]history.SwitchRecord, error) {
	return e.exporter.Load(path)
}
