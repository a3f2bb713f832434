// Package monitor polls a set of files and reports created, modified and
// deleted files once per tick.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/rs/zerolog"
)

const (
	DefaultInterval       = 5 * time.Minute
	DefaultMaxScanErrors  = 3
	DefaultCacheSizeLimit = 100
	changesBuffer         = 16
)

// WatcherOptions configures a FileWatcher. Zero values fall back to the defaults.
type WatcherOptions struct {
	Interval       time.Duration
	MaxScanErrors  int
	CacheSizeLimit int
	Source         FileSource
	Logger         zerolog.Logger
}

// DefaultWatcherOptions returns the options used by the application.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		Interval:       DefaultInterval,
		MaxScanErrors:  DefaultMaxScanErrors,
		CacheSizeLimit: DefaultCacheSizeLimit,
		Source:         OSFileSource{},
		Logger:         zerolog.Nop(),
	}
}

// FileWatcher owns the monitored-file set and the metadata cache.
type FileWatcher struct {
	mu             sync.Mutex
	files          map[string]*MonitoredFile
	cache          *MetadataCache
	interval       time.Duration
	maxScanErrors  int
	cacheSizeLimit int
	source         FileSource
	logger         zerolog.Logger

	changes  chan ChangeBatch
	tick     uint64
	lastTick time.Time

	running         bool
	cancel          context.CancelFunc
	done            chan struct{}
	intervalChanged chan struct{}
}

// NewFileWatcher creates a stopped watcher.
func NewFileWatcher(opts WatcherOptions) *FileWatcher {
	defaults := DefaultWatcherOptions()
	if opts.Interval <= 0 {
		opts.Interval = defaults.Interval
	}
	if opts.MaxScanErrors <= 0 {
		opts.MaxScanErrors = defaults.MaxScanErrors
	}
	if opts.CacheSizeLimit <= 0 {
		opts.CacheSizeLimit = defaults.CacheSizeLimit
	}
	if opts.Source == nil {
		opts.Source = defaults.Source
	}

	return &FileWatcher{
		files:           make(map[string]*MonitoredFile),
		cache:           NewMetadataCache(),
		interval:        opts.Interval,
		maxScanErrors:   opts.MaxScanErrors,
		cacheSizeLimit:  opts.CacheSizeLimit,
		source:          opts.Source,
		logger:          opts.Logger.With().Str("component", "FileWatcher").Logger(),
		changes:         make(chan ChangeBatch, changesBuffer),
		intervalChanged: make(chan struct{}, 1),
	}
}

// Changes delivers one batch per tick that found at least one change.
// The channel stays open across Stop and Start.
func (w *FileWatcher) Changes() <-chan ChangeBatch {
	return w.changes
}

// AddFile registers path. Re-adding a known path keeps its cache entry and
// re-arms its error budget.
func (w *FileWatcher) AddFile(path string) error {
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		return common.NewValidationError("path", path, "monitored paths must be absolute")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if f, ok := w.files[path]; ok {
		if f.Suspended {
			w.logger.Info().Str("path", path).Msg("Resuming monitoring after rescan")
		}
		f.ErrorCount = 0
		f.Suspended = false
		f.LastError = nil
		return nil
	}

	if len(w.files) >= w.cacheSizeLimit {
		return fmt.Errorf("%w: limit %d reached, cannot add '%s'", common.ErrMonitorCapacity, w.cacheSizeLimit, path)
	}

	w.files[path] = &MonitoredFile{Path: path}
	w.logger.Debug().Str("path", path).Msg("Monitoring file")
	return nil
}

// RemoveFile unregisters path and drops its cache entry.
func (w *FileWatcher) RemoveFile(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.files, path)
	w.cache.Delete(path)
}

// Reset forgets every monitored file and cached snapshot.
func (w *FileWatcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.files = make(map[string]*MonitoredFile)
	w.cache.Clear()
	w.logger.Debug().Msg("Monitored files reset")
}

// IsMonitored reports whether path is registered.
func (w *FileWatcher) IsMonitored(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(path)]
	return ok
}

// Files returns a copy of the monitored files sorted by path.
func (w *FileWatcher) Files() []MonitoredFile {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]MonitoredFile, 0, len(w.files))
	for _, path := range w.sortedPathsLocked() {
		f := *w.files[path]
		if m, ok := w.cache.Get(path); ok {
			f.Metadata = &m
		}
		out = append(out, f)
	}
	return out
}

// FileError returns a *common.ScanBudgetError when path is suspended, nil otherwise.
func (w *FileWatcher) FileError(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, ok := w.files[filepath.Clean(path)]
	if !ok || !f.Suspended {
		return nil
	}
	return &common.ScanBudgetError{Path: f.Path, Errors: f.ErrorCount, Last: f.LastError}
}

// SuspendedPaths lists the files whose error budget is exhausted, sorted by path.
func (w *FileWatcher) SuspendedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var paths []string
	for _, path := range w.sortedPathsLocked() {
		if w.files[path].Suspended {
			paths = append(paths, path)
		}
	}
	return paths
}

// Start runs the polling loop until ctx is cancelled or Stop is called.
// Calling Start on a running watcher does nothing.
func (w *FileWatcher) Start(ctx context.Context, interval time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		w.logger.Debug().Msg("FileWatcher already running")
		return nil
	}
	if interval > 0 {
		w.interval = interval
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(loopCtx, w.done)

	w.logger.Info().Dur("interval", w.interval).Int("files", len(w.files)).Msg("FileWatcher started")
	return nil
}

// Stop ends the loop at the next tick boundary and waits for a tick in
// progress to finish. Safe to call repeatedly and before Start.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
	w.logger.Info().Msg("FileWatcher stopped")
}

// IsRunning reports whether the loop is active.
func (w *FileWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// SetInterval changes the delay before the next tick; cached state is kept.
func (w *FileWatcher) SetInterval(minutes int) error {
	if minutes <= 0 {
		return common.NewValidationError("interval_minutes", minutes, "must be positive")
	}
	w.SetIntervalDuration(time.Duration(minutes) * time.Minute)
	return nil
}

// SetIntervalDuration is SetInterval with sub-minute precision. Non-positive values are ignored.
func (w *FileWatcher) SetIntervalDuration(interval time.Duration) {
	if interval <= 0 {
		return
	}

	w.mu.Lock()
	w.interval = interval
	w.mu.Unlock()

	select {
	case w.intervalChanged <- struct{}{}:
	default:
	}
	w.logger.Info().Dur("interval", interval).Msg("Monitor interval updated")
}

// Interval returns the current polling interval.
func (w *FileWatcher) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// Stats returns counters plus a resource usage sample taken outside the lock.
func (w *FileWatcher) Stats() MonitoringStats {
	w.mu.Lock()
	stats := MonitoringStats{
		MonitoredFiles:  len(w.files),
		CachedEntries:   w.cache.Len(),
		Running:         w.running,
		IntervalMinutes: w.interval.Minutes(),
		Interval:        w.interval,
		CacheSizeLimit:  w.cacheSizeLimit,
		MaxScanErrors:   w.maxScanErrors,
		Ticks:           w.tick,
		LastTick:        w.lastTick,
	}
	for _, f := range w.files {
		stats.CurrentErrors += f.ErrorCount
		if f.Suspended {
			stats.SuspendedFiles++
		}
	}
	w.mu.Unlock()

	stats.Resources = GetResourceUsage()
	return stats
}

func (w *FileWatcher) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(done)
	}()

	timer := time.NewTimer(w.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.intervalChanged:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.Interval())

		case <-timer.C:
			batch := w.scan()
			if len(batch.Changes) > 0 {
				select {
				case w.changes <- batch:
				case <-ctx.Done():
					return
				}
			}
			timer.Reset(w.Interval())
		}
	}
}

// scan runs one tick over every non-suspended file.
func (w *FileWatcher) scan() ChangeBatch {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++
	w.lastTick = time.Now()
	batch := ChangeBatch{Tick: w.tick, At: w.lastTick}

	for _, path := range w.sortedPathsLocked() {
		f := w.files[path]
		if f.Suspended {
			continue
		}

		change, changed, err := w.checkFileLocked(f)
		if err != nil {
			w.recordFailureLocked(f, err)
			continue
		}
		f.ErrorCount = 0
		f.LastError = nil
		if changed {
			batch.Changes = append(batch.Changes, FileChange{Path: path, Type: change})
		}
	}

	if len(batch.Changes) > 0 {
		w.logger.Debug().Uint64("tick", batch.Tick).Int("changes", len(batch.Changes)).Msg("Changes detected")
	}
	return batch
}

func (w *FileWatcher) checkFileLocked(f *MonitoredFile) (ChangeType, bool, error) {
	cached, hasCache := w.cache.Get(f.Path)

	info, err := w.source.Stat(f.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return 0, false, common.NewIOError("stat", f.Path, err)
		}
		if !hasCache {
			return 0, false, nil
		}
		w.cache.Delete(f.Path)
		return Deleted, true, nil
	}
	if info.IsDir() {
		return 0, false, common.NewIOError("stat", f.Path, errors.New("is a directory"))
	}

	if hasCache && cached.sameStat(info.ModTime(), info.Size()) {
		return 0, false, nil
	}

	data, err := w.source.ReadFile(f.Path)
	if err != nil {
		return 0, false, common.NewIOError("read", f.Path, err)
	}

	fresh := FileMetadata{ModifiedTime: info.ModTime(), Checksum: Checksum(data), Size: info.Size()}
	w.cache.Put(f.Path, fresh)

	switch {
	case !hasCache:
		return Created, true, nil
	case fresh.Checksum != cached.Checksum:
		return Modified, true, nil
	default:
		return 0, false, nil
	}
}

// recordFailureLocked leaves the cache entry untouched so a transient error
// does not look like a change on the next successful read.
func (w *FileWatcher) recordFailureLocked(f *MonitoredFile, err error) {
	f.ErrorCount++
	f.LastError = err

	if f.ErrorCount >= w.maxScanErrors {
		f.Suspended = true
		w.logger.Warn().Err(err).Str("path", f.Path).Int("errors", f.ErrorCount).Msg("Scan error budget exhausted, file suspended until rescan")
		return
	}
	w.logger.Debug().Err(err).Str("path", f.Path).Int("errors", f.ErrorCount).Msg("Scan failed")
}

func (w *FileWatcher) sortedPathsLocked() []string {
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
