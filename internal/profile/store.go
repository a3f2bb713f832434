// Package profile owns the configuration directory: the live configuration
// file and the named profiles stored next to it.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/comparator"
	"github.com/rs/zerolog"
)

const (
	DefaultLiveFileName  = "settings.json"
	DefaultProfileSuffix = ".settings.json"
	DefaultMaxFileSize   = 5 * 1024 * 1024

	filePerm = 0644
)

// Watcher is the part of the file watcher the store registers paths with.
type Watcher interface {
	AddFile(path string) error
	RemoveFile(path string)
	FileError(path string) error
}

// LiveWriter replaces a file's content atomically.
type LiveWriter interface {
	WriteFileAtomic(path string, data []byte, perm fs.FileMode) error
}

// StoreOptions configures a Store.
type StoreOptions struct {
	Directory     string
	LiveFileName  string
	ProfileSuffix string
	MaxFileSize   int64
	Logger        zerolog.Logger
	// Watcher is optional; without one no paths are registered for monitoring.
	Watcher Watcher
	// Writer is optional; it defaults to the common FileManager.
	Writer LiveWriter
}

// Store holds the scanned profile list. Every exported method takes an
// AccessMode. The store never calls the watcher while holding its own lock.
type Store struct {
	mu sync.Mutex

	dir      string
	liveName string
	livePath string
	suffix   string
	maxSize  int64

	profiles []Profile

	watcher    Watcher
	registered map[string]struct{}

	files  *common.FileManager
	writer LiveWriter
	logger zerolog.Logger
}

// NewStore creates a store for opts.Directory. It does not touch the disk;
// call Scan to populate it.
func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Directory == "" {
		return nil, common.NewValidationError("directory", opts.Directory, "configuration directory is required")
	}
	if opts.LiveFileName == "" {
		opts.LiveFileName = DefaultLiveFileName
	}
	if opts.ProfileSuffix == "" {
		opts.ProfileSuffix = DefaultProfileSuffix
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}

	dir, err := filepath.Abs(opts.Directory)
	if err != nil {
		return nil, common.WrapError(err, "failed to resolve configuration directory")
	}

	logger := opts.Logger.With().Str("component", "ProfileStore").Logger()
	files := common.NewFileManager(logger)

	s := &Store{
		dir:        dir,
		liveName:   opts.LiveFileName,
		livePath:   filepath.Join(dir, opts.LiveFileName),
		suffix:     opts.ProfileSuffix,
		maxSize:    opts.MaxFileSize,
		watcher:    opts.Watcher,
		registered: make(map[string]struct{}),
		files:      files,
		writer:     opts.Writer,
		logger:     logger,
	}
	if s.writer == nil {
		s.writer = files
	}
	return s, nil
}

// Directory returns the absolute configuration directory.
func (s *Store) Directory() string { return s.dir }

// LivePath returns the absolute path of the live configuration.
func (s *Store) LivePath() string { return s.livePath }

// CheckDirectory verifies the configuration directory exists and contains
// the live configuration file.
func (s *Store) CheckDirectory() error {
	info, err := s.files.GetFileInfo(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir {
		return common.NewValidationError("directory", s.dir, "not a directory")
	}
	info, err = s.files.GetFileInfo(s.livePath)
	if err != nil {
		return err
	}
	if info.IsDir {
		return common.NewValidationError("live_file", s.livePath, "is a directory")
	}
	return nil
}

func (s *Store) acquire(mode AccessMode) error {
	if mode == BestEffort {
		if !s.mu.TryLock() {
			return fmt.Errorf("%w: profile store is locked", common.ErrBusy)
		}
		return nil
	}
	s.mu.Lock()
	return nil
}

// Scan re-reads the directory. A directory read failure leaves the previous
// list in place. Unreadable profiles are kept with empty content.
func (s *Store) Scan(mode AccessMode) error {
	if err := s.acquire(mode); err != nil {
		return err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.mu.Unlock()
		return common.NewIOError("readdir", s.dir, err)
	}

	active := make(map[string]bool, len(s.profiles))
	for _, p := range s.profiles {
		active[p.Name] = p.IsActive
	}

	profiles := make([]Profile, 0, len(entries))
	for _, entry := range entries {
		name, ok := s.profileName(entry)
		if !ok {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		p := Profile{Name: name, Path: path, IsActive: active[name]}

		data, err := s.files.ReadFile(path, common.FileReadOptions{MaxSize: s.maxSize})
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to read profile")
			p.ReadErr = err
		} else {
			p.Content = string(data)
		}
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })

	s.profiles = profiles
	wanted := s.monitoredPathsLocked()
	s.mu.Unlock()

	s.logger.Debug().Int("profiles", len(profiles)).Str("directory", s.dir).Msg("Profile directory scanned")
	s.syncWatcher(wanted)
	return nil
}

func (s *Store) profileName(entry fs.DirEntry) (string, bool) {
	fileName := entry.Name()
	if fileName == s.liveName || !strings.HasSuffix(fileName, s.suffix) {
		return "", false
	}
	if !entry.Type().IsRegular() {
		// a symlink to a regular file still counts
		info, err := os.Stat(filepath.Join(s.dir, fileName))
		if err != nil || !info.Mode().IsRegular() {
			return "", false
		}
	}
	name := strings.TrimSuffix(fileName, s.suffix)
	if name == "" {
		return "", false
	}
	return name, true
}

func (s *Store) monitoredPathsLocked() []string {
	paths := make([]string, 0, len(s.profiles)+1)
	paths = append(paths, s.livePath)
	for _, p := range s.profiles {
		paths = append(paths, p.Path)
	}
	return paths
}

// syncWatcher registers paths the watcher has not seen from this store and
// unregisters the ones that disappeared. Must be called without s.mu held.
func (s *Store) syncWatcher(wanted []string) {
	if s.watcher == nil {
		return
	}

	keep := make(map[string]struct{}, len(wanted))
	for _, path := range wanted {
		keep[path] = struct{}{}
	}

	s.mu.Lock()
	var added, removed []string
	for _, path := range wanted {
		if _, ok := s.registered[path]; !ok {
			added = append(added, path)
			s.registered[path] = struct{}{}
		}
	}
	for path := range s.registered {
		if _, ok := keep[path]; !ok {
			removed = append(removed, path)
			delete(s.registered, path)
		}
	}
	s.mu.Unlock()

	for _, path := range added {
		if err := s.watcher.AddFile(path); err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to register file for monitoring")
			s.mu.Lock()
			delete(s.registered, path)
			s.mu.Unlock()
		}
	}
	for _, path := range removed {
		s.watcher.RemoveFile(path)
	}
}

// Refresh re-registers every known path with the watcher, which clears
// their error counters and lifts suspensions.
func (s *Store) Refresh(mode AccessMode) error {
	if err := s.acquire(mode); err != nil {
		return err
	}
	s.registered = make(map[string]struct{})
	s.mu.Unlock()
	return s.Scan(mode)
}

// Profiles returns a copy of the list in scan order.
func (s *Store) Profiles(mode AccessMode) ([]Profile, error) {
	if err := s.acquire(mode); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	out := make([]Profile, len(s.profiles))
	copy(out, s.profiles)
	return out, nil
}

func (s *Store) findLocked(id string) (int, bool) {
	for i, p := range s.profiles {
		if p.Name == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) readLive() ([]byte, error) {
	return s.files.ReadFile(s.livePath, common.FileReadOptions{MaxSize: s.maxSize})
}

func (s *Store) readProfile(p Profile) ([]byte, error) {
	return s.files.ReadFile(p.Path, common.FileReadOptions{MaxSize: s.maxSize})
}

// StatusFor compares one profile with the live configuration. For CurrentID
// it returns ok=false and no status.
func (s *Store) StatusFor(mode AccessMode, id string, ignored comparator.IgnoredFieldSet) (comparator.Status, bool, error) {
	if id == CurrentID {
		return comparator.Status{}, false, nil
	}
	if err := s.acquire(mode); err != nil {
		return comparator.Status{}, false, err
	}

	i, ok := s.findLocked(id)
	if !ok {
		s.mu.Unlock()
		return comparator.Status{}, false, common.NewProfileError(id, common.ErrProfileNotFound, nil)
	}
	p := s.profiles[i]
	status := s.compareLocked(p, ignored)
	s.mu.Unlock()

	return s.applyBudget(p, status), true, nil
}

// CompareAll returns one status per profile, index-aligned with Profiles.
func (s *Store) CompareAll(mode AccessMode, ignored comparator.IgnoredFieldSet) ([]comparator.Status, error) {
	if err := s.acquire(mode); err != nil {
		return nil, err
	}

	profiles := make([]Profile, len(s.profiles))
	copy(profiles, s.profiles)

	statuses := make([]comparator.Status, len(profiles))
	live, liveErr := s.readLive()
	for i, p := range profiles {
		if liveErr != nil {
			statuses[i] = comparator.ErrorStatus(liveErr.Error())
			continue
		}
		statuses[i] = s.compareWithLive(live, p, ignored)
	}
	s.mu.Unlock()

	for i, p := range profiles {
		statuses[i] = s.applyBudget(p, statuses[i])
	}
	return statuses, nil
}

func (s *Store) compareLocked(p Profile, ignored comparator.IgnoredFieldSet) comparator.Status {
	live, err := s.readLive()
	if err != nil {
		return comparator.ErrorStatus(err.Error())
	}
	return s.compareWithLive(live, p, ignored)
}

func (s *Store) compareWithLive(live []byte, p Profile, ignored comparator.IgnoredFieldSet) comparator.Status {
	data, err := s.readProfile(p)
	if err != nil {
		return comparator.ErrorStatus(err.Error())
	}
	return comparator.Compare(live, data, ignored)
}

// applyBudget turns the status of a profile into an Error when either its
// file or the live file is suspended. Must be called without s.mu held.
func (s *Store) applyBudget(p Profile, status comparator.Status) comparator.Status {
	if s.watcher == nil {
		return status
	}
	if err := s.watcher.FileError(s.livePath); err != nil {
		return comparator.ErrorStatus(err.Error())
	}
	if err := s.watcher.FileError(p.Path); err != nil {
		return comparator.ErrorStatus(err.Error())
	}
	return status
}

// ReadContent returns the current on-disk content of a profile or, for
// CurrentID, of the live configuration.
func (s *Store) ReadContent(mode AccessMode, id string) (string, error) {
	if err := s.acquire(mode); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	if id == CurrentID {
		data, err := s.readLive()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	i, ok := s.findLocked(id)
	if !ok {
		return "", common.NewProfileError(id, common.ErrProfileNotFound, nil)
	}
	data, err := s.readProfile(s.profiles[i])
	if err != nil {
		return "", common.NewProfileError(id, common.ErrIO, err)
	}
	return string(data), nil
}

// SaveContent replaces a profile's content, or the live configuration for CurrentID.
func (s *Store) SaveContent(mode AccessMode, id, content string) error {
	if err := s.acquire(mode); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if id == CurrentID {
		if err := s.writer.WriteFileAtomic(s.livePath, []byte(content), filePerm); err != nil {
			return err
		}
		s.logger.Info().Str("path", s.livePath).Msg("Live configuration saved")
		return nil
	}

	i, ok := s.findLocked(id)
	if !ok {
		return common.NewProfileError(id, common.ErrProfileNotFound, nil)
	}
	p := &s.profiles[i]
	if err := s.writer.WriteFileAtomic(p.Path, []byte(content), filePerm); err != nil {
		return common.NewProfileError(id, common.ErrIO, err)
	}
	p.Content = content
	p.ReadErr = nil

	s.logger.Info().Str("profile", id).Msg("Profile saved")
	return nil
}

// Create writes a new profile file and returns its path.
func (s *Store) Create(mode AccessMode, name, content string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := s.acquire(mode); err != nil {
		return "", err
	}

	if _, ok := s.findLocked(name); ok {
		s.mu.Unlock()
		return "", common.NewProfileError(name, common.ErrProfileAlreadyExists, nil)
	}

	path := filepath.Join(s.dir, name+s.suffix)
	opts := common.DefaultFileWriteOptions()
	opts.Exclusive = true
	if err := s.files.WriteFile(path, []byte(content), opts); err != nil {
		s.mu.Unlock()
		if errors.Is(err, fs.ErrExist) {
			return "", common.NewProfileError(name, common.ErrProfileAlreadyExists, nil)
		}
		return "", common.NewProfileError(name, common.ErrIO, err)
	}

	s.profiles = append(s.profiles, Profile{Name: name, Path: path, Content: content})
	sort.Slice(s.profiles, func(i, j int) bool { return s.profiles[i].Name < s.profiles[j].Name })
	wanted := s.monitoredPathsLocked()
	s.mu.Unlock()

	s.logger.Info().Str("profile", name).Str("path", path).Msg("Profile created")
	s.syncWatcher(wanted)
	return path, nil
}

// Delete removes a profile file. The live configuration cannot be deleted.
func (s *Store) Delete(mode AccessMode, id string) error {
	if id == CurrentID {
		return common.NewValidationError("id", id, "the live configuration cannot be deleted")
	}
	if err := s.acquire(mode); err != nil {
		return err
	}

	i, ok := s.findLocked(id)
	if !ok {
		s.mu.Unlock()
		return common.NewProfileError(id, common.ErrProfileNotFound, nil)
	}
	if err := s.files.RemoveFile(s.profiles[i].Path); err != nil {
		s.mu.Unlock()
		return common.NewProfileError(id, common.ErrIO, err)
	}
	s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
	wanted := s.monitoredPathsLocked()
	s.mu.Unlock()

	s.logger.Info().Str("profile", id).Msg("Profile deleted")
	s.syncWatcher(wanted)
	return nil
}

// ListProfiles returns the live configuration first, then every profile.
func (s *Store) ListProfiles(mode AccessMode) ([]ProfileInfo, error) {
	if err := s.acquire(mode); err != nil {
		return nil, err
	}
	profiles := make([]Profile, len(s.profiles))
	copy(profiles, s.profiles)
	s.mu.Unlock()

	infos := make([]ProfileInfo, 0, len(profiles)+1)
	current := ProfileInfo{ID: CurrentID, DisplayName: CurrentDisplayName, FilePath: s.livePath, IsDefault: true}
	if info, err := s.files.GetFileInfo(s.livePath); err == nil {
		current.LastModified = info.ModTime
		current.FileSize = info.Size
	}
	infos = append(infos, current)

	for _, p := range profiles {
		info := ProfileInfo{ID: p.Name, DisplayName: p.Name, FilePath: p.Path, IsActive: p.IsActive}
		if fi, err := s.files.GetFileInfo(p.Path); err == nil {
			info.LastModified = fi.ModTime
			info.FileSize = fi.Size
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ResolveForSwitch returns the profile with its freshly read content.
func (s *Store) ResolveForSwitch(mode AccessMode, id string) (Profile, error) {
	if id == CurrentID {
		return Profile{}, common.NewValidationError("id", id, "cannot switch to the live configuration")
	}
	if err := s.acquire(mode); err != nil {
		return Profile{}, err
	}
	defer s.mu.Unlock()

	i, ok := s.findLocked(id)
	if !ok {
		return Profile{}, common.NewProfileError(id, common.ErrProfileNotFound, nil)
	}
	p := s.profiles[i]
	data, err := s.readProfile(p)
	if err != nil {
		return Profile{}, common.NewProfileError(id, common.ErrInvalidProfileContent, err)
	}
	p.Content = string(data)
	p.ReadErr = nil
	return p, nil
}

// InstallLive atomically replaces the live configuration with content and
// marks id as the active profile, in one lock hold. On failure the live file
// and the flags are unchanged.
func (s *Store) InstallLive(mode AccessMode, id string, content []byte) error {
	if err := s.acquire(mode); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.findLocked(id); !ok {
		return common.NewProfileError(id, common.ErrProfileNotFound, nil)
	}
	if err := s.writer.WriteFileAtomic(s.livePath, content, filePerm); err != nil {
		return common.NewProfileError(id, common.ErrSwitchFailed, err)
	}
	for i := range s.profiles {
		s.profiles[i].IsActive = s.profiles[i].Name == id
	}

	s.logger.Info().Str("profile", id).Str("path", s.livePath).Msg("Live configuration replaced")
	return nil
}

// ActiveProfile returns the name of the profile last installed, if any.
func (s *Store) ActiveProfile(mode AccessMode) (string, bool, error) {
	if err := s.acquire(mode); err != nil {
		return "", false, err
	}
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.IsActive {
			return p.Name, true, nil
		}
	}
	return "", false, nil
}
