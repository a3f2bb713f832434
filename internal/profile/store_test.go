package profile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/comparator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liveContent = `{"model":"opus","theme":"dark","env":{"A":"1"}}`

type fakeWatcher struct {
	mu      sync.Mutex
	added   []string
	removed []string
	errs    map[string]error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{errs: make(map[string]error)}
}

func (w *fakeWatcher) AddFile(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.added = append(w.added, path)
	delete(w.errs, path)
	return nil
}

func (w *fakeWatcher) RemoveFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removed = append(w.removed, path)
}

func (w *fakeWatcher) FileError(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errs[path]
}

func (w *fakeWatcher) suspend(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs[path] = &common.ScanBudgetError{Path: path, Errors: 3, Last: errors.New("permission denied")}
}

type failingWriter struct{}

func (failingWriter) WriteFileAtomic(path string, _ []byte, _ fs.FileMode) error {
	return common.NewIOError("rename", path, errors.New("disk full"))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestStore(t *testing.T, opts StoreOptions) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "settings.json", liveContent)

	opts.Directory = dir
	opts.Logger = zerolog.Nop()
	store, err := NewStore(opts)
	require.NoError(t, err)
	return store, dir
}

func profileNames(t *testing.T, s *Store) []string {
	t.Helper()
	profiles, err := s.Profiles(Consistent)
	require.NoError(t, err)
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return names
}

func TestScan_ListsProfilesInNameOrder(t *testing.T) {
	watcher := newFakeWatcher()
	store, dir := newTestStore(t, StoreOptions{Watcher: watcher})
	writeFile(t, dir, "work.settings.json", `{"theme":"light"}`)
	writeFile(t, dir, "home.settings.json", `{"theme":"dark"}`)
	writeFile(t, dir, "notes.txt", "not a profile")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.settings.json"), 0755))

	require.NoError(t, store.Scan(Consistent))

	assert.Equal(t, []string{"home", "work"}, profileNames(t, store))
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "settings.json"),
		filepath.Join(dir, "home.settings.json"),
		filepath.Join(dir, "work.settings.json"),
	}, watcher.added)

	// a second scan does not register the same paths again
	require.NoError(t, store.Scan(Consistent))
	assert.Len(t, watcher.added, 3)
}

func TestScan_UnregistersRemovedProfiles(t *testing.T) {
	watcher := newFakeWatcher()
	store, dir := newTestStore(t, StoreOptions{Watcher: watcher})
	path := writeFile(t, dir, "work.settings.json", `{}`)
	require.NoError(t, store.Scan(Consistent))

	require.NoError(t, os.Remove(path))
	require.NoError(t, store.Scan(Consistent))

	assert.Empty(t, profileNames(t, store))
	assert.Equal(t, []string{path}, watcher.removed)
}

func TestScan_FailureKeepsPreviousList(t *testing.T) {
	store, dir := newTestStore(t, StoreOptions{})
	writeFile(t, dir, "work.settings.json", `{}`)
	require.NoError(t, store.Scan(Consistent))

	require.NoError(t, os.RemoveAll(dir))

	err := store.Scan(Consistent)
	assert.ErrorIs(t, err, common.ErrIO)
	assert.Equal(t, []string{"work"}, profileNames(t, store))
}

func TestScan_UnreadableProfileIsKept(t *testing.T) {
	store, dir := newTestStore(t, StoreOptions{MaxFileSize: 64})
	writeFile(t, dir, "big.settings.json", `{"padding":"`+string(make([]byte, 100))+`"}`)
	writeFile(t, dir, "small.settings.json", liveContent)

	require.NoError(t, store.Scan(Consistent))

	profiles, err := store.Profiles(Consistent)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Error(t, profiles[0].ReadErr)
	assert.Empty(t, profiles[0].Content)
	assert.NoError(t, profiles[1].ReadErr)

	statuses, err := store.CompareAll(Consistent, comparator.DefaultIgnoredFieldSet())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].IsError())
	assert.Equal(t, comparator.FullMatch, statuses[1].Kind)
}

func TestBestEffort_FailsWhenLocked(t *testing.T) {
	store, _ := newTestStore(t, StoreOptions{})

	store.mu.Lock()
	_, err := store.Profiles(BestEffort)
	assert.ErrorIs(t, err, common.ErrBusy)
	_, err = store.ReadContent(BestEffort, CurrentID)
	assert.ErrorIs(t, err, common.ErrBusy)
	assert.ErrorIs(t, store.Scan(BestEffort), common.ErrBusy)
	store.mu.Unlock()

	_, err = store.Profiles(BestEffort)
	assert.NoError(t, err)
}

func TestStatusFor(t *testing.T) {
	store, dir := newTestStore(t, StoreOptions{})
	writeFile(t, dir, "same.settings.json", liveContent)
	writeFile(t, dir, "model.settings.json", `{"model":"sonnet","theme":"dark","env":{"A":"1"}}`)
	writeFile(t, dir, "theme.settings.json", `{"model":"opus","theme":"light","env":{"A":"1"}}`)
	writeFile(t, dir, "broken.settings.json", `not json`)
	require.NoError(t, store.Scan(Consistent))

	ignored := comparator.DefaultIgnoredFieldSet()
	tests := []struct {
		id   string
		want comparator.Kind
	}{
		{"same", comparator.FullMatch},
		{"model", comparator.PartialMatch},
		{"theme", comparator.NoMatch},
		{"broken", comparator.Error},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			status, ok, err := store.StatusFor(Consistent, tt.id, ignored)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, status.Kind)
		})
	}

	_, ok, err := store.StatusFor(Consistent, CurrentID, ignored)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.StatusFor(Consistent, "missing", ignored)
	assert.ErrorIs(t, err, common.ErrProfileNotFound)
}

func TestCompareAll_SuspendedFileIsContained(t *testing.T) {
	watcher := newFakeWatcher()
	store, dir := newTestStore(t, StoreOptions{Watcher: watcher})
	first := writeFile(t, dir, "a.settings.json", liveContent)
	writeFile(t, dir, "b.settings.json", liveContent)
	require.NoError(t, store.Scan(Consistent))

	watcher.suspend(first)

	statuses, err := store.CompareAll(Consistent, comparator.DefaultIgnoredFieldSet())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].IsError())
	assert.Contains(t, statuses[0].Reason, "monitoring suspended")
	assert.Equal(t, comparator.FullMatch, statuses[1].Kind)

	require.NoError(t, store.Refresh(Consistent))
	statuses, err = store.CompareAll(Consistent, comparator.DefaultIgnoredFieldSet())
	require.NoError(t, err)
	assert.Equal(t, comparator.FullMatch, statuses[0].Kind)
}

func TestCompareAll_SuspendedLiveFileFailsEveryProfile(t *testing.T) {
	watcher := newFakeWatcher()
	store, dir := newTestStore(t, StoreOptions{Watcher: watcher})
	writeFile(t, dir, "a.settings.json", liveContent)
	writeFile(t, dir, "b.settings.json", `{"theme":"light"}`)
	require.NoError(t, store.Scan(Consistent))

	watcher.suspend(store.LivePath())

	statuses, err := store.CompareAll(Consistent, comparator.DefaultIgnoredFieldSet())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, status := range statuses {
		assert.True(t, status.IsError())
		assert.Contains(t, status.Reason, "monitoring suspended")
	}

	status, ok, err := store.StatusFor(Consistent, "a", comparator.DefaultIgnoredFieldSet())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, status.IsError())

	require.NoError(t, store.Refresh(Consistent))
	statuses, err = store.CompareAll(Consistent, comparator.DefaultIgnoredFieldSet())
	require.NoError(t, err)
	assert.Equal(t, comparator.FullMatch, statuses[0].Kind)
	assert.Equal(t, comparator.NoMatch, statuses[1].Kind)
}

func TestReadAndSaveContent(t *testing.T) {
	store, dir := newTestStore(t, StoreOptions{})
	writeFile(t, dir, "work.settings.json", `{"theme":"light"}`)
	require.NoError(t, store.Scan(Consistent))

	content, err := store.ReadContent(Consistent, CurrentID)
	require.NoError(t, err)
	assert.Equal(t, liveContent, content)

	require.NoError(t, store.SaveContent(BestEffort, "work", `{"theme":"blue"}`))
	content, err = store.ReadContent(BestEffort, "work")
	require.NoError(t, err)
	assert.Equal(t, `{"theme":"blue"}`, content)

	require.NoError(t, store.SaveContent(Consistent, CurrentID, `{"theme":"blue"}`))
	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"theme":"blue"}`, string(data))

	assert.ErrorIs(t, store.SaveContent(Consistent, "missing", `{}`), common.ErrProfileNotFound)
	_, err = store.ReadContent(Consistent, "missing")
	assert.ErrorIs(t, err, common.ErrProfileNotFound)
}

func TestCreate(t *testing.T) {
	watcher := newFakeWatcher()
	store, dir := newTestStore(t, StoreOptions{Watcher: watcher})
	require.NoError(t, store.Scan(Consistent))

	path, err := store.Create(Consistent, "work", `{"theme":"light"}`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "work.settings.json"), path)
	assert.FileExists(t, path)
	assert.Contains(t, watcher.added, path)
	assert.Equal(t, []string{"work"}, profileNames(t, store))

	_, err = store.Create(Consistent, "work", `{}`)
	assert.ErrorIs(t, err, common.ErrProfileAlreadyExists)

	// a file created behind the store's back is still refused
	writeFile(t, dir, "home.settings.json", `{}`)
	_, err = store.Create(Consistent, "home", `{}`)
	assert.ErrorIs(t, err, common.ErrProfileAlreadyExists)

	for _, name := range []string{"", "current", "../escape", ".hidden", "a/b"} {
		_, err = store.Create(Consistent, name, `{}`)
		assert.ErrorIs(t, err, common.ErrValidation, name)
	}
}

func TestDelete(t *testing.T) {
	watcher := newFakeWatcher()
	store, dir := newTestStore(t, StoreOptions{Watcher: watcher})
	path := writeFile(t, dir, "work.settings.json", `{}`)
	require.NoError(t, store.Scan(Consistent))

	assert.ErrorIs(t, store.Delete(Consistent, CurrentID), common.ErrValidation)
	assert.FileExists(t, filepath.Join(dir, "settings.json"))

	assert.ErrorIs(t, store.Delete(Consistent, "missing"), common.ErrProfileNotFound)

	require.NoError(t, store.Delete(Consistent, "work"))
	assert.NoFileExists(t, path)
	assert.Empty(t, profileNames(t, store))
	assert.Equal(t, []string{path}, watcher.removed)
}

func TestListProfiles(t *testing.T) {
	store, dir := newTestStore(t, StoreOptions{})
	writeFile(t, dir, "work.settings.json", `{"theme":"light"}`)
	require.NoError(t, store.Scan(Consistent))

	infos, err := store.ListProfiles(Consistent)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, CurrentID, infos[0].ID)
	assert.Equal(t, CurrentDisplayName, infos[0].DisplayName)
	assert.True(t, infos[0].IsDefault)
	assert.Equal(t, int64(len(liveContent)), infos[0].FileSize)

	assert.Equal(t, "work", infos[1].ID)
	assert.False(t, infos[1].IsDefault)
	assert.Equal(t, filepath.Join(dir, "work.settings.json"), infos[1].FilePath)
	assert.Equal(t, int64(len(`{"theme":"light"}`)), infos[1].FileSize)
	assert.False(t, infos[1].LastModified.IsZero())
}

func TestInstallLive(t *testing.T) {
	store, dir := newTestStore(t, StoreOptions{})
	writeFile(t, dir, "a.settings.json", `{"theme":"a"}`)
	writeFile(t, dir, "b.settings.json", `{"theme":"b"}`)
	require.NoError(t, store.Scan(Consistent))

	require.NoError(t, store.InstallLive(Consistent, "b", []byte(`{"theme":"b"}`)))

	data, err := os.ReadFile(store.LivePath())
	require.NoError(t, err)
	assert.Equal(t, `{"theme":"b"}`, string(data))

	active, ok, err := store.ActiveProfile(Consistent)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", active)

	// the flag survives a rescan
	require.NoError(t, store.Scan(Consistent))
	profiles, err := store.Profiles(Consistent)
	require.NoError(t, err)
	assert.False(t, profiles[0].IsActive)
	assert.True(t, profiles[1].IsActive)
}

func TestInstallLive_WriteFailureLeavesStateUntouched(t *testing.T) {
	store, dir := newTestStore(t, StoreOptions{Writer: failingWriter{}})
	writeFile(t, dir, "a.settings.json", `{"theme":"a"}`)
	require.NoError(t, store.Scan(Consistent))

	err := store.InstallLive(Consistent, "a", []byte(`{"theme":"a"}`))
	assert.ErrorIs(t, err, common.ErrSwitchFailed)
	assert.ErrorIs(t, err, common.ErrIO)

	data, err := os.ReadFile(store.LivePath())
	require.NoError(t, err)
	assert.Equal(t, liveContent, string(data))

	_, ok, err := store.ActiveProfile(Consistent)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckDirectory(t *testing.T) {
	store, dir := newTestStore(t, StoreOptions{})
	assert.NoError(t, store.CheckDirectory())

	require.NoError(t, os.Remove(filepath.Join(dir, "settings.json")))
	err := store.CheckDirectory()
	assert.Error(t, err)
	assert.True(t, common.IsNotExist(err))
}

func TestAccessModeString(t *testing.T) {
	assert.Equal(t, "consistent", Consistent.String())
	assert.Equal(t, "best_effort", BestEffort.String())
}
