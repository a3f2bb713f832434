package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/comparator"
	"github.com/aleister1102/cfgswitch/internal/profile"
	"github.com/aleister1102/cfgswitch/internal/switcher"
	"github.com/aleister1102/cfgswitch/internal/validation"
)

// ProfileStatusView is one profile with its comparison result.
type ProfileStatusView struct {
	Name     string            `json:"name"`
	Path     string            `json:"path"`
	IsActive bool              `json:"is_active"`
	Status   comparator.Status `json:"status"`
	Icon     string            `json:"icon"`
}

// StatusSnapshot is published after every rescan, save, create, delete and switch.
type StatusSnapshot struct {
	At       time.Time           `json:"at"`
	Profiles []ProfileStatusView `json:"profiles"`
	// Matched is the first profile that fully matches the live configuration.
	Matched string `json:"matched,omitempty"`
	Tooltip string `json:"tooltip"`
}

// ProfilesInfo summarizes the configuration directory.
type ProfilesInfo struct {
	Directory     string `json:"directory"`
	ProfilesCount int    `json:"profiles_count"`
	MonitorStatus string `json:"monitor_status"`
}

func (e *Engine) ignoredFields() comparator.IgnoredFieldSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ignored
}

// ListProfiles returns the live configuration followed by every profile.
func (e *Engine) ListProfiles() ([]profile.ProfileInfo, error) {
	return e.store.ListProfiles(profile.BestEffort)
}

// GetStatus returns the icon for a profile: "" for the live configuration
// and for NoMatch.
func (e *Engine) GetStatus(id string) (string, error) {
	status, ok, err := e.store.StatusFor(profile.BestEffort, id, e.ignoredFields())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return e.icons.Icon(status), nil
}

// ReadContent reads the live configuration (blocking) or a profile (non-blocking).
func (e *Engine) ReadContent(id string) (string, error) {
	mode := profile.BestEffort
	if id == profile.CurrentID {
		mode = profile.Consistent
	}
	return e.store.ReadContent(mode, id)
}

// SaveContent replaces the content of a profile or of the live configuration.
func (e *Engine) SaveContent(id, content string) error {
	if err := e.store.SaveContent(profile.BestEffort, id, content); err != nil {
		return err
	}
	e.publish()
	return nil
}

// Create adds a profile and returns its path.
func (e *Engine) Create(name, content string) (string, error) {
	path, err := e.store.Create(profile.BestEffort, name, content)
	if err != nil {
		return "", err
	}
	e.publish()
	return path, nil
}

// Delete removes a profile.
func (e *Engine) Delete(id string) error {
	if err := e.store.Delete(profile.BestEffort, id); err != nil {
		return err
	}
	e.publish()
	return nil
}

// ValidateJSON checks content with the configured rules.
func (e *Engine) ValidateJSON(content string) validation.Result {
	e.mu.RLock()
	v := e.validator
	e.mu.RUnlock()
	return v.Validate([]byte(content))
}

// Switch makes a profile the live configuration.
func (e *Engine) Switch(ctx context.Context, id string) (*switcher.Attempt, error) {
	attempt, err := e.coordinator.Switch(ctx, id)
	if err == nil {
		e.publish()
	}
	return attempt, err
}

// Statuses compares every profile with the live configuration. It fails
// with common.ErrBusy instead of waiting for the store.
func (e *Engine) Statuses() ([]ProfileStatusView, error) {
	return e.statuses(profile.BestEffort)
}

func (e *Engine) statuses(mode profile.AccessMode) ([]ProfileStatusView, error) {
	var (
		profiles []profile.Profile
		statuses []comparator.Status
		err      error
	)
	// the list may change between the two calls
	for i := 0; i < 3; i++ {
		if profiles, err = e.store.Profiles(mode); err != nil {
			return nil, err
		}
		if statuses, err = e.store.CompareAll(mode, e.ignoredFields()); err != nil {
			return nil, err
		}
		if len(statuses) == len(profiles) {
			break
		}
	}
	if len(statuses) != len(profiles) {
		return nil, fmt.Errorf("%w: profile list kept changing", common.ErrBusy)
	}

	views := make([]ProfileStatusView, len(profiles))
	for i, p := range profiles {
		views[i] = ProfileStatusView{
			Name:     p.Name,
			Path:     p.Path,
			IsActive: p.IsActive,
			Status:   statuses[i],
			Icon:     e.icons.Icon(statuses[i]),
		}
	}
	return views, nil
}

// Snapshot computes a fresh status snapshot without waiting for the store.
func (e *Engine) Snapshot() (StatusSnapshot, error) {
	return e.snapshot(profile.BestEffort)
}

func (e *Engine) snapshot(mode profile.AccessMode) (StatusSnapshot, error) {
	views, err := e.statuses(mode)
	if err != nil {
		return StatusSnapshot{}, err
	}
	snap := StatusSnapshot{At: time.Now(), Profiles: views}
	for _, v := range views {
		if v.Status.Kind == comparator.FullMatch {
			snap.Matched = v.Name
			break
		}
	}
	snap.Tooltip = Tooltip(len(views), snap.Matched)
	return snap, nil
}

// Tooltip renders the one-line summary shown next to the profile list.
func Tooltip(count int, active string) string {
	if active == "" {
		active = "none"
	}
	return fmt.Sprintf("%d profiles, active: %s", count, active)
}

// Subscribe returns a channel receiving the latest snapshot. The channel
// holds at most one value and is closed by Close.
func (e *Engine) Subscribe() <-chan StatusSnapshot {
	ch := make(chan StatusSnapshot, 1)
	e.subMu.Lock()
	defer e.subMu.Unlock()
	if e.subsClosed {
		close(ch)
		return ch
	}
	if e.last != nil {
		ch <- *e.last
	}
	e.subscribers = append(e.subscribers, ch)
	return ch
}

// publish waits for the store so subscribers never miss an update.
func (e *Engine) publish() {
	snap, err := e.snapshot(profile.Consistent)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to compute profile statuses")
		return
	}

	e.subMu.Lock()
	defer e.subMu.Unlock()
	if e.subsClosed {
		return
	}
	e.last = &snap
	for _, ch := range e.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// ProfilesInfo summarizes the directory, profile count and monitor state.
func (e *Engine) ProfilesInfo() (ProfilesInfo, error) {
	profiles, err := e.store.Profiles(profile.BestEffort)
	if err != nil {
		return ProfilesInfo{}, err
	}
	status := "stopped"
	if e.watcher.IsRunning() {
		status = "running"
	}
	return ProfilesInfo{
		Directory:     e.store.Directory(),
		ProfilesCount: len(profiles),
		MonitorStatus: status,
	}, nil
}

// Diff summarizes how a profile differs from the live configuration.
func (e *Engine) Diff(id string) (comparator.DiffSummary, error) {
	live, content, err := e.pair(id)
	if err != nil {
		return comparator.DiffSummary{}, err
	}
	return comparator.Diff(live, content), nil
}

// UnifiedDiff renders a unified diff from the live configuration to a profile.
func (e *Engine) UnifiedDiff(id string) (string, error) {
	live, content, err := e.pair(id)
	if err != nil {
		return "", err
	}
	return comparator.UnifiedDiff(live, content, profile.CurrentID, id)
}

func (e *Engine) pair(id string) ([]byte, []byte, error) {
	if id == profile.CurrentID {
		return nil, nil, common.NewValidationError("id", id, "compare a profile, not the live configuration")
	}
	live, err := e.store.ReadContent(profile.Consistent, profile.CurrentID)
	if err != nil {
		return nil, nil, err
	}
	content, err := e.store.ReadContent(profile.Consistent, id)
	if err != nil {
		return nil, nil, err
	}
	return []byte(live), []byte(content), nil
}

// IsBusy reports whether err came from a non-blocking call that found the store locked.
func IsBusy(err error) bool {
	return errors.Is(err, common.ErrBusy)
}
