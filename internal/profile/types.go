package profile

import (
	"fmt"
	"time"
)

// CurrentID addresses the live configuration itself rather than a stored profile.
const CurrentID = "current"

// CurrentDisplayName is shown for CurrentID in listings.
const CurrentDisplayName = "Current"

// AccessMode selects how a Store method acquires the store lock.
type AccessMode int

const (
	// Consistent waits for the lock.
	Consistent AccessMode = iota
	// BestEffort fails with common.ErrBusy instead of waiting.
	BestEffort
)

func (m AccessMode) String() string {
	switch m {
	case Consistent:
		return "consistent"
	case BestEffort:
		return "best_effort"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Profile is a named configuration file next to the live configuration.
// IsActive only records the last successful switch; it is never read back
// to decide what is live.
type Profile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	IsActive bool   `json:"is_active"`
	ReadErr  error  `json:"-"`
}

// ProfileInfo is the listing view of a profile.
type ProfileInfo struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	FilePath     string    `json:"file_path"`
	IsDefault    bool      `json:"is_default"`
	IsActive     bool      `json:"is_active"`
	LastModified time.Time `json:"last_modified"`
	FileSize     int64     `json:"file_size"`
}
