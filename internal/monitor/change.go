package monitor

import (
	"fmt"
	"time"
)

// ChangeType classifies a detected file change.
type ChangeType int

const (
	Created ChangeType = iota
	Modified
	Deleted
)

func (c ChangeType) String() string {
	switch c {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("change(%d)", int(c))
	}
}

// FileChange is a single per-tick observation; it is never persisted by the watcher.
type FileChange struct {
	Path string     `json:"path"`
	Type ChangeType `json:"type"`
}

// ChangeBatch holds every change found during one tick. At most one change per file.
type ChangeBatch struct {
	Tick    uint64       `json:"tick"`
	At      time.Time    `json:"at"`
	Changes []FileChange `json:"changes"`
}

// Paths returns the changed paths in batch order.
func (b ChangeBatch) Paths() []string {
	paths := make([]string, 0, len(b.Changes))
	for _, c := range b.Changes {
		paths = append(paths, c.Path)
	}
	return paths
}
