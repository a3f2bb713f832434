package monitor

import (
	"hash/crc32"
	"time"
)

// FileMetadata is the cached snapshot used to decide whether a file changed.
type FileMetadata struct {
	ModifiedTime time.Time `json:"modified_time"`
	Checksum     uint32    `json:"checksum"`
	Size         int64     `json:"size"`
}

// sameStat reports whether the cheap (mtime, size) pair is unchanged.
func (m FileMetadata) sameStat(modTime time.Time, size int64) bool {
	return m.ModifiedTime.Equal(modTime) && m.Size == size
}

// Checksum is the content hash stored in FileMetadata.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// MetadataCache maps absolute paths to their last successfully read snapshot.
// It is not safe for concurrent use; FileWatcher guards it with its own lock.
type MetadataCache struct {
	entries map[string]FileMetadata
}

func NewMetadataCache() *MetadataCache {
	return &MetadataCache{entries: make(map[string]FileMetadata)}
}

func (c *MetadataCache) Get(path string) (FileMetadata, bool) {
	m, ok := c.entries[path]
	return m, ok
}

func (c *MetadataCache) Put(path string, m FileMetadata) {
	c.entries[path] = m
}

func (c *MetadataCache) Delete(path string) {
	delete(c.entries, path)
}

func (c *MetadataCache) Len() int {
	return len(c.entries)
}

func (c *MetadataCache) Clear() {
	c.entries = make(map[string]FileMetadata)
}

// MonitoredFile is one registered path and its error budget state.
type MonitoredFile struct {
	Path       string        `json:"path"`
	Metadata   *FileMetadata `json:"metadata,omitempty"`
	ErrorCount int           `json:"error_count"`
	Suspended  bool          `json:"suspended"`
	LastError  error         `json:"-"`
}
