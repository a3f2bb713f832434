package common

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// FileWriter handles file writing operations
type FileWriter struct {
	logger zerolog.Logger
}

// NewFileWriter creates a new FileWriter instance
func NewFileWriter(logger zerolog.Logger) *FileWriter {
	return &FileWriter{
		logger: logger.With().Str("component", "FileWriter").Logger(),
	}
}

// WriteFile writes data to a file with the given options
func (fw *FileWriter) WriteFile(path string, data []byte, opts FileWriteOptions) error {
	perm := opts.Permissions
	if perm == 0 {
		perm = 0644
	}

	var err error
	switch {
	case opts.Exclusive:
		err = fw.writeExclusive(path, data, perm)
	case opts.Atomic:
		err = fw.writeAtomic(path, data, perm)
	default:
		err = fw.writeDirect(path, data, perm)
	}
	if err != nil {
		return err
	}

	fw.logger.Debug().Str("path", path).Int("bytes", len(data)).Bool("atomic", opts.Atomic).Msg("File written successfully")
	return nil
}

// writeAtomic writes to a sibling temporary file, syncs it and renames it over path.
// Readers of path observe either the previous or the new content.
func (fw *FileWriter) writeAtomic(path string, data []byte, perm os.FileMode) error {
	tempPath := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())

	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return NewIOError("create temp", tempPath, err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		fw.discard(tempPath)
		return NewIOError("write", tempPath, err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		fw.discard(tempPath)
		return NewIOError("sync", tempPath, err)
	}

	if err := file.Close(); err != nil {
		fw.discard(tempPath)
		return NewIOError("close", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		fw.discard(tempPath)
		return NewIOError("rename", path, err)
	}

	fw.syncDir(filepath.Dir(path))
	return nil
}

func (fw *FileWriter) writeExclusive(path string, data []byte, perm os.FileMode) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return NewIOError("create", path, err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		fw.discard(path)
		return NewIOError("write", path, err)
	}

	if err := file.Close(); err != nil {
		return NewIOError("close", path, err)
	}
	return nil
}

func (fw *FileWriter) writeDirect(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return NewIOError("write", path, err)
	}
	return nil
}

func (fw *FileWriter) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fw.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temporary file")
	}
}

// syncDir flushes the directory entry after a rename; not supported everywhere, so errors are ignored.
func (fw *FileWriter) syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
