package monitor

import (
	"io/fs"
	"os"
)

// FileSource is the file system view used by FileWatcher.
type FileSource interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// OSFileSource reads from the real file system.
type OSFileSource struct{}

func (OSFileSource) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFileSource) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
