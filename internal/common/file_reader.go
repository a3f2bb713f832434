package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
)

// FileReader handles file reading operations
type FileReader struct {
	logger zerolog.Logger
}

// NewFileReader creates a new FileReader instance
func NewFileReader(logger zerolog.Logger) *FileReader {
	return &FileReader{
		logger: logger.With().Str("component", "FileReader").Logger(),
	}
}

// GetFileInfo returns information about a file
func (fr *FileReader) GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, NewIOError("stat", path, err)
	}

	return &FileInfo{
		Path:        path,
		Name:        stat.Name(),
		Size:        stat.Size(),
		IsDir:       stat.IsDir(),
		ModTime:     stat.ModTime(),
		Permissions: stat.Mode(),
	}, nil
}

// ReadFile reads a regular file, enforcing opts.MaxSize
func (fr *FileReader) ReadFile(path string, opts FileReadOptions) ([]byte, error) {
	info, err := fr.GetFileInfo(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir {
		return nil, NewIOError("read", path, errors.New("is a directory, not a file"))
	}

	if opts.MaxSize > 0 && info.Size > opts.MaxSize {
		return nil, NewValidationError("file_size", info.Size, fmt.Sprintf("exceeds maximum size of %d bytes", opts.MaxSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewIOError("read", path, err)
	}

	fr.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("File read")
	return data, nil
}

// IsNotExist reports whether err describes a missing file, looking through wrappers.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
