package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Storage struct{}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// SaveFile writes content atomically: a temp file in the same directory is synced and
// renamed over filePath. Missing parent directories are created.
func (s *Storage) SaveFile(filePath string, content []byte) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("error saving file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("error syncing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("error closing file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("error setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		cleanup()
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func (s *Storage) HasFile(fn string) bool {
	_, err := os.Stat(fn)
	return err == nil
}

// GetFileStats returns metadata about a file using os.Stat (no I/O overhead).
func (s *Storage) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}

	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}
