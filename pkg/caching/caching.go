package caching

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache is a file-based store of raw page bodies with a TTL.
// A zero TTL disables reads, so every Get misses.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a new Cache instance.
// The cache path will be created if it doesn't exist.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		path: path,
		ttl:  ttl,
	}, nil
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// key generates a SHA256 hash of the URL to use as a filename.
func (c *Cache) key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", hash)
}

// Get returns the cached body for url when present and younger than the TTL.
func (c *Cache) Get(url string) ([]byte, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	filePath := filepath.Join(c.path, c.key(url))

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores data for url, replacing any earlier entry.
func (c *Cache) Set(url string, data []byte) error {
	filePath := filepath.Join(c.path, c.key(url))
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Purge removes entries older than the TTL and returns how many were deleted.
func (c *Cache) Purge() (int, error) {
	entries, err := os.ReadDir(c.path)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache directory: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > c.ttl {
			if err := os.Remove(filepath.Join(c.path, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
