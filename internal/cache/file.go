package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultFilePattern names token files the way earlier deployments wrote them,
// so an existing cache file is picked up after an upgrade.
const DefaultFilePattern = ".token_cache_%s.json"

// FileCache stores each key in its own file under a directory.
//
// Files carry only the value: the TTL is not persisted, so values that need to
// expire must encode their own deadline.
type FileCache struct {
	dir     string
	pattern string
}

// NewFileCache creates a file-backed cache rooted at dir. pattern is a
// fmt verb string with one %s for the key; empty means DefaultFilePattern.
func NewFileCache(dir, pattern string) (*FileCache, error) {
	if dir == "" {
		dir = "."
	}
	if pattern == "" {
		pattern = DefaultFilePattern
	}
	if strings.Count(pattern, "%s") != 1 {
		return nil, fmt.Errorf("file cache: pattern %q must contain exactly one %%s", pattern)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file cache: create dir: %w", err)
	}
	return &FileCache{dir: dir, pattern: pattern}, nil
}

// Path returns the file that holds key.
func (c *FileCache) Path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf(c.pattern, sanitizeKey(key)))
}

// Get retrieves a value by key.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("file cache: read %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil, ErrCacheMiss
	}
	return data, nil
}

// Set writes the value through a temp file and rename, so a reader never
// sees a half-written file. ttl is ignored.
func (c *FileCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	path := c.Path(key)
	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file cache: write %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("file cache: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file cache: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("file cache: write %s: %w", key, err)
	}
	return nil
}

// Delete removes a value by key.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file cache: delete %s: %w", key, err)
	}
	return nil
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)
}
