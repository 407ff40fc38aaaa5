// Package caching keeps fetched page bodies on disk so repeated passes over a
// sheet do not refetch pages that are still fresh.
package caching

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const pageExt = ".page"

// Cache stores one file per page URL under dir, sharded by the first two
// hex digits of the URL hash. Freshness is the file's modification time.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewCache opens the cache rooted at dir, creating it when missing.
// A ttl of zero or less keeps pages forever.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) pagePath(pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, name[:2], name+pageExt)
}

func (c *Cache) expired(modTime time.Time) bool {
	return c.ttl > 0 && c.now().Sub(modTime) > c.ttl
}

// Get returns the body stored for pageURL while it is fresh.
func (c *Cache) Get(pageURL string) ([]byte, bool) {
	path := c.pagePath(pageURL)
	info, err := os.Stat(path)
	if err != nil || c.expired(info.ModTime()) {
		return nil, false
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return body, true
}

// Set stores body for pageURL. Readers never see a half-written page.
func (c *Cache) Set(pageURL string, body []byte) error {
	path := c.pagePath(pageURL)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to cache %s: %w", pageURL, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to cache %s: %w", pageURL, err)
	}
	_, werr := tmp.Write(body)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to cache %s: %w", pageURL, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to cache %s: %w", pageURL, err)
	}
	return nil
}

// Prune deletes expired pages and returns how many were removed.
func (c *Cache) Prune() (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, pageExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !c.expired(info.ModTime()) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to prune page cache: %w", err)
	}
	return removed, nil
}
