// Package store resolves raw history payloads through cache tiers:
// fresh disk, network fetch with write-back, stale disk.
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stock_go/internal/domain"
)

const (
	payloadFile = "payload.json"
	metaFile    = "range.meta"
	metaSize    = 16 // two big-endian int64: start ms, end ms
)

// DiskCache persists one payload per instrument key, each in its own
// directory as a payload file plus a fixed-width range-metadata file.
// Metadata is read first and written last, so a reader never observes
// a payload without the range that describes it.
type DiskCache struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDiskCache creates the cache root if needed.
func NewDiskCache(baseDir string) (*DiskCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &DiskCache{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// keyLock returns the mutex guarding one instrument key's files,
// creating it on first use. Same-key reads and writes serialize here;
// different keys never contend.
func (d *DiskCache) keyLock(key string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[key]
	if !ok {
		l = &sync.Mutex{}
		d.locks[key] = l
	}
	return l
}

func (d *DiskCache) entryDir(key string) string {
	return filepath.Join(d.baseDir, key)
}

// Read returns the stored payload for key. ok is false when either
// companion file is missing or the metadata is not the expected width;
// a payload without metadata counts as absent.
func (d *DiskCache) Read(key string) (domain.RawPayload, bool) {
	l := d.keyLock(key)
	l.Lock()
	defer l.Unlock()

	dir := d.entryDir(key)
	meta, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil || len(meta) != metaSize {
		return domain.RawPayload{}, false
	}
	body, err := os.ReadFile(filepath.Join(dir, payloadFile))
	if err != nil || len(body) == 0 {
		return domain.RawPayload{}, false
	}

	startMs := int64(binary.BigEndian.Uint64(meta[0:8]))
	endMs := int64(binary.BigEndian.Uint64(meta[8:16]))
	return domain.RawPayload{
		Body: body,
		Range: domain.TimeRange{
			Start: time.UnixMilli(startMs).UTC(),
			End:   time.UnixMilli(endMs).UTC(),
		},
	}, true
}

// Write persists the payload body and then its range metadata. On an
// interrupted write the metadata stays absent or stale, so readers
// either miss or keep seeing the previous consistent entry.
func (d *DiskCache) Write(key string, p domain.RawPayload) error {
	l := d.keyLock(key)
	l.Lock()
	defer l.Unlock()

	dir := d.entryDir(key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache entry for %s: %w", key, err)
	}

	if err := os.WriteFile(filepath.Join(dir, payloadFile), p.Body, 0644); err != nil {
		return fmt.Errorf("failed to write payload for %s: %w", key, err)
	}

	meta := make([]byte, metaSize)
	binary.BigEndian.PutUint64(meta[0:8], uint64(p.Range.Start.UnixMilli()))
	binary.BigEndian.PutUint64(meta[8:16], uint64(p.Range.End.UnixMilli()))
	if err := os.WriteFile(filepath.Join(dir, metaFile), meta, 0644); err != nil {
		return fmt.Errorf("failed to write range metadata for %s: %w", key, err)
	}
	return nil
}
