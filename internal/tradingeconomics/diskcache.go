package tradingeconomics

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	appLog "econcal/internal/log"
)

const (
	diskMetaFile    = "meta.json"
	diskRecordsFile = "records.json"
)

// diskMeta describes one cached payload on disk.
type diskMeta struct {
	Key      string    `json:"key"`
	Count    int       `json:"count"`
	StoredAt time.Time `json:"stored_at"`
}

// DiskCache persists payloads under a directory so a restart within the TTL
// does not hit the API again. Each range gets its own subdirectory named by
// a hash of the key.
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a DiskCache rooted at dir. A non-positive ttl
// selects DefaultCacheTTL; a nil now selects time.Now.
func NewDiskCache(dir string, ttl time.Duration, now func() time.Time) *DiskCache {
	if dir == "" {
		dir = "./var/te-cache"
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &DiskCache{dir: dir, ttl: ttl, now: now}
}

func (c *DiskCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8]))
}

func (c *DiskCache) Get(key string) ([]Record, bool) {
	path := c.pathFor(key)

	data, err := os.ReadFile(filepath.Join(path, diskMetaFile))
	if err != nil {
		return nil, false
	}
	var meta diskMeta
	if err := json.Unmarshal(data, &meta); err != nil || meta.Key != key {
		return nil, false
	}
	if c.now().Sub(meta.StoredAt) >= c.ttl {
		return nil, false
	}

	body, err := os.ReadFile(filepath.Join(path, diskRecordsFile))
	if err != nil {
		appLog.Warn("te disk cache body missing", "range", key, "err", err)
		return nil, false
	}
	records, err := decodeRecords(bytes.NewReader(body))
	if err != nil {
		appLog.Warn("te disk cache body corrupt", "range", key, "err", err)
		return nil, false
	}
	return records, true
}

// Set writes the payload. Failures are logged; the cache is best effort.
func (c *DiskCache) Set(key string, records []Record) {
	if err := c.save(key, records); err != nil {
		appLog.Error("te disk cache save failed", err, "range", key)
	}
}

func (c *DiskCache) save(key string, records []Record) error {
	if key == "" {
		return errors.New("empty cache key")
	}
	path := c.pathFor(key)
	if err := os.MkdirAll(path, 0o700); err != nil {
		return err
	}

	body, err := json.Marshal(records)
	if err != nil {
		return err
	}
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(path, diskRecordsFile), body, 0o600); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(diskMeta{Key: key, Count: len(records), StoredAt: c.now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(path, diskMetaFile), meta, 0o600)
}
