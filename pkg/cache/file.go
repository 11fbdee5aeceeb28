package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

// fileItem is one persisted entry. Value holds the encoded bytes (base64 in the file).
type fileItem struct {
	Value    []byte    `json:"value"`
	ExpireAt time.Time `json:"expire_at"`
}

// FileCache implements Service on a single JSON file so entries outlive the process.
// Every call reads and rewrites the whole file; it is meant for a handful of keys.
type FileCache struct {
	path  string
	mutex sync.Mutex
	now   func() time.Time
}

// NewFileCache creates a cache persisted at path. The file is created on first Set.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path, now: time.Now}
}

// load returns the stored entries. A missing or unreadable file is an empty cache.
func (fc *FileCache) load() map[string]fileItem {
	items := make(map[string]fileItem)
	b, err := os.ReadFile(fc.path)
	if err != nil {
		return items
	}
	if err := json.Unmarshal(b, &items); err != nil {
		return make(map[string]fileItem)
	}
	return items
}

func (fc *FileCache) store(items map[string]fileItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(fc.path, b, 0o644); err != nil {
		return fmt.Errorf("file cache %s: %w", fc.path, err)
	}
	return nil
}

func (fc *FileCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	now := fc.now()
	expireAt := now.Add(expiration)
	if expiration <= 0 {
		expireAt = now.Add(7 * 24 * time.Hour) // default 7 days
	}

	items := fc.load()
	for k, item := range items {
		if now.After(item.ExpireAt) {
			delete(items, k)
		}
	}
	items[key] = fileItem{Value: data, ExpireAt: expireAt.UTC()}
	return fc.store(items)
}

func (fc *FileCache) Get(_ context.Context, key string, dest interface{}) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	item, ok := fc.load()[key]
	if !ok || fc.now().After(item.ExpireAt) {
		return ErrCacheMiss
	}
	return decode(item.Value, dest)
}

func (fc *FileCache) Delete(_ context.Context, keys ...string) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	items := fc.load()
	changed := false
	for _, key := range keys {
		if _, ok := items[key]; ok {
			delete(items, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return fc.store(items)
}

func (fc *FileCache) Exists(_ context.Context, keys ...string) (bool, error) {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	items := fc.load()
	now := fc.now()
	for _, key := range keys {
		if item, ok := items[key]; ok && !now.After(item.ExpireAt) {
			return true, nil
		}
	}
	return false, nil
}

// Close is a no-op; every write is already on disk.
func (fc *FileCache) Close() error {
	return nil
}

var _ Service = (*FileCache)(nil)
