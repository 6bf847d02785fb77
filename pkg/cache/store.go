// Package cache keeps recent forecast results on disk so an identical
// request can be answered without calling the prediction engine again.
package cache

import (
	"container/list"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/quant-predict/pkg/clock"
	"gitlab.com/tinyland/lab/quant-predict/pkg/diskfile"
)

// StoreConfig holds configuration for a cache Store.
type StoreConfig struct {
	// Dir is the directory where entry files are written.
	Dir string

	// MaxEntries bounds the number of kept entries. Default: 64.
	MaxEntries int

	// TTL is how long an entry is served after it was written. Zero means
	// entries only leave by LRU eviction.
	TTL time.Duration

	// Clock defaults to clock.Real.
	Clock clock.Clock
}

// Stats holds runtime statistics for a Store.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// entryFile is the on-disk form of one entry.
type entryFile struct {
	Key     string          `json:"key"`
	Created int64           `json:"created"` // UnixNano
	Data    json.RawMessage `json:"data"`
}

type lruEntry struct {
	hash    string
	key     string
	created time.Time
}

// Store is a disk-backed key-value cache with LRU eviction and TTL
// expiry. Each entry is one {hash}.json file written via temp file and
// rename.
type Store struct {
	cfg StoreConfig

	mu        sync.Mutex
	lru       *list.List // front = most recently used
	items     map[string]*list.Element
	hits      int64
	misses    int64
	evictions int64
}

// NewStore creates the cache directory if needed and indexes the entries
// already on disk. Expired or unreadable files are removed.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 64
	}
	if cfg.TTL < 0 {
		cfg.TTL = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: create directory %s: %w", cfg.Dir, err)
	}

	s := &Store{
		cfg:   cfg,
		lru:   list.New(),
		items: make(map[string]*list.Element),
	}
	if err := s.scanDir(); err != nil {
		return nil, fmt.Errorf("cache: scan directory: %w", err)
	}
	return s, nil
}

// Get returns the bytes stored under key. A hit promotes the entry.
func (s *Store) Get(key string) ([]byte, bool) {
	h := diskfile.HashKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[h]
	if !ok {
		s.misses++
		return nil, false
	}
	entry := elem.Value.(*lruEntry)
	if s.expired(entry.created) {
		s.removeLocked(elem)
		s.misses++
		return nil, false
	}

	f, err := s.readEntry(h)
	if err != nil || f.Key != key {
		s.removeLocked(elem)
		s.misses++
		return nil, false
	}

	s.lru.MoveToFront(elem)
	s.hits++
	return f.Data, true
}

// Put stores value, which must be valid JSON, under key.
func (s *Store) Put(key string, value []byte) error {
	h := diskfile.HashKey(key)
	now := s.cfg.Clock.Now()

	data, err := json.Marshal(entryFile{Key: key, Created: now.UnixNano(), Data: value})
	if err != nil {
		return fmt.Errorf("cache: marshal entry for %q: %w", key, err)
	}
	if err := diskfile.WriteAtomic(s.entryPath(h), data, s.cfg.Dir); err != nil {
		return fmt.Errorf("cache: write entry for %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[h]; ok {
		elem.Value.(*lruEntry).created = now
		s.lru.MoveToFront(elem)
	} else {
		s.items[h] = s.lru.PushFront(&lruEntry{hash: h, key: key, created: now})
	}
	s.evictLocked()
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.items[diskfile.HashKey(key)]; ok {
		s.removeLocked(elem)
	}
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, elem := range s.items {
		_ = os.Remove(s.entryPath(elem.Value.(*lruEntry).hash))
	}
	s.lru.Init()
	s.items = make(map[string]*list.Element)
	return nil
}

// Stats returns a snapshot of cache statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Entries:   s.lru.Len(),
	}
}

func (s *Store) entryPath(hash string) string {
	return filepath.Join(s.cfg.Dir, hash+".json")
}

func (s *Store) expired(created time.Time) bool {
	if s.cfg.TTL == 0 {
		return false
	}
	return s.cfg.Clock.Now().Sub(created) >= s.cfg.TTL
}

func (s *Store) readEntry(hash string) (entryFile, error) {
	var f entryFile
	data, err := os.ReadFile(s.entryPath(hash))
	if err != nil {
		return f, err
	}
	err = json.Unmarshal(data, &f)
	return f, err
}

// removeLocked drops elem from the index and deletes its file.
// Caller must hold s.mu.
func (s *Store) removeLocked(elem *list.Element) {
	entry := elem.Value.(*lruEntry)
	s.lru.Remove(elem)
	delete(s.items, entry.hash)
	_ = os.Remove(s.entryPath(entry.hash))
}

// evictLocked trims the least recently used entries down to MaxEntries.
// Caller must hold s.mu.
func (s *Store) evictLocked() {
	for s.lru.Len() > s.cfg.MaxEntries {
		s.removeLocked(s.lru.Back())
		s.evictions++
	}
}

// scanDir rebuilds the index from disk, newest entries first.
func (s *Store) scanDir() error {
	dirEntries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var found []*lruEntry
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(name, diskfile.TempPrefix) {
			_ = os.Remove(filepath.Join(s.cfg.Dir, name))
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		hash := strings.TrimSuffix(name, ".json")
		f, err := s.readEntry(hash)
		if err != nil || diskfile.HashKey(f.Key) != hash {
			_ = os.Remove(s.entryPath(hash))
			continue
		}
		created := time.Unix(0, f.Created)
		if s.expired(created) {
			_ = os.Remove(s.entryPath(hash))
			continue
		}
		found = append(found, &lruEntry{hash: hash, key: f.Key, created: created})
	}

	slices.SortFunc(found, func(a, b *lruEntry) int { return b.created.Compare(a.created) })
	for _, entry := range found {
		s.items[entry.hash] = s.lru.PushBack(entry)
	}
	s.evictLocked()
	return nil
}
