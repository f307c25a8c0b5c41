package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxCacheElements bounds the number of files a single Load may ingest.
// Walking a tree with more entries than this fails the load and leaves the
// previously published snapshot untouched.
const maxCacheElements = 65534

// CacheEntry is one file's immutable, preloaded body plus its metadata.
// Once published inside a snapshot the tuple is never mutated.
type CacheEntry struct {
	Path   string
	Hash   uint64
	Bytes  []byte
	Length int
	MIME   string
}

// snapshot is an open-addressed hash table of CacheEntry values, sized to a
// power of two strictly greater than the number of entries it holds so that
// its load factor never exceeds 0.5.
type snapshot struct {
	table []CacheEntry // zero-value Path == "" marks an empty slot
	mask  uint64
	count int
}

func buildSnapshot(entries []CacheEntry) (*snapshot, error) {
	count := len(entries)
	if count > maxCacheElements {
		return nil, fmt.Errorf("cache: %d files exceeds maximum cache capacity %d", count, maxCacheElements)
	}
	capacity := uint64(1)
	for capacity <= uint64(count) {
		capacity <<= 1
	}
	s := &snapshot{
		table: make([]CacheEntry, capacity),
		mask:  capacity - 1,
		count: count,
	}
	for _, e := range entries {
		s.insert(e)
	}
	return s, nil
}

// insert places e in the table using linear probing, replacing any prior
// entry with the same Path (observable only during a build, never once a
// snapshot is published).
func (s *snapshot) insert(e CacheEntry) {
	index := e.Hash & s.mask
	for {
		if s.table[index].Path == "" || s.table[index].Path == e.Path {
			s.table[index] = e
			return
		}
		index = (index + 1) & s.mask
	}
}

// find probes linearly starting at hash&mask, stopping at the first empty
// slot (miss) or a path match (hit), and guards against wraparound on a
// completely full table.
func (s *snapshot) find(path string) (CacheEntry, bool) {
	if s == nil || len(s.table) == 0 {
		return CacheEntry{}, false
	}
	h := hashPath(path)
	index := h & s.mask
	origin := index
	for {
		e := &s.table[index]
		if e.Path == "" {
			return CacheEntry{}, false
		}
		if e.Path == path {
			return *e, true
		}
		index = (index + 1) & s.mask
		if index == origin {
			return CacheEntry{}, false
		}
	}
}

// entryBufPool recycles the byte slices Find copies entry bodies into,
// sized for the common case of small static assets. Put is bounded by
// entryBufPoolMaxCap so one huge file doesn't pin a huge buffer forever.
var entryBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 4096)
		return &buf
	},
}

const entryBufPoolMaxCap = 1 << 20

// Cache is the thread-safe, snapshot-swappable content cache. find() takes
// the read lock only long enough to copy an entry out; Load() builds the
// replacement snapshot with no lock held, then swaps the pointer under the
// write lock.
type Cache struct {
	mu     sync.RWMutex
	snap   *snapshot
	logger *Logger
}

func NewCache(logger *Logger) *Cache {
	return &Cache{logger: logger}
}

// Load walks rootPath recursively, builds a new snapshot, and atomically
// publishes it. On any failure the previously published snapshot (if any)
// is left untouched.
func (c *Cache) Load(rootPath string) error {
	c.logger.Infof("loading cache from %s", rootPath)
	root := filepath.Clean(rootPath)
	var entries []CacheEntry
	if err := walkDir(root, root, &entries); err != nil {
		return err
	}
	c.logger.Debugf("caching %d files", len(entries))
	if len(entries) == 0 {
		return fmt.Errorf("cache: no files found under %s", root)
	}
	snap, err := buildSnapshot(entries)
	if err != nil {
		c.logger.Errorf("%v", err)
		return err
	}
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return nil
}

// Find returns a caller-owned copy of the entry for path, or (zero, false)
// if no such entry is published. The copy remains valid after a concurrent
// Load replaces the snapshot it was read from. The copy's backing buffer
// comes from entryBufPool; callers that are done with the entry within the
// same request (the common case -- see dispatcher.go) should hand it back
// via Release to avoid a fresh allocation on the next lookup.
func (c *Cache) Find(path string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.snap.find(path)
	if !ok {
		return CacheEntry{}, false
	}
	bufPtr := entryBufPool.Get().(*[]byte)
	body := append((*bufPtr)[:0], e.Bytes...)
	e.Bytes = body
	return e, true
}

// Release returns e's backing buffer to entryBufPool so a later Find can
// reuse it instead of allocating. Safe to call on any CacheEntry, including
// ones not obtained from Find (e.g. a synthesized error-page entry); it is
// simply a no-op-ish donation of that buffer to the pool in that case.
func (c *Cache) Release(e CacheEntry) {
	if e.Bytes == nil || cap(e.Bytes) > entryBufPoolMaxCap {
		return
	}
	buf := e.Bytes
	entryBufPool.Put(&buf)
}

// walkDir recursively collects file entries under dir, skipping any file or
// subdirectory whose name begins with '.'. Stored paths are the on-disk path
// with root stripped, so they begin with '/' and match what a client sends.
func walkDir(root, dir string, entries *[]CacheEntry) error {
	items, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cache: error opening directory %s: %w", dir, err)
	}
	for _, item := range items {
		name := item.Name()
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		full := filepath.Join(dir, name)
		if item.IsDir() {
			if err := walkDir(root, full, entries); err != nil {
				return err
			}
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return fmt.Errorf("cache: error reading file %s: %w", full, err)
		}
		rel := full[len(root):]
		if rel == "" || rel[0] != '/' {
			rel = "/" + rel
		}
		*entries = append(*entries, CacheEntry{
			Path:   rel,
			Hash:   hashPath(rel),
			Bytes:  data,
			Length: len(data),
			MIME:   mimeForPath(rel),
		})
	}
	return nil
}
