package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTTL is how long a cached response stays valid.
	DefaultTTL = 4 * time.Hour

	// DefaultFlushDelay is the debounce window between a mutation and
	// the disk write that persists it.
	DefaultFlushDelay = 500 * time.Millisecond
)

// callRecord tracks when a response was stored. Records are only ever
// appended, so the slice stays ordered by StoredAt.
type callRecord struct {
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
}

// diskFormat is the persisted shape of the cache file.
type diskFormat struct {
	Calls     []callRecord               `json:"calls"`
	Responses map[string]json.RawMessage `json:"responses"`
}

// Cache is a durable key/value store of API responses with TTL
// eviction and debounced flush-to-disk. One Cache owns one file.
type Cache struct {
	path       string
	ttl        time.Duration
	flushDelay time.Duration
	logger     zerolog.Logger

	mu        sync.Mutex
	calls     []callRecord
	responses map[string]json.RawMessage

	// generation is bumped on every mutation; a scheduled flush only
	// commits if its captured generation is still current.
	generation atomic.Uint64
	dirty      bool

	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the eviction TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithFlushDelay overrides the flush debounce window.
func WithFlushDelay(delay time.Duration) Option {
	return func(c *Cache) {
		if delay >= 0 {
			c.flushDelay = delay
		}
	}
}

// withClock replaces the time source, for tests.
func withClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New loads the cache file at path, or starts empty when the file is
// missing or unreadable. A corrupt file is never fatal.
func New(path string, logger zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		path:       path,
		ttl:        DefaultTTL,
		flushDelay: DefaultFlushDelay,
		logger:     logger,
		responses:  make(map[string]json.RawMessage),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to read cache file, starting empty")
		}
		return c
	}

	var stored diskFormat
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to parse cache file, starting empty")
		return c
	}

	c.calls = stored.Calls
	if stored.Responses != nil {
		c.responses = stored.Responses
	}

	return c
}

// Get returns the cached response for key, if present and fresh.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictLocked()

	resp, ok := c.responses[key]
	return resp, ok
}

// Put stores a response under key and schedules a debounced flush.
// Storing an existing key refreshes its call record.
func (c *Cache) Put(key string, response json.RawMessage) {
	c.mu.Lock()

	c.evictLocked()

	if _, exists := c.responses[key]; exists {
		for i, call := range c.calls {
			if call.Key == key {
				c.calls = append(c.calls[:i], c.calls[i+1:]...)
				break
			}
		}
	}

	c.calls = append(c.calls, callRecord{Key: key, StoredAt: c.now()})
	c.responses[key] = response
	c.dirty = true

	gen := c.generation.Add(1)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	time.AfterFunc(c.flushDelay, func() {
		// A later Put supersedes this write; trust its timer instead.
		if c.generation.Load() != gen {
			return
		}
		if err := c.write(snapshot); err != nil {
			c.logger.Warn().Err(err).Str("path", c.path).Msg("Cache flush failed")
			return
		}
		c.mu.Lock()
		if c.generation.Load() == gen {
			c.dirty = false
		}
		c.mu.Unlock()
	})
}

// Flush synchronously persists any pending state, regardless of the
// debounce window. Called at shutdown so a fast exit loses nothing.
func (c *Cache) Flush() error {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	// Invalidate all scheduled timers; this write wins.
	c.generation.Add(1)
	snapshot := c.snapshotLocked()
	c.dirty = false
	c.mu.Unlock()

	return c.write(snapshot)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictLocked()
	return len(c.calls)
}

// evictLocked drops every call/response pair whose record is older
// than the TTL. The call list is append-ordered, so everything before
// the first fresh record is stale.
func (c *Cache) evictLocked() {
	if len(c.calls) == 0 {
		return
	}

	keepFrom := c.now().Add(-c.ttl)
	idx := len(c.calls)
	for i, call := range c.calls {
		if !call.StoredAt.Before(keepFrom) {
			idx = i
			break
		}
	}

	if idx == 0 {
		return
	}

	for _, call := range c.calls[:idx] {
		delete(c.responses, call.Key)
	}
	c.calls = c.calls[idx:]
	c.dirty = true
}

// snapshotLocked copies the current state for a flush.
func (c *Cache) snapshotLocked() diskFormat {
	snap := diskFormat{
		Calls:     make([]callRecord, len(c.calls)),
		Responses: make(map[string]json.RawMessage, len(c.responses)),
	}
	copy(snap.Calls, c.calls)
	for k, v := range c.responses {
		snap.Responses[k] = v
	}
	return snap
}

// write persists a snapshot atomically: temp sibling file, then rename.
func (c *Cache) write(snap diskFormat) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), c.path)
}
