package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

// DefaultMemorySize is the freecache arena size used when none is given.
const DefaultMemorySize = 8 * 1024 * 1024

// Clock reports the current time in unix seconds.
type Clock interface {
	Now() uint32
}

type systemClock struct{}

func (systemClock) Now() uint32 { return uint32(time.Now().Unix()) }

// MemoryStore keeps sessions in a process-local freecache arena.
type MemoryStore struct {
	cache *freecache.Cache
	clock Clock
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	size  int
	clock Clock
}

// WithMemorySize sets the arena size in bytes.
func WithMemorySize(size int) MemoryOption {
	return func(c *memoryConfig) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithClock replaces the wall clock used for expiry.
func WithClock(clock Clock) MemoryOption {
	return func(c *memoryConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewMemory builds a MemoryStore.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	cfg := memoryConfig{size: DefaultMemorySize, clock: systemClock{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		cache: freecache.NewCacheCustomTimer(cfg.size, cfg.clock),
		clock: cfg.clock,
	}
}

var _ portal.SessionStore = (*MemoryStore)(nil)

// Save stores session until its ExpiresAt. Expired sessions are dropped.
func (s *MemoryStore) Save(_ context.Context, session portal.Session) error {
	now := time.Unix(int64(s.clock.Now()), 0)
	ttl := remaining(session.ExpiresAt, now)
	if ttl == 0 {
		s.cache.Del([]byte(session.ID))
		return nil
	}
	raw, err := encode(session)
	if err != nil {
		return err
	}
	if err := s.cache.Set([]byte(session.ID), raw, int(ttl/time.Second)); err != nil {
		return fmt.Errorf("sessionstore: save %s: %w", session.ID, err)
	}
	return nil
}

// Load returns the session stored under id.
func (s *MemoryStore) Load(_ context.Context, id string) (portal.Session, error) {
	raw, err := s.cache.Get([]byte(id))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return portal.Session{}, portal.ErrSessionNotFound
		}
		return portal.Session{}, fmt.Errorf("sessionstore: load %s: %w", id, err)
	}
	return decode(id, raw)
}

// Delete removes the session stored under id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if !s.cache.Del([]byte(id)) {
		return portal.ErrSessionNotFound
	}
	return nil
}

// Len reports the number of stored sessions, expired entries included.
func (s *MemoryStore) Len() int64 {
	return s.cache.EntryCount()
}
