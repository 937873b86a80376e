package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultMaxEntries bounds the in-process cache.
const DefaultMaxEntries = 10_000

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Memory is an in-process cache with a fixed time to live and a size bound.
type Memory struct {
	mu         sync.RWMutex
	data       map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemory returns an empty cache. A non-positive ttl keeps entries until the
// size bound evicts them.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		data:       make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. When the cache is full, expired entries are
// dropped first, then arbitrary ones.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	now := m.now()
	e := memoryEntry{value: value}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[key]; !exists && m.maxEntries > 0 && len(m.data) >= m.maxEntries {
		m.sweepLocked(now)
		for k := range m.data {
			if len(m.data) < m.maxEntries {
				break
			}
			delete(m.data, k)
		}
	}
	m.data[key] = e
	return nil
}

// Len reports the number of stored entries, expired ones not yet swept included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

func (m *Memory) sweepLocked(now time.Time) int {
	removed := 0
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
			removed++
		}
	}
	return removed
}

// Start runs Sweep every interval until Stop is called.
func (m *Memory) Start(interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					log.Debug().Int("removed", n).Msg("Expired cache entries swept")
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the background sweep.
func (m *Memory) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
