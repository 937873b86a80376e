package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultID keys the single session of a stdio connection.
const DefaultID = "default"

// State is the per-session seed offsets. Each user session owns exactly one.
type State struct {
	mu       sync.Mutex
	offsets  map[Component]SeedOffset
	rng      *rand.Rand
	lastSeen time.Time
}

func newState(now time.Time) *State {
	return &State{
		offsets:  make(map[Component]SeedOffset),
		rng:      rand.New(rand.NewSource(now.UnixNano())),
		lastSeen: now,
	}
}

// Offset returns the current offset of a component.
func (s *State) Offset(c Component) SeedOffset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsets[c]
}

// Seed combines base with the component's offset. Unrelated parameter changes
// reuse the same offset, so they do not re-randomise the simulation.
func (s *State) Seed(c Component, base int64) SeedInfo {
	return s.Offset(c).Seed(base)
}

// Resimulate perturbs the component's offset and returns the new value.
func (s *State) Resimulate(c Component) SeedOffset {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.offsets[c].Resimulate(s.rng)
	s.offsets[c] = next
	return next
}

// Store holds the states of all live sessions. Sessions never share a State.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store that forgets sessions idle for longer than ttl.
// A non-positive ttl keeps sessions until Forget is called.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*State),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Get returns the session's state, creating it on first use.
func (s *Store) Get(id string) *State {
	if id == "" {
		id = DefaultID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.sessions[id]
	if !ok {
		st = newState(now)
		s.sessions[id] = st
		log.Debug().Str("session", id).Msg("Session state created")
	}
	st.mu.Lock()
	st.lastSeen = now
	st.mu.Unlock()
	return st
}

// Forget tears down a session's state.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, st := range s.sessions {
		st.mu.Lock()
		idle := now.Sub(st.lastSeen)
		st.mu.Unlock()
		if idle > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Start runs Sweep every interval until Stop is called.
func (s *Store) Start(interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Debug().Int("removed", n).Msg("Idle sessions swept")
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop ends the background sweep.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
