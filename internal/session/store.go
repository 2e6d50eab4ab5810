package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the concurrency-safe arena of session Contexts. Turns on
// different sessions proceed in parallel; mutations to the same session are
// serialized by a per-session lock held for the whole read-modify-write, so
// append-then-trim and counter increments cannot interleave.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	log      zerolog.Logger
	now      func() time.Time
}

type entry struct {
	mu  sync.Mutex
	ctx *Context
}

// NewStore creates an empty session store.
func NewStore(log zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		log:      log,
		now:      time.Now,
	}
}

// GetOrCreate resolves the Context for id, creating it lazily. An empty id
// gets a fresh uuid. The (possibly generated) session id is returned.
func (s *Store) GetOrCreate(id string) string {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.RLock()
	_, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		s.Touch(id)
		return id
	}

	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = &entry{ctx: newContext(id, s.now())}
		s.log.Debug().Str("session", id).Msg("session created")
	}
	s.mu.Unlock()
	return id
}

// Touch refreshes the last-accessed timestamp for id, if present.
func (s *Store) Touch(id string) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.ctx.Touch(s.now())
	e.mu.Unlock()
}

// Update runs fn on the Context for id under its per-session lock. The
// Context is created if missing. fn must not retain the *Context beyond the
// call.
func (s *Store) Update(id string, fn func(*Context)) {
	id = s.GetOrCreate(id)

	s.mu.RLock()
	e := s.sessions[id]
	s.mu.RUnlock()
	if e == nil {
		// Evicted between GetOrCreate and here; recreate.
		s.GetOrCreate(id)
		s.mu.RLock()
		e = s.sessions[id]
		s.mu.RUnlock()
		if e == nil {
			return
		}
	}

	e.mu.Lock()
	fn(e.ctx)
	e.mu.Unlock()
}

// Snapshot returns a copy of the Context for id.
func (s *Store) Snapshot(id string) (Context, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Context{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx.snapshot(), true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Delete removes the Context for id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// SweepIdle removes every session idle for longer than maxIdle and returns
// how many were evicted.
func (s *Store) SweepIdle(maxIdle time.Duration) int {
	now := s.now()

	s.mu.RLock()
	var stale []string
	for id, e := range s.sessions {
		e.mu.Lock()
		idle := e.ctx.IdleFor(now)
		e.mu.Unlock()
		if idle > maxIdle {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	if len(stale) == 0 {
		return 0
	}

	s.mu.Lock()
	removed := 0
	for _, id := range stale {
		if e, ok := s.sessions[id]; ok {
			e.mu.Lock()
			stillStale := e.ctx.IdleFor(now) > maxIdle
			e.mu.Unlock()
			if stillStale {
				delete(s.sessions, id)
				removed++
			}
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("swept idle sessions")
	}
	return removed
}
