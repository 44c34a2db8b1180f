// Package session keeps independent calculator engines alive between
// requests. Each engine is owned by one session and only ever touched while
// that session's lock is held, so the engine itself stays single-threaded.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"go-chi-calculator/internal/engine"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrStoreFull = errors.New("session limit reached")
)

const (
	DefaultIdleTimeout = 30 * time.Minute
	DefaultMaxSessions = 10000
)

type entry struct {
	mu       sync.Mutex
	engine   *engine.Engine
	lastUsed time.Time
}

// Store maps session IDs to engines.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	idleTimeout time.Duration
	maxSessions int
	engineOpts  []engine.Option
	now         func() time.Time
}

type Option func(*Store)

// WithIdleTimeout sets how long a session may go unused before Sweep drops it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

func WithMaxSessions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithEngineOptions configures every engine the store creates.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Store) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:     make(map[string]*entry),
		idleTimeout: DefaultIdleTimeout,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session holding a fresh engine and returns its ID.
func (s *Store) Create() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxSessions {
		return "", ErrStoreFull
	}

	id := uuid.New().String()
	s.entries[id] = &entry{
		engine:   engine.New(s.engineOpts...),
		lastUsed: s.now(),
	}
	return id, nil
}

// Do runs fn with exclusive access to the session's engine.
func (s *Store) Do(id string, fn func(*engine.Engine) error) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastUsed = s.now()
	return fn(e.engine)
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep drops sessions idle since before now minus the idle timeout and
// returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()

		if idle {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is cancelled. onSweep,
// when non-nil, is told how many sessions each sweep removed.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep(s.now())
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

// Collector exposes the number of live sessions as a Prometheus gauge.
func (s *Store) Collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "calculator",
		Name:      "sessions_active",
		Help:      "Number of calculator sessions currently held in memory.",
	}, func() float64 {
		return float64(s.Len())
	})
}
