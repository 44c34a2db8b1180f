package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-chi-calculator/internal/engine"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCreateReturnsUUIDAndFreshEngine(t *testing.T) {
	s := NewStore()

	id, err := s.Create()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "session id should be a UUID")

	err = s.Do(id, func(e *engine.Engine) error {
		assert.Equal(t, "", e.Render())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewStore()
	a, err := s.Create()
	require.NoError(t, err)
	b, err := s.Create()
	require.NoError(t, err)

	require.NoError(t, s.Do(a, func(e *engine.Engine) error {
		e.Digit('1')
		return nil
	}))
	require.NoError(t, s.Do(b, func(e *engine.Engine) error {
		e.Digit('2')
		return nil
	}))

	require.NoError(t, s.Do(a, func(e *engine.Engine) error {
		assert.Equal(t, "1", e.Render())
		return nil
	}))
}

func TestDoUnknownSession(t *testing.T) {
	s := NewStore()

	err := s.Do("missing", func(*engine.Engine) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDoReturnsCallbackError(t *testing.T) {
	s := NewStore()
	id, err := s.Create()
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Do(id, func(*engine.Engine) error { return boom })
	assert.Equal(t, boom, err)
}

func TestCreateRespectsMaxSessions(t *testing.T) {
	s := NewStore(WithMaxSessions(2))

	for i := 0; i < 2; i++ {
		_, err := s.Create()
		require.NoError(t, err)
	}

	_, err := s.Create()
	assert.True(t, errors.Is(err, ErrStoreFull))
}

func TestDelete(t *testing.T) {
	s := NewStore()
	id, err := s.Create()
	require.NoError(t, err)

	assert.True(t, s.Delete(id))
	assert.False(t, s.Delete(id))
	assert.Equal(t, 0, s.Len())
}

func TestEngineOptionsApplyToNewSessions(t *testing.T) {
	s := NewStore(WithEngineOptions(engine.WithMaxLength(2)))
	id, err := s.Create()
	require.NoError(t, err)

	require.NoError(t, s.Do(id, func(e *engine.Engine) error {
		e.Digit('1')
		e.Digit('2')
		assert.Equal(t, "12", e.Digit('3'))
		return nil
	}))
}

func TestSweepDropsIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(WithIdleTimeout(10*time.Minute), WithClock(clock.Now))

	stale, err := s.Create()
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)

	fresh, err := s.Create()
	require.NoError(t, err)
	clock.Advance(6 * time.Minute)

	assert.Equal(t, 1, s.Sweep(clock.Now()))
	assert.True(t, errors.Is(s.Do(stale, func(*engine.Engine) error { return nil }), ErrNotFound))
	assert.NoError(t, s.Do(fresh, func(*engine.Engine) error { return nil }))
}

func TestDoRefreshesLastUsed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(WithIdleTimeout(10*time.Minute), WithClock(clock.Now))

	id, err := s.Create()
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	require.NoError(t, s.Do(id, func(*engine.Engine) error { return nil }))
	clock.Advance(9 * time.Minute)

	assert.Equal(t, 0, s.Sweep(clock.Now()))
	assert.Equal(t, 1, s.Len())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond, nil)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentAccessIsSerialisedPerSession(t *testing.T) {
	s := NewStore(WithEngineOptions(engine.WithMaxLength(64)))
	id, err := s.Create()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(id, func(e *engine.Engine) error {
				e.Digit('1')
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.Do(id, func(e *engine.Engine) error {
		assert.Len(t, e.Render(), 50)
		return nil
	}))
}

func TestCollectorReportsActiveSessions(t *testing.T) {
	s := NewStore()
	collector := s.Collector()

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(collector))

	_, err := s.Create()
	require.NoError(t, err)
	_, err = s.Create()
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector))
}
