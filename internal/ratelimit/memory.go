package ratelimit

import (
	"context"
	"sync"
	"time"

	"leadchat/src/logger"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps fixed windows in process memory. The table is bounded by
// maxKeys and cleaned by Sweep, so idle clients do not accumulate.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	maxKeys int
	now     func() time.Time
}

type Option func(*MemoryLimiter)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(m *MemoryLimiter) { m.now = now }
}

// WithMaxKeys caps the number of tracked clients
func WithMaxKeys(n int) Option {
	return func(m *MemoryLimiter) { m.maxKeys = n }
}

func NewMemoryLimiter(limit int, period time.Duration, opts ...Option) *MemoryLimiter {
	m := &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		maxKeys: 100_000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if !ok && len(m.windows) >= m.maxKeys {
			m.evictLocked(now)
		}
		w = &window{resetAt: now.Add(m.period)}
		m.windows[key] = w
	}
	w.count++

	return decide(w.count, m.limit, w.resetAt), nil
}

// evictLocked drops expired windows, and if the table is still full, the one closest to reset
func (m *MemoryLimiter) evictLocked(now time.Time) {
	m.sweepLocked(now)
	if len(m.windows) < m.maxKeys {
		return
	}

	var oldestKey string
	var oldest time.Time
	for k, w := range m.windows {
		if oldestKey == "" || w.resetAt.Before(oldest) {
			oldestKey, oldest = k, w.resetAt
		}
	}
	delete(m.windows, oldestKey)
}

// Sweep removes expired windows and returns how many were dropped
func (m *MemoryLimiter) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

func (m *MemoryLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// StartSweeper runs Sweep every interval until ctx is done
func (m *MemoryLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					logger.Debug().Int("removed", n).Msg("🧹 Rate limit windows swept")
				}
			}
		}
	}()
}
