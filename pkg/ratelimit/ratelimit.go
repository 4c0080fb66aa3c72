// Package ratelimit is a fixed-window request limiter with an injected
// clock and an explicit sweep, so it can be tested without real timers.
package ratelimit

import (
	"sync"
	"time"
)

// Clock abstracts time.Now for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock is the production clock.
func RealClock() Clock { return realClock{} }

type window struct {
	start time.Time
	count int
}

// Limiter counts requests per key within a fixed window. Expired windows
// are dropped lazily on Allow and eagerly by Sweep.
type Limiter struct {
	mu      sync.Mutex
	clock   Clock
	limit   int
	period  time.Duration
	windows map[string]*window
}

func New(limit int, period time.Duration, clock Clock) *Limiter {
	if clock == nil {
		clock = RealClock()
	}
	return &Limiter{
		clock:   clock,
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
	}
}

// Allow reports whether the key may make another request now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Sweep removes expired windows. Called periodically by the cron manager
// instead of an implicit background timer.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, key)
		}
	}
}

// Len returns the number of tracked windows.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
