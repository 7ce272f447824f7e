// Package ratelimit implements a process-local fixed-window request
// limiter. Counters live in memory and reset when their window elapses;
// state is lost on restart and not shared between instances.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Error is returned by Consume when the caller is over quota. RetryAfter
// is the time until the key's window resets, rounded up to a full second.
type Error struct {
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// RetryAfterSeconds returns the retry delay in whole seconds, at least 1.
func (e *Error) RetryAfterSeconds() int {
	secs := int(e.RetryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

type window struct {
	count   int
	startAt time.Time
}

// Limiter tracks consumed points per key within a fixed duration window.
type Limiter struct {
	points   int
	duration time.Duration
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// New creates a limiter allowing points requests per key per duration.
func New(points int, duration time.Duration) *Limiter {
	return &Limiter{
		points:   points,
		duration: duration,
		now:      time.Now,
		windows:  make(map[string]*window),
	}
}

// Consume spends one point for key. It returns nil while the key is under
// quota and an *Error carrying the retry delay once the quota is spent.
func (l *Limiter) Consume(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= l.duration {
		w = &window{startAt: now}
		l.windows[key] = w
	}

	if w.count >= l.points {
		return &Error{RetryAfter: w.startAt.Add(l.duration).Sub(now)}
	}

	w.count++
	return nil
}

// Reset drops the counter for key. Used by tests and administrative
// tooling; expiry alone is enough in normal operation.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}
