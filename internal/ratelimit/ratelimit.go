// Package ratelimit implements a per-process sliding window rate limiter.
//
// The limiter keeps an ordered slice of request timestamps per client key
// and admits a request when fewer than limit timestamps fall within the
// trailing window. State is in-memory and best-effort: a restart resets
// all clients.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow limits requests per client key within a trailing window.
// It is safe for concurrent use.
type SlidingWindow struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[string][]time.Time
	now      func() time.Time
}

// NewSlidingWindow creates a limiter admitting at most limit requests
// per key within the given window.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:    limit,
		window:   window,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether a request from the given key is admitted.
// When denied, it returns the duration after which a retry can succeed,
// measured from the oldest request still inside the window.
func (l *SlidingWindow) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	timestamps := l.requests[key]

	validIdx := len(timestamps)
	for i, t := range timestamps {
		if t.After(windowStart) {
			validIdx = i
			break
		}
	}
	timestamps = timestamps[validIdx:]

	if len(timestamps) >= l.limit {
		l.requests[key] = timestamps
		retryAfter := l.window - now.Sub(timestamps[0])
		return false, retryAfter
	}

	l.requests[key] = append(timestamps, now)
	return true, 0
}

// Reset drops all recorded state for every client key.
func (l *SlidingWindow) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests = make(map[string][]time.Time)
}
