package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setupLimiter(t testing.TB, limit int, window time.Duration) (*SlidingWindow, *time.Time) {
	t.Helper()

	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	l := NewSlidingWindow(limit, window)
	l.now = func() time.Time {
		return now
	}

	return l, &now
}

func TestSlidingWindow_Allow(t *testing.T) {
	t.Run("admits up to the limit and denies the next request", func(t *testing.T) {
		l, _ := setupLimiter(t, 10, time.Minute)

		for i := 0; i < 10; i++ {
			allowed, _ := l.Allow("1.2.3.4")
			assert.True(t, allowed, "request %d should be admitted", i+1)
		}

		allowed, retryAfter := l.Allow("1.2.3.4")

		assert.False(t, allowed)
		assert.Greater(t, retryAfter, time.Duration(0))
		assert.LessOrEqual(t, retryAfter, time.Minute)
	})

	t.Run("admits again once the window slides past old requests", func(t *testing.T) {
		l, now := setupLimiter(t, 10, time.Minute)

		for i := 0; i < 10; i++ {
			allowed, _ := l.Allow("1.2.3.4")
			assert.True(t, allowed)
		}

		allowed, _ := l.Allow("1.2.3.4")
		assert.False(t, allowed)

		*now = now.Add(time.Minute + time.Second)

		allowed, _ = l.Allow("1.2.3.4")
		assert.True(t, allowed)
	})

	t.Run("retry-after shrinks as the oldest request ages", func(t *testing.T) {
		l, now := setupLimiter(t, 1, time.Minute)

		allowed, _ := l.Allow("1.2.3.4")
		assert.True(t, allowed)

		*now = now.Add(45 * time.Second)

		allowed, retryAfter := l.Allow("1.2.3.4")
		assert.False(t, allowed)
		assert.Equal(t, 15*time.Second, retryAfter)
	})

	t.Run("keys are limited independently", func(t *testing.T) {
		l, _ := setupLimiter(t, 1, time.Minute)

		allowed, _ := l.Allow("1.2.3.4")
		assert.True(t, allowed)

		allowed, _ = l.Allow("1.2.3.4")
		assert.False(t, allowed)

		allowed, _ = l.Allow("5.6.7.8")
		assert.True(t, allowed)
	})

	t.Run("partial expiry frees slots gradually", func(t *testing.T) {
		l, now := setupLimiter(t, 2, time.Minute)

		allowed, _ := l.Allow("1.2.3.4")
		assert.True(t, allowed)

		*now = now.Add(30 * time.Second)

		allowed, _ = l.Allow("1.2.3.4")
		assert.True(t, allowed)

		allowed, _ = l.Allow("1.2.3.4")
		assert.False(t, allowed)

		*now = now.Add(31 * time.Second)

		allowed, _ = l.Allow("1.2.3.4")
		assert.True(t, allowed)
	})

	t.Run("reset drops all client state", func(t *testing.T) {
		l, _ := setupLimiter(t, 1, time.Minute)

		allowed, _ := l.Allow("1.2.3.4")
		assert.True(t, allowed)

		l.Reset()

		allowed, _ = l.Allow("1.2.3.4")
		assert.True(t, allowed)
	})

	t.Run("concurrent admits never exceed the limit", func(t *testing.T) {
		l := NewSlidingWindow(10, time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0

		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				if allowed, _ := l.Allow("1.2.3.4"); allowed {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, admitted)
	})
}
