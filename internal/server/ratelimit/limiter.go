// Package ratelimit provides a per-key token-bucket limiter used to throttle
// login and refresh attempts.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key (username). Buckets that have
// not been used for an hour are dropped by a cleanup goroutine.
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	limit   rate.Limit
	burst   int
	done    chan struct{}
	once    sync.Once
}

// NewKeyedLimiter allows perMinute events per key with the given burst.
// Values below 1 are clamped to 1 so misconfiguration cannot disable logins
// entirely or divide by zero.
func NewKeyedLimiter(perMinute, burst int) *KeyedLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	l := &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		done:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow reports whether an event for key may proceed now.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyedEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()

	return e.limiter.Allow()
}

// Close stops the cleanup goroutine.
func (l *KeyedLimiter) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *KeyedLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-time.Hour)
			l.mu.Lock()
			for key, e := range l.entries {
				if e.lastSeen.Before(cutoff) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
