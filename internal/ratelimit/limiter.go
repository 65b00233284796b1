package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter bounds how often a keyed operation may run inside a trailing
// window. Keys are built by callers as "{operation}:{identity}" so attempts
// against different operations for the same identity are tracked separately.
type Limiter interface {
	// Allow reports whether one more event for key fits inside the window.
	// A denied event is not recorded.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

const (
	// DefaultLimit and DefaultWindow are shared by every sensitive auth
	// operation: register, login, send-code, verify and reset.
	DefaultLimit  = 5
	DefaultWindow = 60 * time.Second
)

// SlidingWindow is an in-memory Limiter keeping one timestamp log per key.
// State is process-local and volatile; a restart clears every bucket. Safe
// for concurrent use.
type SlidingWindow struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

func NewSlidingWindow() *SlidingWindow {
	return &SlidingWindow{
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (l *SlidingWindow) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}

	now := l.now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.buckets[key]
	kept := bucket[:0]
	for _, t := range bucket {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		l.buckets[key] = kept
		return false, nil
	}

	l.buckets[key] = append(kept, now)
	return true, nil
}

// Sweep drops keys whose every recorded event is older than maxAge. Long-lived
// processes with high key cardinality should run this periodically; it changes
// memory use, not admission behavior.
func (l *SlidingWindow) Sweep(maxAge time.Duration) {
	cutoff := l.now().Add(-maxAge)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, bucket := range l.buckets {
		stale := true
		for _, t := range bucket {
			if t.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(l.buckets, key)
		}
	}
}

// StartSweeper runs Sweep every interval until ctx is done.
func (l *SlidingWindow) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep(maxAge)
			}
		}
	}()
}
