package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limit is the per-operation budget: at most MaxRequests within Window.
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// Error is returned when a client address has exhausted its budget for an
// operation. RetryAfter tells the caller how long to back off.
type Error struct {
	Op         string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("too many %s requests, retry after %s", e.Op, e.RetryAfter)
}

// Limiter guards sensitive operations with a per-client-address budget.
// Each guarded operation is limited independently.
type Limiter interface {
	Allow(ctx context.Context, op, addr string) error
}

// MemoryLimiter is a process-wide sliding-window limiter. Counters live in
// memory only; a restart clears them, which is acceptable since the goal is
// slowing down abuse, not hard quota enforcement.
//
// It is shared by every concurrent request, so all map access happens under
// the mutex.
type MemoryLimiter struct {
	mu       sync.Mutex
	limits   map[string]Limit
	fallback Limit
	windows  map[string][]time.Time

	now func() time.Time
}

// NewMemoryLimiter creates a limiter with per-operation limits. Operations
// without an entry in limits fall back to fallback.
func NewMemoryLimiter(limits map[string]Limit, fallback Limit) *MemoryLimiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &MemoryLimiter{
		limits:   limits,
		fallback: fallback,
		windows:  make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) limit(op string) Limit {
	if lim, ok := l.limits[op]; ok {
		return lim
	}
	return l.fallback
}

// Allow records one request for (op, addr), or fails with *Error if the
// window is already full. Timestamps older than the window are purged first.
func (l *MemoryLimiter) Allow(_ context.Context, op, addr string) error {
	lim := l.limit(op)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-lim.Window)
	key := op + "|" + addr

	recent := l.windows[key][:0]
	for _, ts := range l.windows[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= lim.MaxRequests {
		l.windows[key] = recent
		return &Error{Op: op, RetryAfter: lim.Window}
	}

	l.windows[key] = append(recent, now)
	return nil
}
