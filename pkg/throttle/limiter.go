// Package throttle gates every outbound call the pipeline makes: a
// per-service rolling-window rate limiter and a retrying executor built on
// top of it. Collectors and the analysis gate share one Limiter so the
// realized call rate per external API never exceeds its configured ceiling.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limit is the ceiling for one service key: at most Calls grants per Window.
type Limit struct {
	Calls  int
	Window time.Duration
}

// DefaultLimits mirrors the published ceilings of the APIs the pipeline
// talks to.
var DefaultLimits = map[string]Limit{
	"sec":       {Calls: 10, Window: time.Second},
	"finnhub":   {Calls: 60, Window: time.Minute},
	"openai":    {Calls: 60, Window: time.Minute},
	"anthropic": {Calls: 60, Window: time.Minute},
}

// Limiter issues grants per service key, in arrival order, never exceeding
// the key's limit over any rolling window. Callers block in Acquire until a
// slot frees or their context is done. State is in-memory only; the budget
// is run-scoped by design.
type Limiter struct {
	mu     sync.Mutex
	limits map[string]Limit
	grants map[string][]time.Time   // timestamps of recent grants, oldest first
	tail   map[string]chan struct{} // closed when the most recent waiter is done
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewLimiter(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &Limiter{
		limits: limits,
		grants: make(map[string][]time.Time),
		tail:   make(map[string]chan struct{}),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Acquire blocks until the caller may make one call to the named service.
// Unknown keys are an error: every external service must have a declared
// ceiling.
func (l *Limiter) Acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	limit, ok := l.limits[key]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("throttle: no limit configured for service %q", key)
	}

	// FIFO: chain behind the previous waiter for this key.
	prev := l.tail[key]
	turn := make(chan struct{})
	l.tail[key] = turn
	l.mu.Unlock()

	if prev != nil {
		select {
		case <-ctx.Done():
			// Closing turn now would let our successor race the still
			// waiting predecessor. Hand the turn along only once the
			// predecessor is done.
			go func() {
				<-prev
				close(turn)
			}()
			return ctx.Err()
		case <-prev:
		}
	}

	// We hold the head of the queue; release the next waiter when we leave.
	defer close(turn)

	for {
		l.mu.Lock()
		wait := l.nextSlotWait(key, limit)
		if wait <= 0 {
			l.grants[key] = append(l.grants[key], l.now())
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// nextSlotWait prunes grants that left the window and reports how long
// until a slot frees. Caller holds the mutex.
func (l *Limiter) nextSlotWait(key string, limit Limit) time.Duration {
	now := l.now()
	cutoff := now.Add(-limit.Window)

	g := l.grants[key]
	i := 0
	for i < len(g) && !g[i].After(cutoff) {
		i++
	}
	g = g[i:]
	l.grants[key] = g

	if len(g) < limit.Calls {
		return 0
	}
	// The oldest remaining grant leaves the window first.
	return g[0].Add(limit.Window).Sub(now)
}
