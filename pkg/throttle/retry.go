package throttle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Class is the retry classification of a failure.
type Class int

const (
	Retryable Class = iota
	Fatal
)

// Classifier maps an underlying failure to Retryable or Fatal.
type Classifier func(error) Class

// StatusError carries an HTTP status through the retry boundary. The
// hand-rolled API clients wrap non-2xx responses in one of these so the
// classifier can tell throttling from broken requests.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
}

// DefaultClassifier: timeouts, connection errors, 429 and 5xx are
// retryable; any other HTTP status is fatal; context cancellation is
// fatal. Errors of unknown shape are treated as retryable, matching how
// transient network failures usually surface.
func DefaultClassifier(err error) Class {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == 429:
			return Retryable
		case se.StatusCode == 408:
			return Retryable
		case se.StatusCode >= 500:
			return Retryable
		default:
			return Fatal
		}
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return Retryable
	}

	return Retryable
}

// Policy controls one retried operation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Jitter      bool
	Classify    Classifier
}

// DefaultPolicy is 3 attempts, 500ms base, doubling, ±25% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
		Jitter:      true,
		Classify:    DefaultClassifier,
	}
}

// RetriesExhaustedError reports that every attempt failed retryably. The
// last underlying cause is wrapped.
type RetriesExhaustedError struct {
	Service  string
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("%s: retries exhausted after %d attempts: %v", e.Service, e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// Executor runs operations under a rate limiter with bounded exponential
// backoff. One executor serves all services concurrently; nothing is
// shared across calls except the limiter, so unrelated operations never
// block each other beyond their own service's ceiling.
type Executor struct {
	limiter *Limiter
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewExecutor(limiter *Limiter) *Executor {
	return &Executor{limiter: limiter, sleep: sleepCtx}
}

// Execute runs op under the service's rate limit, retrying per policy. A
// limiter grant is re-acquired before every attempt, including retries, so
// backoff never lets a caller jump the service's queue.
func (e *Executor) Execute(ctx context.Context, service string, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2
	}
	classify := p.Classify
	if classify == nil {
		classify = DefaultClassifier
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.Multiplier = p.Multiplier
	bo.MaxElapsedTime = 0
	if p.Jitter {
		bo.RandomizationFactor = 0.25
	} else {
		bo.RandomizationFactor = 0
	}
	bo.Reset()

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := e.limiter.Acquire(ctx, service); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		last = err

		if classify(err) == Fatal {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := e.sleep(ctx, bo.NextBackOff()); err != nil {
			return err
		}
	}

	return &RetriesExhaustedError{Service: service, Attempts: p.MaxAttempts, Last: last}
}
