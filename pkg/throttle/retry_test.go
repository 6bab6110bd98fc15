package throttle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func testExecutor() (*Executor, *[]time.Duration) {
	l := NewLimiter(map[string]Limit{"svc": {Calls: 1000, Window: time.Minute}})
	e := NewExecutor(l)

	var delays []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return e, &delays
}

func noJitterPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   10 * time.Millisecond,
		Multiplier:  2,
		Jitter:      false,
		Classify:    DefaultClassifier,
	}
}

func TestExecute_SucceedsAfterRetryableFailures(t *testing.T) {
	e, delays := testExecutor()

	calls := 0
	err := e.Execute(context.Background(), "svc", noJitterPolicy(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Service: "svc", StatusCode: 503}
		}
		return nil
	})

	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("got %d calls, want 3", calls)
	}
	// maxAttempts-1 backoff delays, strictly increasing.
	if len(*delays) != 2 {
		t.Fatalf("got %d backoff delays, want 2", len(*delays))
	}
	if (*delays)[1] <= (*delays)[0] {
		t.Fatalf("delays not strictly increasing: %v", *delays)
	}
}

func TestExecute_FatalAbortsImmediately(t *testing.T) {
	e, delays := testExecutor()

	calls := 0
	fatal := &StatusError{Service: "svc", StatusCode: 401}
	err := e.Execute(context.Background(), "svc", noJitterPolicy(5), func(ctx context.Context) error {
		calls++
		return fatal
	})

	if !errors.Is(err, fatal) {
		t.Fatalf("got %v, want the fatal cause", err)
	}
	if calls != 1 {
		t.Fatalf("got %d calls, want 1", calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("fatal failure slept %d times", len(*delays))
	}
}

func TestExecute_RetriesExhausted(t *testing.T) {
	e, _ := testExecutor()

	cause := &StatusError{Service: "svc", StatusCode: 500}
	err := e.Execute(context.Background(), "svc", noJitterPolicy(3), func(ctx context.Context) error {
		return cause
	})

	var exhausted *RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %T, want RetriesExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("got %d attempts, want 3", exhausted.Attempts)
	}
	if !errors.Is(err, cause) {
		t.Fatal("exhausted error does not wrap the last cause")
	}
}

func TestExecute_ContextCancelledDuringBackoff(t *testing.T) {
	l := NewLimiter(map[string]Limit{"svc": {Calls: 1000, Window: time.Minute}})
	e := NewExecutor(l)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := e.Execute(ctx, "svc", noJitterPolicy(5), func(ctx context.Context) error {
		calls++
		cancel()
		return &StatusError{Service: "svc", StatusCode: 503}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("got %d calls, want 1", calls)
	}
}

func TestDefaultClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"429", &StatusError{StatusCode: 429}, Retryable},
		{"503", &StatusError{StatusCode: 503}, Retryable},
		{"408", &StatusError{StatusCode: 408}, Retryable},
		{"401", &StatusError{StatusCode: 401}, Fatal},
		{"400", &StatusError{StatusCode: 400}, Fatal},
		{"404", &StatusError{StatusCode: 404}, Fatal},
		{"wrapped 429", fmt.Errorf("fetch: %w", &StatusError{StatusCode: 429}), Retryable},
		{"cancelled", context.Canceled, Fatal},
		{"plain error", errors.New("connection reset"), Retryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultClassifier(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
