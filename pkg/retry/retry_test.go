package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "github.com/JoshTKx/actress-webscraper/pkg/errors"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: 0},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return nil
	}, fastConfig(3))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1", attempts)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection reset", 0)
		}
		return nil
	}, fastConfig(5))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return errs.New(errs.ErrorTypeServerError, "still down", 503)
	}, fastConfig(3))

	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}

	var scrapeErr *errs.Error
	if !errors.As(err, &scrapeErr) {
		t.Error("original error should be wrapped")
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return errs.New(errs.ErrorTypeBotBlocked, "flagged", 403)
	}, fastConfig(5))

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1 for a non-retryable error", attempts)
	}
}

func TestDoCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig(5)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Hour}

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			attempts++
			cancel()
			return errs.New(errs.ErrorTypeNetwork, "flaky", 0)
		}, cfg)
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected cancellation error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not honor cancellation")
	}
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errs.New(errs.ErrorTypeRateLimit, "slow down", 429)
		}
		return "payload", nil
	}, fastConfig(3))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "payload" {
		t.Errorf("got %q, want %q", result, "payload")
	}
}

func TestDoOnRetryCallback(t *testing.T) {
	var retried []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	_ = Do(func() error {
		return errs.New(errs.ErrorTypeNetwork, "flaky", 0)
	}, cfg)

	if len(retried) != 3 {
		t.Errorf("OnRetry called %d times, want 3", len(retried))
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"network error", errs.New(errs.ErrorTypeNetwork, "", 0), true},
		{"rate limit", errs.New(errs.ErrorTypeRateLimit, "", 429), true},
		{"server error", errs.New(errs.ErrorTypeServerError, "", 500), true},
		{"bot blocked", errs.New(errs.ErrorTypeBotBlocked, "", 403), false},
		{"not found", errs.New(errs.ErrorTypeNotFound, "", 404), false},
		{"cancelled context", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"unknown error", errors.New("something else"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetrierBuilders(t *testing.T) {
	base := NewRetrier(fastConfig(1))
	bumped := base.WithMaxAttempts(4)

	attempts := 0
	_ = bumped.Do(func() error {
		attempts++
		return errs.New(errs.ErrorTypeNetwork, "flaky", 0)
	})
	if attempts != 4 {
		t.Errorf("got %d attempts, want 4", attempts)
	}

	// The original retrier keeps its own budget
	attempts = 0
	_ = base.Do(func() error {
		attempts++
		return errs.New(errs.ErrorTypeNetwork, "flaky", 0)
	})
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1", attempts)
	}
}
