package retry

import (
	"context"
	"testing"
	"time"
)

func TestLinearBackoff(t *testing.T) {
	lb := &LinearBackoff{
		BaseDelay: 5 * time.Second,
		MaxDelay:  30 * time.Second,
		Increment: 5 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 15 * time.Second},
		{6, 30 * time.Second},
		{20, 30 * time.Second}, // capped
	}

	for _, tt := range tests {
		if got := lb.NextDelay(tt.attempt); got != tt.want {
			t.Errorf("NextDelay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestDefaultLinearBackoff(t *testing.T) {
	lb := DefaultLinearBackoff()

	if got := lb.NextDelay(1); got != 1*time.Second {
		t.Errorf("NextDelay(1) = %s, want 1s", got)
	}
	if got := lb.NextDelay(2); got != 2*time.Second {
		t.Errorf("NextDelay(2) = %s, want 2s", got)
	}
}

func TestExponentialBackoff(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{10, 10 * time.Second}, // capped
	}

	for _, tt := range tests {
		if got := eb.NextDelay(tt.attempt); got != tt.want {
			t.Errorf("NextDelay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoffJitterStaysBounded(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}

	for i := 0; i < 100; i++ {
		delay := eb.NextDelay(2)
		if delay < 1800*time.Millisecond || delay > 2200*time.Millisecond {
			t.Fatalf("jittered delay %s outside 10%% band around 2s", delay)
		}
	}
}

func TestConstantBackoff(t *testing.T) {
	cb := &ConstantBackoff{Delay: 3 * time.Second}

	for _, attempt := range []int{1, 2, 10} {
		if got := cb.NextDelay(attempt); got != 3*time.Second {
			t.Errorf("NextDelay(%d) = %s, want 3s", attempt, got)
		}
	}
	if got := cb.NextDelay(0); got != 0 {
		t.Errorf("NextDelay(0) = %s, want 0", got)
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("zero delay should return immediately: %v", err)
	}

	start := time.Now()
	if err := Wait(context.Background(), 20*time.Millisecond); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("wait returned after %s, want at least the delay", elapsed)
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Hour); err != context.Canceled {
		t.Errorf("expected cancellation, got %v", err)
	}
}
