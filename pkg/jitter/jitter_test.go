package jitter

import (
	"context"
	"testing"
	"time"
)

func TestExponentialBackoffWithoutJitter(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second},
		{10, 5 * time.Second},
	}

	for _, tt := range tests {
		got := ExponentialBackoff(time.Second, 5*time.Second, tt.attempt, 0)
		if got != tt.want {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := ExponentialBackoff(time.Second, 5*time.Second, 1, DefaultJitter)
		if got < 2*time.Second || got > 3*time.Second {
			t.Fatalf("got %v, want in [2s, 3s]", got)
		}
	}
}

func TestDurationWithoutJitter(t *testing.T) {
	if got := Duration(time.Second, 0); got != time.Second {
		t.Fatalf("got %v, want 1s", got)
	}
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Hour); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPolicyDelay(t *testing.T) {
	p := NewPolicy(10*time.Millisecond, 25*time.Millisecond, 0)
	if got := p.Delay(0); got != 10*time.Millisecond {
		t.Errorf("Delay(0) = %v", got)
	}
	if got := p.Delay(2); got != 25*time.Millisecond {
		t.Errorf("Delay(2) = %v", got)
	}
}
