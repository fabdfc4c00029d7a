package scraper

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_IncreaseAndReset(t *testing.T) {
	rl := NewRateLimiter(10*time.Millisecond, 100*time.Millisecond, 2.0)

	if rl.CurrentDelay() != rl.BaseDelay() {
		t.Fatalf("fresh limiter: current %v != base %v", rl.CurrentDelay(), rl.BaseDelay())
	}

	rl.IncreaseDelay()
	if rl.CurrentDelay() <= rl.BaseDelay() {
		t.Errorf("after increase: current %v should exceed base %v", rl.CurrentDelay(), rl.BaseDelay())
	}

	rl.ResetDelay()
	if rl.CurrentDelay() != rl.BaseDelay() {
		t.Errorf("after reset: current %v != base %v", rl.CurrentDelay(), rl.BaseDelay())
	}

	// Reset must restore base regardless of how many increases preceded it.
	for i := 0; i < 5; i++ {
		rl.IncreaseDelay()
	}
	rl.ResetDelay()
	if rl.CurrentDelay() != rl.BaseDelay() {
		t.Errorf("after repeated increases and reset: current %v != base %v", rl.CurrentDelay(), rl.BaseDelay())
	}
}

func TestRateLimiter_CapsAtMax(t *testing.T) {
	rl := NewRateLimiter(10*time.Millisecond, 25*time.Millisecond, 2.0)

	for i := 0; i < 10; i++ {
		rl.IncreaseDelay()
	}
	if rl.CurrentDelay() != 25*time.Millisecond {
		t.Errorf("delay should cap at max: got %v, want 25ms", rl.CurrentDelay())
	}
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 2*time.Hour, 2.0)

	// Burn the initial token so the next wait would block for an hour.
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("first wait should be immediate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("wait with cancelled context should return an error")
	}
}
