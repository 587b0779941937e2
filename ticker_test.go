package batch

import (
	"context"
	"testing"
	"time"
)

func TestIntervalTickerRunsAndSkips(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	ticker := newIntervalTicker(20 * time.Millisecond)
	var calls int
	done := make(chan struct{})
	go func() {
		ticker.run(ctx, func() bool {
			calls++
			return calls%2 == 0 // alternate run/skip
		})
		close(done)
	}()

	<-ctx.Done()
	<-done

	if ticker.ticksRun.Load() == 0 {
		t.Fatalf("expected at least one run tick")
	}
	if ticker.ticksSkipped.Load() == 0 {
		t.Fatalf("expected at least one skipped tick")
	}
}

func TestIntervalTickerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := newIntervalTicker(10 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		ticker.run(ctx, func() bool { return true })
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected ticker loop to exit promptly after cancel")
	}
}
