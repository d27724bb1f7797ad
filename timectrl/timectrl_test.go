package timectrl

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFrameLoopRunsExactlyMaxFrames(t *testing.T) {
	loop := NewFrameLoop(0, Accelerated)
	var seen []uint64
	loop.AddListener(func(frame uint64) { seen = append(seen, frame) })

	if err := loop.Run(context.Background(), 25); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 25 || seen[0] != 1 || seen[24] != 25 {
		t.Fatalf("listener saw %d frames (%v...)", len(seen), seen[:min(3, len(seen))])
	}
	if loop.Frame() != 25 {
		t.Fatalf("Frame() = %d, want 25", loop.Frame())
	}
}

func TestFrameLoopListenersRunInOrder(t *testing.T) {
	loop := NewFrameLoop(0, Accelerated)
	var order []string
	loop.AddListener(func(uint64) { order = append(order, "step") })
	loop.AddListener(func(uint64) { order = append(order, "render") })

	if err := loop.Run(context.Background(), 2); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"step", "render", "step", "render"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestFrameLoopStartsOnce(t *testing.T) {
	loop := NewFrameLoop(0, Accelerated)
	if err := loop.Run(context.Background(), 1); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := loop.Run(context.Background(), 1); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Run err = %v, want ErrAlreadyStarted", err)
	}
}

func TestFrameLoopStopFlag(t *testing.T) {
	loop := NewFrameLoop(0, Accelerated)
	loop.AddListener(func(frame uint64) {
		if frame == 10 {
			loop.Stop()
		}
	})
	if err := loop.Run(context.Background(), 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loop.Frame() != 10 {
		t.Fatalf("Frame() = %d after Stop at 10", loop.Frame())
	}
}

func TestFrameLoopContextCancel(t *testing.T) {
	loop := NewFrameLoop(time.Millisecond, RealTime)
	ctx, cancel := context.WithCancel(context.Background())
	loop.AddListener(func(frame uint64) {
		if frame == 3 {
			cancel()
		}
	})

	select {
	case err := <-loop.Start(ctx, 0):
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
	if loop.Frame() != 3 {
		t.Fatalf("Frame() = %d, want 3", loop.Frame())
	}
}

func TestFrameLoopRealTimePacing(t *testing.T) {
	loop := NewFrameLoop(5*time.Millisecond, RealTime)
	start := time.Now()
	if err := <-loop.Start(context.Background(), 4); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("4 real-time frames took %v, want >= 15ms", elapsed)
	}
}

func TestIntervalForRate(t *testing.T) {
	if got := IntervalForRate(50); got != 20*time.Millisecond {
		t.Fatalf("IntervalForRate(50) = %v", got)
	}
	if got := IntervalForRate(0); got != IntervalForRate(DefaultFrameRate) {
		t.Fatalf("IntervalForRate(0) = %v", got)
	}
}
