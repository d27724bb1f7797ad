package timectrl

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyStarted is returned when a FrameLoop is run a second time.
var ErrAlreadyStarted = errors.New("frame loop already started")

// DefaultFrameRate approximates a display refresh rate.
const DefaultFrameRate = 60.0

// Mode describes how the FrameLoop paces frames.
type Mode int

const (
	// RealTime paces frames with a ticker at Interval.
	RealTime Mode = iota
	// Accelerated runs frames back to back without waiting.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// FrameLoop is the single scheduler that drives the animation. Every frame
// it calls its listeners synchronously, in registration order, on the loop
// goroutine. The loop can be started once; it ends when Stop is called, its
// context is cancelled, or maxFrames frames have run.
type FrameLoop struct {
	Interval time.Duration
	Mode     Mode

	mu        sync.Mutex
	listeners []func(frame uint64)

	frame   atomic.Uint64
	started atomic.Bool
	stop    atomic.Bool
}

// NewFrameLoop constructs a loop.
func NewFrameLoop(interval time.Duration, mode Mode) *FrameLoop {
	return &FrameLoop{Interval: interval, Mode: mode}
}

// IntervalForRate converts frames per second into a frame interval, falling
// back to DefaultFrameRate for non-positive rates.
func IntervalForRate(fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return time.Duration(float64(time.Second) / fps)
}

// Frame returns the number of completed frames.
func (l *FrameLoop) Frame() uint64 {
	return l.frame.Load()
}

// AddListener registers a callback invoked once per frame with the 1-based
// frame index.
func (l *FrameLoop) AddListener(fn func(frame uint64)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Stop asks the loop to finish after the current frame.
func (l *FrameLoop) Stop() {
	l.stop.Store(true)
}

// Run drives frames on the calling goroutine until stopped. maxFrames of
// zero means no limit. It returns ctx.Err() when cancelled and nil otherwise.
func (l *FrameLoop) Run(ctx context.Context, maxFrames uint64) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	l.mu.Lock()
	listeners := append([]func(uint64){}, l.listeners...)
	l.mu.Unlock()

	var tick <-chan time.Time
	if l.Mode == RealTime {
		interval := l.Interval
		if interval <= 0 {
			interval = IntervalForRate(DefaultFrameRate)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if l.stop.Load() {
			return nil
		}
		if maxFrames > 0 && l.frame.Load() >= maxFrames {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}

		n := l.frame.Add(1)
		for _, fn := range listeners {
			fn(n)
		}
	}
}

// Start runs the loop in a separate goroutine. The returned channel receives
// Run's result and is then closed.
func (l *FrameLoop) Start(ctx context.Context, maxFrames uint64) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- l.Run(ctx, maxFrames)
	}()
	return done
}
