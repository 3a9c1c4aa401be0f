package core

import (
	"context"
	"time"
)

var bootTime = time.Now()

// Delay suspends the calling task for d, returning ctx's error early if
// it is cancelled first. Tasks hold their own copy so tests can replace
// it; this is the default every task starts with.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 || ctx.Err() != nil {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DelayFunc is the signature of Delay, injected into every periodic task
type DelayFunc func(ctx context.Context, d time.Duration) error

// UptimeMillis returns milliseconds since boot
func UptimeMillis() uint32 {
	return uint32(time.Since(bootTime) / time.Millisecond)
}

// TimerInit records the boot time; call once from main
func TimerInit() {
	bootTime = time.Now()
}
