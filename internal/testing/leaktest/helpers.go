// Package leaktest detects goroutines left running by pools, schedulers
// and event buses after a test finishes.
package leaktest

import (
	"runtime"
	"testing"
	"time"
)

const (
	settleDelay = 10 * time.Millisecond
	drainDelay  = 50 * time.Millisecond
	pollDelay   = 10 * time.Millisecond
)

// GoroutineChecker compares goroutine counts around a block of work
type GoroutineChecker struct {
	t      testing.TB
	before int
}

// NewGoroutineChecker records the current goroutine count
func NewGoroutineChecker(t testing.TB) *GoroutineChecker {
	t.Helper()
	runtime.Gosched()
	time.Sleep(settleDelay)
	return &GoroutineChecker{t: t, before: runtime.NumGoroutine()}
}

// Check fails the test when more than tolerance goroutines outlived the work.
// Stragglers get until drainDelay to exit.
func (g *GoroutineChecker) Check(tolerance int) {
	g.t.Helper()

	deadline := time.Now().Add(drainDelay)
	after := runtime.NumGoroutine()
	for after-g.before > tolerance && time.Now().Before(deadline) {
		runtime.Gosched()
		time.Sleep(pollDelay)
		after = runtime.NumGoroutine()
	}

	if leaked := after - g.before; leaked > tolerance {
		g.t.Errorf("goroutine leak: before=%d after=%d leaked=%d tolerance=%d", g.before, after, leaked, tolerance)
	}
}

// CheckNoGoroutineLeak runs fn and requires every goroutine it started to exit
func CheckNoGoroutineLeak(t testing.TB, fn func()) {
	t.Helper()
	checker := NewGoroutineChecker(t)
	fn()
	checker.Check(0)
}

// WaitForGoroutines blocks until the goroutine count drops to target
func WaitForGoroutines(t testing.TB, target int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		runtime.Gosched()
		if runtime.NumGoroutine() <= target {
			return
		}
		time.Sleep(pollDelay)
	}
	t.Errorf("timed out waiting for goroutines: current=%d target=%d", runtime.NumGoroutine(), target)
}
