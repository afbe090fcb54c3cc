package slotdispatch

import (
	"context"
	"testing"
	"time"
)

// testTimeout bounds every blocking wait in the tests.
const testTimeout = 5 * time.Second

// startThread creates and starts a thread, registering cleanup that quits
// and joins it.
func startThread(t *testing.T, name string) *Thread {
	t.Helper()
	th := NewThread(name)
	if err := th.Start(); err != nil {
		t.Fatalf("failed to start thread %s: %v", name, err)
	}
	t.Cleanup(func() {
		th.Quit()
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		if err := th.Join(ctx); err != nil {
			t.Errorf("failed to join thread %s: %v", name, err)
		}
	})
	return th
}

// recv waits for a value with a timeout guard.
func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for channel")
		panic("unreachable")
	}
}

// drainUntil spins until fn returns true or the deadline passes.
func drainUntil(t *testing.T, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for !fn() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}
