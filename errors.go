package slotdispatch

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrThreadAlreadyStarted is returned when Start() or Run() is called on
	// a thread that is already running.
	ErrThreadAlreadyStarted = errors.New("slotdispatch: thread is already running")

	// ErrThreadTerminated is returned when work is submitted to a thread
	// that has fully stopped.
	ErrThreadTerminated = errors.New("slotdispatch: thread has been terminated")

	// ErrReentrantRun is returned when Run() is called from the thread's own
	// goroutine.
	ErrReentrantRun = errors.New("slotdispatch: cannot call Run() from the thread itself")

	// ErrProbeAlreadyRun is returned when Run() is called twice on the same
	// Probe; a probe is a single-shot scenario.
	ErrProbeAlreadyRun = errors.New("slotdispatch: probe has already run")
)

// VerifyError describes a report verification failure: one or more
// deliveries resolved to the wrong handler implementation or the wrong
// thread of control.
type VerifyError struct {
	// Entry is the first offending transcript entry.
	Entry Entry
	// WantImpl is the expected handler implementation tag.
	WantImpl string
	// WantThreadID is the expected executing thread id.
	WantThreadID uint64
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	if e.Entry.Impl != e.WantImpl {
		return fmt.Sprintf(
			"slotdispatch: delivery %d ran %s implementation, want %s",
			e.Entry.Seq, e.Entry.Impl, e.WantImpl,
		)
	}
	return fmt.Sprintf(
		"slotdispatch: delivery %d ran on thread %d, want thread %d (stale affinity)",
		e.Entry.Seq, e.Entry.ThreadID, e.WantThreadID,
	)
}

// CountError describes a report verification failure where the number of
// deliveries does not match the transmitter's iteration count.
type CountError struct {
	Got  int
	Want int
}

// Error implements the error interface.
func (e *CountError) Error() string {
	return fmt.Sprintf("slotdispatch: got %d deliveries, want %d", e.Got, e.Want)
}
