package slotdispatch

import (
	"sync/atomic"
)

// ThreadState represents the current state of a [Thread].
//
// State Machine:
//
//	StateNew (0) → StateRunning (1)          [Start() / Run()]
//	StateRunning (1) → StateTerminating (2)  [Quit()]
//	StateTerminating (2) → StateTerminated (3) [queue drained]
//	StateNew (0) → StateTerminated (3)       [Quit() before start]
//	StateTerminated (3) → (terminal)
//
// State Transition Rules:
//   - Use TryTransition() (CAS) for contended transitions
//   - Use Store() only for the irreversible StateTerminated
type ThreadState uint64

const (
	// StateNew indicates the thread has been created but not started.
	StateNew ThreadState = 0
	// StateRunning indicates the thread is draining its task queue.
	StateRunning ThreadState = 1
	// StateTerminating indicates Quit was requested but the queue has not
	// finished draining.
	StateTerminating ThreadState = 2
	// StateTerminated indicates the thread has fully stopped.
	StateTerminated ThreadState = 3
)

// String returns a human-readable representation of the state.
func (s ThreadState) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateRunning:
		return "Running"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// threadState is a lock-free state machine over [ThreadState] values.
type threadState struct {
	v atomic.Uint64
}

// Load returns the current state atomically.
func (s *threadState) Load() ThreadState {
	return ThreadState(s.v.Load())
}

// Store atomically stores a new state. Reserved for irreversible states.
func (s *threadState) Store(state ThreadState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
// Returns true if the transition was successful.
func (s *threadState) TryTransition(from, to ThreadState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// IsTerminal returns true if the current state is terminal.
func (s *threadState) IsTerminal() bool {
	return s.Load() == StateTerminated
}
