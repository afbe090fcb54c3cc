package slotdispatch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Task is a unit of work executed on a [Thread].
type Task func()

var threadIDCounter atomic.Uint64

// Thread is a thread of control: a dedicated goroutine, locked to an OS
// thread, draining a FIFO task queue. It is the QThread analogue of this
// harness.
//
// A Thread is not the goroutine it runs on; it is a handle. Work reaches
// the thread via [Thread.Submit] (usually indirectly, through signal
// emission), and the thread reports its own lifecycle through the
// [Thread.Started] and [Thread.Finished] signals, both emitted from the
// thread's goroutine.
type Thread struct {
	// Prevent copying
	_ [0]func()

	name   string
	handle uint64

	state threadState

	// Task queue. A plain mutex-guarded slice: queue depth in this harness
	// is bounded by the probe's fixed iteration count, so a lock-free
	// structure would buy nothing.
	mu    sync.Mutex
	queue []Task

	// wake is a capacity-1 doorbell for the run loop.
	wake chan struct{}

	// ready is closed once the goroutine/thread identity fields are set,
	// strictly before the Started signal is emitted.
	ready chan struct{}

	// done is closed when the run loop has fully stopped.
	done chan struct{}

	goroutineID atomic.Uint64
	osThreadID  atomic.Uint64

	started  Signal
	finished Signal

	quitOnce sync.Once

	logger *logiface.Logger[logiface.Event]
}

// NewThread creates a new, unstarted thread of control.
func NewThread(name string, opts ...ThreadOption) *Thread {
	t := &Thread{
		name:   name,
		handle: threadIDCounter.Add(1),
		wake:   make(chan struct{}, 1),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyThread(t)
	}
	t.started.init(name, "started", t.logger)
	t.finished.init(name, "finished", t.logger)
	return t
}

// Name returns the thread's configured name.
func (t *Thread) Name() string { return t.name }

// Handle returns the thread's stable handle id, assigned at construction.
// Unlike the OS thread id it is valid before Start.
func (t *Thread) Handle() uint64 { return t.handle }

// Started returns the signal emitted from the thread's goroutine once it
// begins draining its queue. Connect worker entry points here.
func (t *Thread) Started() *Signal { return &t.started }

// Finished returns the signal emitted from the thread's goroutine after the
// final task has run. Connect downstream teardown here.
func (t *Thread) Finished() *Signal { return &t.finished }

// State returns the current thread state.
func (t *Thread) State() ThreadState { return t.state.Load() }

// Start spawns the thread's goroutine and returns immediately.
func (t *Thread) Start() error {
	if !t.state.TryTransition(StateNew, StateRunning) {
		if t.state.IsTerminal() {
			return ErrThreadTerminated
		}
		return ErrThreadAlreadyStarted
	}
	go t.run()
	return nil
}

// Run drains the queue on the calling goroutine, blocking until the thread
// stops or ctx is cancelled. This is how the probe turns the main goroutine
// into the process-wide "application" thread.
//
// If Quit raced ahead of Run (the shutdown cascade completed before the
// caller got here), Run returns ErrThreadTerminated.
func (t *Thread) Run(ctx context.Context) error {
	if t.isThreadGoroutine() {
		return ErrReentrantRun
	}
	if !t.state.TryTransition(StateNew, StateRunning) {
		if t.state.IsTerminal() {
			return ErrThreadTerminated
		}
		return ErrThreadAlreadyStarted
	}
	stop := context.AfterFunc(ctx, t.Quit)
	defer stop()
	t.run()
	return ctx.Err()
}

// run is the thread's goroutine body.
func (t *Thread) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	t.goroutineID.Store(getGoroutineID())
	t.osThreadID.Store(currentOSThreadID())
	close(t.ready)

	t.logger.Debug().
		Str("thread", t.name).
		Uint64("handle", t.handle).
		Uint64("tid", t.osThreadID.Load()).
		Uint64("gid", t.goroutineID.Load()).
		Log("thread running")

	t.started.Emit()

	for {
		task, ok := t.next()
		if !ok {
			break
		}
		t.safeExecute(task)
	}

	// Terminated must be visible before Finished fires: a Finished slot may
	// immediately tear down dependents.
	t.state.Store(StateTerminated)
	t.finished.Emit()
	close(t.done)
}

// next blocks until a task is available or termination is due.
func (t *Thread) next() (Task, bool) {
	for {
		t.mu.Lock()
		if len(t.queue) > 0 {
			task := t.queue[0]
			t.queue[0] = nil
			t.queue = t.queue[1:]
			t.mu.Unlock()
			return task, true
		}
		t.mu.Unlock()

		// Queue empty: exit only once Quit has been requested, so pending
		// work submitted before Quit always runs.
		if t.state.Load() == StateTerminating {
			return nil, false
		}

		<-t.wake
	}
}

// Submit enqueues a task for execution on the thread.
//
// State Policy during shutdown:
//   - StateTerminated: returns ErrThreadTerminated
//   - StateTerminating: ALLOWS submission (the queue drains before exit)
//   - StateNew/StateRunning: normal operation
func (t *Thread) Submit(task Task) error {
	if task == nil {
		return nil
	}
	if t.state.IsTerminal() {
		return ErrThreadTerminated
	}

	t.mu.Lock()
	t.queue = append(t.queue, task)
	t.mu.Unlock()

	t.signalWake()
	return nil
}

// Quit requests the thread stop once its queue is drained. It is safe to
// call from any goroutine, including the thread itself, and is idempotent.
//
// Quit before Start marks the thread terminated without ever spawning a
// goroutine.
func (t *Thread) Quit() {
	t.quitOnce.Do(func() {
		if t.state.TryTransition(StateNew, StateTerminated) {
			close(t.ready)
			close(t.done)
			return
		}
		t.state.TryTransition(StateRunning, StateTerminating)
		t.signalWake()
	})
}

// Join blocks until the thread has fully stopped, or ctx expires.
func (t *Thread) Join(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GoroutineID returns the goroutine id of the thread's goroutine, blocking
// until the thread has started. Returns 0 for a thread that was quit before
// it ever started.
func (t *Thread) GoroutineID() uint64 {
	<-t.ready
	return t.goroutineID.Load()
}

// ThreadID returns the executing OS thread id (on Linux) or the goroutine
// id (elsewhere), blocking until the thread has started. This is the
// identity reported in transcript lines.
func (t *Thread) ThreadID() uint64 {
	<-t.ready
	return t.osThreadID.Load()
}

// signalWake rings the run loop's doorbell without blocking.
func (t *Thread) signalWake() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// safeExecute executes a task with panic recovery.
func (t *Thread) safeExecute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Err().
				Str("thread", t.name).
				Any("panic", r).
				Log("task panicked")
		}
	}()
	task()
}

// isThreadGoroutine checks if the caller is the thread's own goroutine.
func (t *Thread) isThreadGoroutine() bool {
	select {
	case <-t.ready:
	default:
		return false
	}
	gid := t.goroutineID.Load()
	return gid != 0 && gid == getGoroutineID()
}

// getGoroutineID returns the current goroutine's id, parsed from the
// runtime stack header.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
