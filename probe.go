package slotdispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// Probe orchestrates one run of the two-thread scenario: it constructs the
// transmitting and receiving threads and workers, moves each worker to its
// thread, wires the startup/action/shutdown signals, runs the main loop on
// the calling goroutine, and returns the transcript.
//
// A Probe is single-shot; create a new one per run.
type Probe struct {
	// Prevent copying
	_ [0]func()

	variant    Variant
	iterations int
	interval   time.Duration
	mode       DeliveryMode
	logger     *logiface.Logger[logiface.Event]

	rec *Recorder
	ran atomic.Bool
}

// New creates a probe.
func New(opts ...Option) (*Probe, error) {
	cfg, err := resolveProbeOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Probe{
		variant:    cfg.variant,
		iterations: cfg.iterations,
		interval:   cfg.interval,
		mode:       cfg.mode,
		logger:     cfg.logger,
		rec:        NewRecorder(cfg.logger),
	}, nil
}

// Recorder returns the probe's transcript recorder, shared with both
// workers.
func (p *Probe) Recorder() *Recorder { return p.rec }

// Run executes the scenario, blocking until the shutdown cascade completes
// or ctx is cancelled. The calling goroutine serves as the process-wide
// main thread.
//
// Control flow: starting each worker thread triggers that worker's start
// slot; the transmitter loops, emitting ticks consumed by the receiver's
// tick slot; on completion the transmitter's Finished cascades into
// sequential teardown - transmitting thread, then receiving thread, then
// the main loop. No component is torn down before its upstream signals
// completion.
func (p *Probe) Run(ctx context.Context) (*Report, error) {
	if !p.ran.CompareAndSwap(false, true) {
		return nil, ErrProbeAlreadyRun
	}

	// Objects
	app := NewThread("main", WithThreadLogger(p.logger))

	txThread := NewThread("tx", WithThreadLogger(p.logger))
	p.debugThread(txThread)
	transmitter := NewTransmitter(p.rec, p.iterations, p.interval, p.logger)
	p.debugObject(transmitter.Ref())
	transmitter.MoveToThread(txThread)
	p.debugObject(transmitter.Ref())

	rxThread := NewThread("rx", WithThreadLogger(p.logger))
	p.debugThread(rxThread)
	receiver, err := newReceiver(p.variant, p.rec)
	if err != nil {
		return nil, err
	}
	p.debugObject(receiver.Ref())
	if p.mode == DeliverToConnectTimeOwner {
		// Snapshot affinity before the move: the stale resolution shape the
		// historical bug produced, where deliveries ignored the reassigned
		// owner. With no affinity yet, deliveries degrade to inline
		// execution on the emitting thread.
		transmitter.Transmit.Connect(receiver.Ref(), receiver.OnTick, p.mode)
	}
	receiver.Ref().MoveToThread(rxThread)
	p.debugObject(receiver.Ref())

	// Signals: startup
	txThread.Started().Connect(transmitter.Ref(), transmitter.Start)
	rxThread.Started().Connect(receiver.Ref(), receiver.OnStart)
	// ... shutdown
	transmitter.Finished.ConnectFunc(txThread.Quit)
	txThread.Finished().ConnectFunc(rxThread.Quit)
	rxThread.Finished().ConnectFunc(app.Quit)
	// ... action
	if p.mode == DeliverToCurrentOwner {
		transmitter.Transmit.Connect(receiver.Ref(), receiver.OnTick, p.mode)
	}

	// Go
	if err := rxThread.Start(); err != nil {
		return nil, err
	}
	if err := txThread.Start(); err != nil {
		return nil, err
	}
	p.rec.Report("Starting app")
	if err := app.Run(ctx); err != nil && !errors.Is(err, ErrThreadTerminated) {
		// ErrThreadTerminated means the cascade quit the main thread before
		// Run picked it up, which is a clean finish.
		return nil, err
	}

	if err := txThread.Join(ctx); err != nil {
		return nil, err
	}
	if err := rxThread.Join(ctx); err != nil {
		return nil, err
	}

	return &Report{
		Variant:    p.variant,
		Iterations: p.iterations,
		TxThreadID: txThread.ThreadID(),
		RxThreadID: rxThread.ThreadID(),
		Entries:    p.rec.Entries(),
	}, nil
}

// debugThread dumps a thread's identity, before it has started.
func (p *Probe) debugThread(t *Thread) {
	p.logger.Debug().
		Str("thread", t.Name()).
		Uint64("handle", t.Handle()).
		Log("thread created")
}

// debugObject dumps an object's identity and current affinity; called
// before and after each MoveToThread.
func (p *Probe) debugObject(o *Object) {
	p.logger.Debug().
		Stringer("object", o).
		Call(func(b *logiface.Builder[logiface.Event]) {
			if th := o.Thread(); th != nil {
				b.Str("thread", th.Name()).Uint64("handle", th.Handle())
			} else {
				b.Str("thread", "none")
			}
		}).
		Log("object affinity")
}
