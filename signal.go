package slotdispatch

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// ConnectionID uniquely identifies a signal connection for disconnection
// purposes. Go function values cannot be reliably compared for equality, so
// each connection is assigned a unique ID instead.
type ConnectionID uint64

// DeliveryMode selects the function used to resolve the target thread of a
// queued connection. It is the explicit, testable form of the affinity
// resolution that Qt performs implicitly from object metadata.
//
// DeliveryMode implements [ConnectOption], so it can be passed directly to
// Connect.
type DeliveryMode int

const (
	// DeliverToCurrentOwner resolves the receiver's owning thread at
	// delivery time, for every emission. This is the default, and the
	// correct behaviour: a receiver moved to thread T after construction
	// receives on T.
	DeliverToCurrentOwner DeliveryMode = iota

	// DeliverToConnectTimeOwner snapshots the receiver's owning thread when
	// the connection is made and delivers there forever after. If the
	// receiver is subsequently moved, deliveries land on the stale thread.
	// This mode exists so the historical failure mode has a reproducible,
	// detectable shape; it is never the right choice for real wiring.
	DeliverToConnectTimeOwner
)

// String returns a human-readable representation of the mode.
func (m DeliveryMode) String() string {
	switch m {
	case DeliverToCurrentOwner:
		return "current-owner"
	case DeliverToConnectTimeOwner:
		return "connect-time-owner"
	default:
		return "unknown"
	}
}

func (m DeliveryMode) applyConnect(o *connectOptions) { o.mode = m }

// ConnectOption configures a single signal connection.
type ConnectOption interface {
	applyConnect(*connectOptions)
}

type connectOptions struct {
	mode DeliveryMode
}

// connection pairs a slot with its receiver and resolved delivery target.
type connection[T any] struct {
	id       ConnectionID
	receiver *Object
	slot     func(T)
	// resolve returns the delivery thread for one emission. nil means a
	// direct connection: the slot runs inline on the emitting goroutine.
	resolve func() *Thread
}

// SignalOf is a payload-carrying signal with queued cross-thread delivery.
//
// Emitting enqueues one task per connection onto the thread selected by the
// connection's [DeliveryMode]; slots connected via Connect never execute
// inline on the emitting goroutine unless the receiver has no thread
// affinity at all. Per-connection delivery order is FIFO, provided by the
// target thread's queue.
//
// The zero value is not ready for use; signals are initialised by the type
// that owns them.
type SignalOf[T any] struct {
	// Prevent copying
	_ [0]func()

	emitter string
	name    string
	logger  *logiface.Logger[logiface.Event]

	mu     sync.Mutex
	conns  []connection[T]
	nextID ConnectionID
}

// NewSignalOf creates a standalone payload-carrying signal. emitter is a
// label used in emission traces; logger may be nil.
func NewSignalOf[T any](emitter, name string, logger *logiface.Logger[logiface.Event]) *SignalOf[T] {
	s := &SignalOf[T]{}
	s.init(emitter, name, logger)
	return s
}

func (s *SignalOf[T]) init(emitter, name string, logger *logiface.Logger[logiface.Event]) {
	s.emitter = emitter
	s.name = name
	s.logger = logger
	s.nextID = 1
}

// Connect registers a queued connection to the given receiver. The slot
// should be taken from the receiver's runtime type (e.g. bound through an
// interface value), so overrides dispatch correctly.
//
// Returns a ConnectionID usable with [SignalOf.Disconnect].
func (s *SignalOf[T]) Connect(receiver *Object, slot func(T), opts ...ConnectOption) ConnectionID {
	if slot == nil {
		return 0
	}

	var cfg connectOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyConnect(&cfg)
	}

	var resolve func() *Thread
	switch cfg.mode {
	case DeliverToConnectTimeOwner:
		// Affinity captured here, once. The whole point of the probe.
		snapshot := receiver.Thread()
		resolve = func() *Thread { return snapshot }
	default:
		resolve = receiver.Thread
	}

	return s.addConnection(connection[T]{
		receiver: receiver,
		slot:     slot,
		resolve:  resolve,
	})
}

// ConnectFunc registers a direct connection: the slot runs inline on
// whichever goroutine emits the signal. Intended for thread-safe control
// slots such as [Thread.Quit].
func (s *SignalOf[T]) ConnectFunc(slot func(T)) ConnectionID {
	if slot == nil {
		return 0
	}
	return s.addConnection(connection[T]{slot: slot})
}

func (s *SignalOf[T]) addConnection(c connection[T]) ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextID == 0 {
		s.nextID = 1
	}
	c.id = s.nextID
	s.nextID++
	s.conns = append(s.conns, c)
	return c.id
}

// Disconnect removes a connection by its ID, returning true if one was
// removed.
func (s *SignalOf[T]) Disconnect(id ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.conns {
		if c.id == id {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return true
		}
	}
	return false
}

// ConnectionCount returns the number of live connections.
func (s *SignalOf[T]) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Emit delivers the value to every connection. Queued connections are
// enqueued onto their resolved thread; direct connections run inline, in
// registration order.
//
// Delivery to a terminated thread is dropped, matching queued-connection
// semantics: there is no thread left to run the slot.
func (s *SignalOf[T]) Emit(v T) {
	s.mu.Lock()
	conns := make([]connection[T], len(s.conns))
	copy(conns, s.conns)
	s.mu.Unlock()

	s.logger.Debug().
		Str("emitter", s.emitter).
		Str("signal", s.name).
		Uint64("tid", currentOSThreadID()).
		Uint64("gid", getGoroutineID()).
		Int("connections", len(conns)).
		Log("emit")

	for _, c := range conns {
		if c.resolve == nil {
			c.slot(v)
			continue
		}
		target := c.resolve()
		if target == nil {
			// Receiver without affinity: nothing to queue onto.
			c.slot(v)
			continue
		}
		slot := c.slot
		if err := target.Submit(func() { slot(v) }); err != nil {
			s.logger.Warning().
				Str("emitter", s.emitter).
				Str("signal", s.name).
				Str("target", target.Name()).
				Err(err).
				Log("delivery dropped")
		}
	}
}

// Signal is a payload-free signal with queued cross-thread delivery. See
// [SignalOf] for semantics.
type Signal struct {
	s SignalOf[struct{}]
}

// NewSignal creates a standalone signal. emitter is a label used in
// emission traces; logger may be nil.
func NewSignal(emitter, name string, logger *logiface.Logger[logiface.Event]) *Signal {
	s := &Signal{}
	s.init(emitter, name, logger)
	return s
}

func (s *Signal) init(emitter, name string, logger *logiface.Logger[logiface.Event]) {
	s.s.init(emitter, name, logger)
}

// Connect registers a queued connection. See [SignalOf.Connect].
func (s *Signal) Connect(receiver *Object, slot func(), opts ...ConnectOption) ConnectionID {
	if slot == nil {
		return 0
	}
	return s.s.Connect(receiver, func(struct{}) { slot() }, opts...)
}

// ConnectFunc registers a direct connection. See [SignalOf.ConnectFunc].
func (s *Signal) ConnectFunc(slot func()) ConnectionID {
	if slot == nil {
		return 0
	}
	return s.s.ConnectFunc(func(struct{}) { slot() })
}

// Disconnect removes a connection by its ID.
func (s *Signal) Disconnect(id ConnectionID) bool { return s.s.Disconnect(id) }

// ConnectionCount returns the number of live connections.
func (s *Signal) ConnectionCount() int { return s.s.ConnectionCount() }

// Emit delivers the signal to every connection.
func (s *Signal) Emit() { s.s.Emit(struct{}{}) }
