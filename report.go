package slotdispatch

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// Handler implementation tags recorded with each delivery.
const (
	// ImplBase marks a delivery handled by the base implementation.
	ImplBase = "BASE"
	// ImplDerived marks a delivery handled by an overriding implementation.
	ImplDerived = "DERIVED"
)

// Entry is one transcript line: a message annotated with the identity of
// the goroutine/thread that produced it, in the manner of the classic
// repro's "<message> [<thread-id>]" console lines.
type Entry struct {
	// Seq is the entry's position in the transcript, assigned at record
	// time under a single lock, so it is a total order.
	Seq int
	// Message is the reported message.
	Message string
	// Impl is the handler implementation tag for tick deliveries
	// (ImplBase or ImplDerived), and empty for all other lines.
	Impl string
	// Count is the tick countdown value for deliveries, 0 otherwise.
	Count int
	// Payload is the tick payload for deliveries, nil otherwise.
	Payload []byte
	// ThreadID is the OS thread id (goroutine id on non-Linux platforms)
	// the entry was recorded on.
	ThreadID uint64
	// GoroutineID is the goroutine id the entry was recorded on.
	GoroutineID uint64
	// At is the record time.
	At time.Time
}

// Recorder accumulates transcript entries and mirrors them to a structured
// logger. It is safe for concurrent use; entries produced by different
// threads interleave in record order.
type Recorder struct {
	logger *logiface.Logger[logiface.Event]

	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates a recorder. logger may be nil, in which case entries
// are only accumulated.
func NewRecorder(logger *logiface.Logger[logiface.Event]) *Recorder {
	return &Recorder{logger: logger}
}

// Report records a plain transcript line, annotated with the caller's
// thread identity.
func (r *Recorder) Report(msg string) {
	r.record(Entry{Message: msg})
}

// ReportDelivery records a tick delivery line, annotated with the handler
// implementation that ran and the tick it received.
func (r *Recorder) ReportDelivery(msg, impl string, tick Tick) {
	r.record(Entry{
		Message: msg,
		Impl:    impl,
		Count:   tick.Count,
		Payload: append([]byte(nil), tick.Payload...),
	})
}

func (r *Recorder) record(e Entry) {
	e.ThreadID = currentOSThreadID()
	e.GoroutineID = getGoroutineID()
	e.At = time.Now()

	r.mu.Lock()
	e.Seq = len(r.entries)
	r.entries = append(r.entries, e)
	r.mu.Unlock()

	r.logger.Info().
		Uint64("tid", e.ThreadID).
		Uint64("gid", e.GoroutineID).
		Call(func(b *logiface.Builder[logiface.Event]) {
			if e.Impl != "" {
				b.Str("impl", e.Impl).Int("count", e.Count)
			}
		}).
		Log(e.Message)
}

// Entries returns a copy of the transcript so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Report is the outcome of one probe run: the full transcript plus the
// identities needed to check delivery affinity.
type Report struct {
	// Variant is the receiver variant the probe ran with.
	Variant Variant
	// Iterations is the transmitter's configured iteration count.
	Iterations int
	// TxThreadID is the transmitting thread's reported id.
	TxThreadID uint64
	// RxThreadID is the receiving thread's reported id: the thread the
	// receiver was moved to before anything started.
	RxThreadID uint64
	// Entries is the ordered transcript.
	Entries []Entry
}

// Deliveries returns the transcript entries that were tick deliveries.
func (r *Report) Deliveries() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Impl != "" {
			out = append(out, e)
		}
	}
	return out
}

// Verify checks the report against the properties the harness exists to
// probe:
//
//  1. exactly Iterations deliveries occurred, in emission (countdown) order
//  2. every delivery ran the implementation the variant's runtime type
//     selects (the override, for derived variants)
//  3. every delivery executed on the receiving thread - the thread the
//     receiver was moved to - not any thread its declared type or original
//     affinity might imply
//  4. every delivery's payload survived the cross-thread queue intact
//
// A stale-affinity delivery (the historical failure mode, reproducible via
// [DeliverToConnectTimeOwner]) is reported as a *VerifyError.
func (r *Report) Verify() error {
	deliveries := r.Deliveries()
	if len(deliveries) != r.Iterations {
		return &CountError{Got: len(deliveries), Want: r.Iterations}
	}

	wantImpl := r.Variant.wantImpl()
	wantCount := r.Iterations
	for _, e := range deliveries {
		if e.Impl != wantImpl {
			return &VerifyError{Entry: e, WantImpl: wantImpl, WantThreadID: r.RxThreadID}
		}
		if e.ThreadID != r.RxThreadID {
			return &VerifyError{Entry: e, WantImpl: wantImpl, WantThreadID: r.RxThreadID}
		}
		if e.Count != wantCount {
			return fmt.Errorf(
				"slotdispatch: delivery %d has count %d, want %d (out of order)",
				e.Seq, e.Count, wantCount,
			)
		}
		if want := tickPayload(e.Count); !bytes.Equal(e.Payload, want) {
			return fmt.Errorf(
				"slotdispatch: delivery %d payload %q, want %q",
				e.Seq, e.Payload, want,
			)
		}
		wantCount--
	}
	return nil
}
