package slotdispatch

import (
	"bytes"
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

const (
	defaultIterations = 3
	defaultInterval   = time.Second
)

// payloadSource feeds tick payloads. Payload slices are carved out of a
// fresh split on every call, so what crosses the thread boundary is always
// a transient value - the shape that historically surfaced
// garbage-collection bugs in queued payload delivery.
const payloadSource = "st uv wx"

// tickPayload returns the payload for the given countdown value.
func tickPayload(count int) []byte {
	fields := bytes.Fields([]byte(payloadSource))
	if count <= 0 {
		return fields[0]
	}
	return fields[(count-1)%len(fields)]
}

// Tick is the payload delivered with each transmit emission.
type Tick struct {
	// Count is the transmitter's countdown value at emission, from the
	// iteration count down to 1.
	Count int
	// Payload is an arbitrary byte payload; the receiver records it so
	// tests can assert it crossed the thread boundary intact.
	Payload []byte
}

// Transmitter is the producing worker: a fixed-count loop that pauses
// between iterations, emits Transmit each iteration, and emits Finished at
// the end. It holds no state beyond the loop itself.
type Transmitter struct {
	Object

	// Transmit fires once per iteration, carrying the [Tick].
	Transmit SignalOf[Tick]
	// Finished fires once, after the loop completes.
	Finished Signal

	iterations int
	interval   time.Duration
	rec        *Recorder
}

// NewTransmitter creates a transmitter with no thread affinity; move it to
// its thread before wiring.
func NewTransmitter(rec *Recorder, iterations int, interval time.Duration, logger *logiface.Logger[logiface.Event]) *Transmitter {
	tx := &Transmitter{
		Object:     makeObject("transmitter"),
		iterations: iterations,
		interval:   interval,
		rec:        rec,
	}
	tx.Transmit.init(tx.name, "transmit", logger)
	tx.Finished.init(tx.name, "finished", logger)
	return tx
}

// Start runs the transmit loop on the calling goroutine. Intended to be
// delivered via the owning thread's Started signal, so the loop blocks that
// thread - its only blocking operation is the fixed pause between
// emissions.
func (tx *Transmitter) Start() {
	tx.rec.Report("Starting transmitter")
	for count := tx.iterations; count > 0; count-- {
		time.Sleep(tx.interval)
		tx.rec.Report(fmt.Sprintf("transmitting, count=%d", count))
		tx.Transmit.Emit(Tick{Count: count, Payload: tickPayload(count)})
	}
	tx.rec.Report("Stopping transmitter")
	tx.Finished.Emit()
}
