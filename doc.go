// Package slotdispatch is a harness for probing queued signal delivery
// affinity across threads of control, modelled on the classic Qt
// moveToThread scenario where a derived class overrides a slot inherited
// from a base class.
//
// # Architecture
//
// The package provides a deliberately small framework:
//
//   - [Thread]: a thread of control - a dedicated, OS-thread-locked
//     goroutine draining a FIFO task queue, with Started and Finished
//     signals and a Quit/Join lifecycle.
//   - [Object]: an affinity-carrying identity. Each object knows which
//     [Thread] currently owns it ([Object.MoveToThread], [Object.Thread]).
//   - [Signal] / [SignalOf]: queued signal delivery. Emitting a signal
//     enqueues one task per connection onto the thread selected by the
//     connection's delivery mode; slots never run inline on the emitting
//     goroutine.
//   - [Transmitter] and the [TickHandler] receiver hierarchy
//     ([BaseReceiver], [DerivedReceiver], and friends): the two workers of
//     the probe scenario.
//   - [Probe]: the orchestrator. It wires the workers to their threads,
//     runs the scenario, and returns a [Report] with the full delivery
//     transcript.
//
// # The property under test
//
// For a receiver whose runtime type overrides the tick slot, and which was
// moved to thread T after construction, every queued delivery must execute
// the override on T - not on whichever thread the declared (base) type
// might have implied. Target-thread selection is an explicit function here
// (see [DeliveryMode]): [DeliverToCurrentOwner] resolves the receiver's
// affinity at delivery time and is always correct, while
// [DeliverToConnectTimeOwner] snapshots affinity when the connection is
// made, reproducing the stale-affinity failure mode that the report
// verifier exists to detect.
//
// # Thread Safety
//
//   - [Thread.Submit] and [Thread.Quit] are safe to call from any goroutine
//   - [Object.MoveToThread] and [Object.Thread] are atomic
//   - Signal Connect/Emit are safe for concurrent use; slot execution is
//     serialised by the owning thread's queue
//
// # Usage
//
//	probe, err := slotdispatch.New(
//	    slotdispatch.WithVariant(slotdispatch.VariantDerived),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := probe.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := report.Verify(); err != nil {
//	    log.Fatal(err)
//	}
package slotdispatch
