package slotdispatch

import "fmt"

// TickHandler is the receiving worker's capability: the slots the probe
// connects. Implementations form the Base/Derived hierarchy under test.
//
// Connections are made through a TickHandler value, so the method that runs
// is selected by the receiver's runtime type - the explicit rendition of
// virtual slot dispatch.
type TickHandler interface {
	// OnStart is the receiver's thread-started slot.
	OnStart()
	// OnTick is the tick slot.
	OnTick(Tick)
	// Ref returns the receiver's affinity-carrying Object, promoted from
	// the embedded [Object].
	Ref() *Object
}

// BaseReceiver is the base of the receiver hierarchy. It holds no state
// beyond the shared transcript recorder.
type BaseReceiver struct {
	Object
	rec *Recorder
}

// NewBaseReceiver creates a base receiver with no thread affinity.
func NewBaseReceiver(rec *Recorder) *BaseReceiver {
	return &BaseReceiver{Object: makeObject("receiver"), rec: rec}
}

// OnStart implements [TickHandler].
func (r *BaseReceiver) OnStart() {
	r.rec.Report("Starting receiver")
}

// OnTick implements [TickHandler] with the base behaviour.
func (r *BaseReceiver) OnTick(tick Tick) {
	r.rec.ReportDelivery("receive: BASE", ImplBase, tick)
}

// DerivedReceiver embeds BaseReceiver and overrides the tick slot: the
// configuration the Qt bug report was about.
type DerivedReceiver struct {
	BaseReceiver
}

// NewDerivedReceiver creates a derived receiver with no thread affinity.
func NewDerivedReceiver(rec *Recorder) *DerivedReceiver {
	return &DerivedReceiver{BaseReceiver: BaseReceiver{Object: makeObject("receiver"), rec: rec}}
}

// OnTick overrides the base tick slot.
func (r *DerivedReceiver) OnTick(tick Tick) {
	r.rec.ReportDelivery("receive: DERIVED", ImplDerived, tick)
}

// InheritedReceiver embeds BaseReceiver WITHOUT overriding anything, so the
// promoted base slot runs. The PySide repro probed this shape too (a
// subclass adding only a constructor).
type InheritedReceiver struct {
	BaseReceiver
}

// NewInheritedReceiver creates an inherited receiver with no thread
// affinity.
func NewInheritedReceiver(rec *Recorder) *InheritedReceiver {
	return &InheritedReceiver{BaseReceiver: BaseReceiver{Object: makeObject("receiver"), rec: rec}}
}

// tickRelay is the overridable half of the relay hierarchy.
type tickRelay interface {
	onReceive(Tick)
}

// RelayBase fixes the tick slot on the base and dispatches through an
// overridable relay method instead - the template-method workaround the
// PySide repro used. Embedding in Go does not give virtual dispatch, so the
// relay target is bound explicitly at construction.
type RelayBase struct {
	Object
	rec   *Recorder
	relay tickRelay
}

// NewRelayBase creates a relay-base receiver with no thread affinity.
func NewRelayBase(rec *Recorder) *RelayBase {
	r := &RelayBase{Object: makeObject("receiver"), rec: rec}
	r.relay = r
	return r
}

// OnStart implements [TickHandler].
func (r *RelayBase) OnStart() {
	r.rec.Report("Starting receiver")
}

// OnTick implements [TickHandler]. The slot itself never varies; behaviour
// varies through the relay target.
func (r *RelayBase) OnTick(tick Tick) {
	r.relay.onReceive(tick)
}

func (r *RelayBase) onReceive(tick Tick) {
	r.rec.ReportDelivery("on_receive: BASE", ImplBase, tick)
}

// RelayDerived overrides the relay method, not the slot.
type RelayDerived struct {
	RelayBase
}

// NewRelayDerived creates a relay-derived receiver with no thread affinity.
func NewRelayDerived(rec *Recorder) *RelayDerived {
	d := &RelayDerived{RelayBase: RelayBase{Object: makeObject("receiver"), rec: rec}}
	d.relay = d
	return d
}

func (r *RelayDerived) onReceive(tick Tick) {
	r.rec.ReportDelivery("on_receive: DERIVED", ImplDerived, tick)
}

// newReceiver constructs the receiver for the given variant.
func newReceiver(v Variant, rec *Recorder) (TickHandler, error) {
	switch v {
	case VariantBase:
		return NewBaseReceiver(rec), nil
	case VariantDerived:
		return NewDerivedReceiver(rec), nil
	case VariantInherited:
		return NewInheritedReceiver(rec), nil
	case VariantRelayBase:
		return NewRelayBase(rec), nil
	case VariantRelayDerived:
		return NewRelayDerived(rec), nil
	default:
		return nil, fmt.Errorf("slotdispatch: unknown variant %q", v)
	}
}
