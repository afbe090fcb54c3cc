package slotdispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiver_ImplementationTags(t *testing.T) {
	for _, tc := range []struct {
		variant  Variant
		wantMsg  string
		wantImpl string
	}{
		{VariantBase, "receive: BASE", ImplBase},
		{VariantDerived, "receive: DERIVED", ImplDerived},
		{VariantInherited, "receive: BASE", ImplBase},
		{VariantRelayBase, "on_receive: BASE", ImplBase},
		{VariantRelayDerived, "on_receive: DERIVED", ImplDerived},
	} {
		t.Run(string(tc.variant), func(t *testing.T) {
			rec := NewRecorder(nil)
			handler, err := newReceiver(tc.variant, rec)
			require.NoError(t, err)

			// Dispatch through the interface value, the way the probe wires
			// the connection, so the runtime type selects the method.
			handler.OnTick(Tick{Count: 1, Payload: tickPayload(1)})

			entries := rec.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, tc.wantMsg, entries[0].Message)
			assert.Equal(t, tc.wantImpl, entries[0].Impl)
			assert.Equal(t, 1, entries[0].Count)
		})
	}
}

func TestReceiver_OnStart(t *testing.T) {
	for _, v := range Variants() {
		t.Run(string(v), func(t *testing.T) {
			rec := NewRecorder(nil)
			handler, err := newReceiver(v, rec)
			require.NoError(t, err)

			handler.OnStart()

			entries := rec.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, "Starting receiver", entries[0].Message)
			assert.Empty(t, entries[0].Impl)
		})
	}
}

func TestReceiver_UnknownVariant(t *testing.T) {
	_, err := newReceiver(Variant("bogus"), NewRecorder(nil))
	assert.Error(t, err)
}

func TestReceiver_RefCarriesAffinity(t *testing.T) {
	th := startThread(t, "rx")

	for _, v := range Variants() {
		t.Run(string(v), func(t *testing.T) {
			handler, err := newReceiver(v, NewRecorder(nil))
			require.NoError(t, err)

			require.NotNil(t, handler.Ref())
			assert.Nil(t, handler.Ref().Thread(), "fresh receiver must have no affinity")

			handler.Ref().MoveToThread(th)
			assert.Same(t, th, handler.Ref().Thread())
		})
	}
}

func TestReceiver_RelayBindsRuntimeType(t *testing.T) {
	rec := NewRecorder(nil)

	// Calling the fixed slot on the base type of a derived value must still
	// reach the override, through the relay binding.
	d := NewRelayDerived(rec)
	d.RelayBase.OnTick(Tick{Count: 2})

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ImplDerived, entries[0].Impl)
}
