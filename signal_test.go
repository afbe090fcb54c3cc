package slotdispatch

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_QueuedDeliveryRunsOnOwnerThread(t *testing.T) {
	th := startThread(t, "rx")
	obj := NewObject("receiver")
	obj.MoveToThread(th)

	sig := NewSignalOf[int]("tx", "transmit", nil)
	type delivery struct {
		value int
		gid   uint64
	}
	ch := make(chan delivery, 1)
	sig.Connect(obj, func(v int) {
		ch <- delivery{value: v, gid: getGoroutineID()}
	})

	sig.Emit(42)

	got := recv(t, ch)
	assert.Equal(t, 42, got.value)
	assert.Equal(t, th.GoroutineID(), got.gid,
		"queued delivery must execute on the owning thread")
	assert.NotEqual(t, getGoroutineID(), got.gid)
}

func TestSignal_CurrentOwnerFollowsMove(t *testing.T) {
	th1 := startThread(t, "first")
	th2 := startThread(t, "second")

	obj := NewObject("receiver")
	obj.MoveToThread(th1)

	sig := NewSignal("tx", "transmit", nil)
	ch := make(chan uint64, 1)
	sig.Connect(obj, func() { ch <- getGoroutineID() })

	// The connection was made while th1 owned the object; delivery must
	// follow the object to th2 regardless.
	obj.MoveToThread(th2)
	sig.Emit()

	assert.Equal(t, th2.GoroutineID(), recv(t, ch))
}

func TestSignal_ConnectTimeOwnerIgnoresMove(t *testing.T) {
	th1 := startThread(t, "first")
	th2 := startThread(t, "second")

	obj := NewObject("receiver")
	obj.MoveToThread(th1)

	sig := NewSignal("tx", "transmit", nil)
	ch := make(chan uint64, 1)
	sig.Connect(obj, func() { ch <- getGoroutineID() }, DeliverToConnectTimeOwner)

	// The stale-affinity shape: the object moved, the delivery didn't.
	obj.MoveToThread(th2)
	sig.Emit()

	assert.Equal(t, th1.GoroutineID(), recv(t, ch),
		"connect-time mode must deliver to the snapshotted thread")
}

func TestSignal_DirectConnectionRunsInline(t *testing.T) {
	sig := NewSignal("tx", "finished", nil)

	var gid uint64
	sig.ConnectFunc(func() { gid = getGoroutineID() })
	sig.Emit()

	assert.Equal(t, getGoroutineID(), gid,
		"direct connection must run inline on the emitter")
}

func TestSignal_NoAffinityRunsInline(t *testing.T) {
	obj := NewObject("receiver") // never moved
	sig := NewSignalOf[string]("tx", "transmit", nil)

	var got string
	var gid uint64
	sig.Connect(obj, func(v string) {
		got = v
		gid = getGoroutineID()
	})
	sig.Emit("hello")

	assert.Equal(t, "hello", got)
	assert.Equal(t, getGoroutineID(), gid)
}

func TestSignal_FIFOPerConnection(t *testing.T) {
	th := startThread(t, "rx")
	obj := NewObject("receiver")
	obj.MoveToThread(th)

	sig := NewSignalOf[int]("tx", "transmit", nil)
	var mu sync.Mutex
	var got []int
	sig.Connect(obj, func(v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})

	const n = 50
	for i := 0; i < n; i++ {
		sig.Emit(i)
	}

	drainUntil(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == n
	})
	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		require.Equal(t, i, v, "deliveries out of order")
	}
}

func TestSignal_PayloadSurvivesTransientSource(t *testing.T) {
	th := startThread(t, "rx")
	obj := NewObject("receiver")
	obj.MoveToThread(th)

	sig := NewSignalOf[Tick]("tx", "transmit", nil)
	ch := make(chan Tick, 3)
	sig.Connect(obj, func(tick Tick) { ch <- tick })

	// Emit payloads carved out of freshly allocated splits, so the value
	// crossing the queue is always transient.
	for count := 3; count > 0; count-- {
		sig.Emit(Tick{Count: count, Payload: tickPayload(count)})
	}

	for count := 3; count > 0; count-- {
		tick := recv(t, ch)
		assert.Equal(t, count, tick.Count)
		assert.True(t, bytes.Equal(tickPayload(count), tick.Payload),
			"payload corrupted in transit: %q", tick.Payload)
	}
}

func TestSignal_MultipleConnections(t *testing.T) {
	th := startThread(t, "rx")
	a := NewObject("a")
	a.MoveToThread(th)
	b := NewObject("b")
	b.MoveToThread(th)

	sig := NewSignal("tx", "transmit", nil)
	ch := make(chan string, 2)
	sig.Connect(a, func() { ch <- "a" })
	sig.Connect(b, func() { ch <- "b" })
	sig.Emit()

	// Registration order is preserved on a shared target thread.
	assert.Equal(t, "a", recv(t, ch))
	assert.Equal(t, "b", recv(t, ch))
}

func TestSignal_Disconnect(t *testing.T) {
	sig := NewSignal("tx", "transmit", nil)

	var calls int
	id := sig.ConnectFunc(func() { calls++ })
	require.Equal(t, 1, sig.ConnectionCount())

	sig.Emit()
	assert.True(t, sig.Disconnect(id))
	assert.False(t, sig.Disconnect(id))
	sig.Emit()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, sig.ConnectionCount())
}

func TestSignal_NilSlotIgnored(t *testing.T) {
	sig := NewSignal("tx", "transmit", nil)
	assert.Equal(t, ConnectionID(0), sig.Connect(NewObject("x"), nil))
	assert.Equal(t, ConnectionID(0), sig.ConnectFunc(nil))
	assert.Equal(t, 0, sig.ConnectionCount())
	sig.Emit()
}

func TestSignal_DeliveryToTerminatedThreadDropped(t *testing.T) {
	th := NewThread("rx")
	require.NoError(t, th.Start())

	obj := NewObject("receiver")
	obj.MoveToThread(th)

	sig := NewSignal("tx", "transmit", nil)
	var called bool
	sig.Connect(obj, func() { called = true })

	th.Quit()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, th.Join(ctx))

	sig.Emit() // must not panic
	assert.False(t, called, "slot ran despite terminated target thread")
}

func TestDeliveryMode_String(t *testing.T) {
	assert.Equal(t, "current-owner", DeliverToCurrentOwner.String())
	assert.Equal(t, "connect-time-owner", DeliverToConnectTimeOwner.String())
	assert.Equal(t, "unknown", DeliveryMode(42).String())
}
