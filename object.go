package slotdispatch

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Object is an affinity-carrying identity: it knows which [Thread]
// currently owns it for scheduling purposes. Worker types embed Object so
// MoveToThread and Thread are promoted, mirroring QObject.
//
// Unlike Qt, affinity is an explicit, programmer-visible field rather than
// runtime metadata, so there is nothing for inheritance to resolve
// ambiguously.
type Object struct {
	id     uuid.UUID
	name   string
	thread atomic.Pointer[Thread]
}

// NewObject creates a named object with no thread affinity.
func NewObject(name string) *Object {
	o := makeObject(name)
	return &o
}

// makeObject initialises an Object value for embedding.
func makeObject(name string) Object {
	return Object{id: uuid.New(), name: name}
}

// ID returns the object's unique identity.
func (o *Object) ID() uuid.UUID { return o.id }

// Name returns the object's configured name.
func (o *Object) Name() string { return o.name }

// String implements fmt.Stringer, for identity dumps.
func (o *Object) String() string {
	return fmt.Sprintf("%s(%s)", o.name, o.id)
}

// MoveToThread reassigns the object's ownership-for-scheduling to the given
// thread. Queued deliveries resolved after this point land on t.
func (o *Object) MoveToThread(t *Thread) {
	o.thread.Store(t)
}

// Thread returns the thread that currently owns the object, or nil if it
// has never been moved.
func (o *Object) Thread() *Thread {
	return o.thread.Load()
}

// Ref returns the object itself. When Object is embedded, Ref is promoted,
// giving callers a *Object without naming the embedded field.
func (o *Object) Ref() *Object { return o }
