package slotdispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObject_Identity(t *testing.T) {
	a := NewObject("a")
	b := NewObject("a")

	assert.Equal(t, "a", a.Name())
	assert.NotEqual(t, a.ID(), b.ID(), "objects must have distinct identities")
	assert.Contains(t, a.String(), "a(")
	assert.Contains(t, a.String(), a.ID().String())
}

func TestObject_MoveToThread(t *testing.T) {
	obj := NewObject("x")
	assert.Nil(t, obj.Thread())

	th := startThread(t, "worker")
	obj.MoveToThread(th)
	assert.Same(t, th, obj.Thread())

	obj.MoveToThread(nil)
	assert.Nil(t, obj.Thread())
}

func TestObject_RefPromotion(t *testing.T) {
	type worker struct {
		Object
	}
	w := &worker{Object: makeObject("worker")}
	assert.Same(t, &w.Object, w.Ref())
}
