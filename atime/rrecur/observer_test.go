package rrecur

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type selfDeregisteringListener struct {
	registry *ObserverRegistry
	handle   RegistrationHandle
	calls    int
}

func (l *selfDeregisteringListener) RecurrenceChanged(rec *Recurrence) {
	l.calls++
	l.registry.Deregister(l.handle)
}

func TestObserverRegistry_SelfDeregisterDuringNotify(t *testing.T) {
	var registry ObserverRegistry

	self := &selfDeregisteringListener{registry: &registry}
	self.handle = registry.Register(self)

	other := &countingListener{}
	registry.Register(other)

	registry.notify(nil)
	registry.notify(nil)

	assert.Equal(t, 1, self.calls, "self-deregistering listener should fire exactly once")
	assert.Equal(t, 2, other.calls, "unrelated listener must be unaffected by the first's deregistration")
}

func TestObserverRegistry_RegisterIsIdempotent(t *testing.T) {
	var registry ObserverRegistry
	l := &countingListener{}

	h1 := registry.Register(l)
	h2 := registry.Register(l)
	assert.Equal(t, h1, h2)
	assert.Len(t, registry.slots, 1)
}

func TestObserverRegistry_DeregisterUnknownHandleIsNoop(t *testing.T) {
	var registry ObserverRegistry
	registry.Deregister(RegistrationHandle{})
}

type countingListener struct{ calls int }

func (c *countingListener) RecurrenceChanged(*Recurrence) { c.calls++ }
