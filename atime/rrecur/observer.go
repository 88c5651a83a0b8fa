package rrecur

import (
	"sync"

	"github.com/google/uuid"
)

// ChangeListener is notified once per mutating operation on a Recurrence.
// Implementations should treat the callback as advisory and
// re-query the Recurrence for current state rather than inspecting rec
// during the callback for anything beyond identity.
type ChangeListener interface {
	RecurrenceChanged(rec *Recurrence)
}

// RegistrationHandle identifies a registered ChangeListener so it can
// de-register itself, including from within its own RecurrenceChanged
// callback.
type RegistrationHandle uuid.UUID

type observerSlot struct {
	id       uuid.UUID
	listener ChangeListener
}

// ObserverRegistry propagates mutations from a Recurrence to its external
// listeners. Registration is idempotent: registering the same listener
// twice yields a single notification per mutation, not two. De-registration
// tolerates unknown handles. The slot slice is traversed by index with
// null-tolerance so a listener may de-register itself mid-notification.
type ObserverRegistry struct {
	mu    sync.Mutex
	slots []observerSlot
}

// Register adds l to the registry, returning a handle usable with
// Deregister. If l is already registered, its existing handle is returned
// and no new slot is added.
func (o *ObserverRegistry) Register(l ChangeListener) RegistrationHandle {
	if l == nil {
		return RegistrationHandle{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, s := range o.slots {
		if s.listener != nil && listenersEqual(s.listener, l) {
			return RegistrationHandle(s.id)
		}
	}
	id := uuid.New()
	o.slots = append(o.slots, observerSlot{id: id, listener: l})
	return RegistrationHandle(id)
}

// Deregister removes the listener registered under h, if any. Unknown
// handles are silently ignored.
func (o *ObserverRegistry) Deregister(h RegistrationHandle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.slots {
		if o.slots[i].id == uuid.UUID(h) {
			o.slots[i].listener = nil
			return
		}
	}
}

// notify invokes RecurrenceChanged on every live listener, by index, so a
// listener nilling its own slot during the callback does not disturb the
// traversal of the others.
func (o *ObserverRegistry) notify(rec *Recurrence) {
	o.mu.Lock()
	slots := o.slots
	o.mu.Unlock()

	for i := 0; i < len(slots); i++ {
		if l := slots[i].listener; l != nil {
			l.RecurrenceChanged(rec)
		}
	}
}

// listenersEqual compares two listeners for identity, tolerating
// non-comparable underlying types (e.g. a listener backed by a slice or
// map field) by treating them as always distinct in that case.
func listenersEqual(a, b ChangeListener) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
