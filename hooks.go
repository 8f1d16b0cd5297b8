package waypoint

import "time"

// Hooks holds optional callback functions for scheduler lifecycle events.
// All fields are nil by default; callers set only the hooks they care
// about. Once constructed, a Hooks value must not be mutated — emit
// methods read the function fields without synchronisation, which is safe
// as long as the struct is read-only after initialisation and the
// Scheduler itself is only ever used by a single owner (see the
// concurrency note on [Scheduler]).
//
// Pattern: Observer — decouples scheduler event emission from consumers
// (logging, metrics) without the scheduler knowing about them.
type Hooks struct {
	// OnEpochAdvance fires whenever Refresh advances the epoch, after the
	// new epoch id has been assigned.
	OnEpochAdvance func(epoch uint64)
	// OnSelect fires after a successful Select, with the dense index chosen.
	OnSelect func(index int)
	// OnRetryRequested fires when Select finds nothing immediately usable
	// and returns a retry timestamp instead.
	OnRetryRequested func(at time.Time)
	// OnRetryArmed fires when a failure report arms a record's delay.
	OnRetryArmed func(index int, until time.Time)
	// OnSuccess fires when a success report clears a record's delay.
	OnSuccess func(index int)
	// OnFailure fires after a failure report has been recorded.
	OnFailure func(index int)
	// OnBadItem fires when a report targets an item unknown to the
	// scheduler, or known under a different origin.
	OnBadItem func()
	// OnDuplicateItem fires when a refresh's input contains the same item
	// more than once; only the first occurrence is kept.
	OnDuplicateItem func()
}

func (h *Hooks) emitEpochAdvance(epoch uint64) {
	if h != nil && h.OnEpochAdvance != nil {
		h.OnEpochAdvance(epoch)
	}
}

func (h *Hooks) emitSelect(index int) {
	if h != nil && h.OnSelect != nil {
		h.OnSelect(index)
	}
}

func (h *Hooks) emitRetryRequested(at time.Time) {
	if h != nil && h.OnRetryRequested != nil {
		h.OnRetryRequested(at)
	}
}

func (h *Hooks) emitRetryArmed(index int, until time.Time) {
	if h != nil && h.OnRetryArmed != nil {
		h.OnRetryArmed(index, until)
	}
}

func (h *Hooks) emitSuccess(index int) {
	if h != nil && h.OnSuccess != nil {
		h.OnSuccess(index)
	}
}

func (h *Hooks) emitFailure(index int) {
	if h != nil && h.OnFailure != nil {
		h.OnFailure(index)
	}
}

func (h *Hooks) emitBadItem() {
	if h != nil && h.OnBadItem != nil {
		h.OnBadItem()
	}
}

func (h *Hooks) emitDuplicateItem() {
	if h != nil && h.OnDuplicateItem != nil {
		h.OnDuplicateItem()
	}
}
