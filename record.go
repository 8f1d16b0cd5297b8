package waypoint

import "time"

// Pair is an (item, origin) tuple: an item and the means by which it was
// obtained. Two records are considered the same only when both fields
// match.
type Pair[Item, Origin any] struct {
	Item   Item
	Origin Origin
}

// DenseItemID names a record by its position within a particular epoch's
// record array. IDs from a prior epoch are silently ignored (neither an
// error nor a successful attribution) once the epoch has advanced.
type DenseItemID struct {
	Epoch uint64
	Index int
}

// record is the per-item state owned by the scheduler: a History value,
// the timestamp of the most recent attempted selection, and an optional
// timestamp before which the record must not be selected.
type record[Item, Origin any] struct {
	item       Item
	origin     Origin
	history    History
	lastUse    time.Time
	delayUntil *time.Time
}

// SelectOutcome distinguishes the two non-error results of a selection.
type SelectOutcome int

const (
	// SelectSuccess indicates a usable item was chosen.
	SelectSuccess SelectOutcome = iota
	// SelectRetry indicates nothing is immediately usable; RetryAt names
	// the earliest time a subsequent select might succeed.
	SelectRetry
)

// SelectResult is the outcome of a selection: either a usable item with
// its dense index, or a retry timestamp.
type SelectResult[Item, Origin any] struct {
	Outcome SelectOutcome
	Item    Item
	Origin  Origin
	Index   int
	RetryAt time.Time
}
