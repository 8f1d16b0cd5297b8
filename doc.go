// Package waypoint implements an adaptive multi-target scheduler: given a
// dynamically-refreshed set of candidate items (e.g. resolved network
// endpoints), it chooses the best currently-usable one, tracks per-item
// success/failure history, and arms exponentially-growing retry delays
// after failures.
//
// The central type is [Scheduler], a single-owner, non-thread-safe state
// machine with three states — uninitialized, one item, or many — driven by
// [Scheduler.Refresh], [Scheduler.Select], and the success/failure report
// methods. Selections and reports are addressed either by (item, origin)
// pair or by a serializable [DenseItemID] that is automatically invalidated
// when the candidate set changes. Scheduler reports its health through
// [StatusReporter] for registration with a [SchedulerRegistry].
package waypoint
