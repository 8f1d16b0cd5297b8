package waypoint

import "fmt"

// ErrorScope indicates the nature and severity of an error raised by this
// package. Scopes are ordered from most to least severe; callers choose
// retry policy and logging verbosity by comparing scopes rather than
// matching on concrete error types.
//
// Pattern: Severity Ladder — lower values are more severe. ErrorScope
// values compare directly with `<`.
type ErrorScope int

const (
	// ScopeUnrecoverable indicates a programming error or an invariant
	// violation; the caller should log and drop, not retry.
	ScopeUnrecoverable ErrorScope = iota
	// ScopeSystem indicates the local system's state makes the operation
	// unviable right now.
	ScopeSystem
	// ScopeShutdown indicates the system is shutting down.
	ScopeShutdown
	// ScopeSession indicates the current session is no longer viable and
	// should be torn down.
	ScopeSession
	// ScopeBatch indicates a batch-scoped failure.
	ScopeBatch
	// ScopeMsg indicates a single-message-scoped failure.
	ScopeMsg
	// ScopeExternal indicates a failure attributable to an external system.
	ScopeExternal
	// ScopeRetryable indicates the operation may succeed if attempted again.
	ScopeRetryable
)

// String returns a human-readable name for the scope.
func (s ErrorScope) String() string {
	switch s {
	case ScopeUnrecoverable:
		return "unrecoverable"
	case ScopeSystem:
		return "system"
	case ScopeShutdown:
		return "shutdown"
	case ScopeSession:
		return "session"
	case ScopeBatch:
		return "batch"
	case ScopeMsg:
		return "msg"
	case ScopeExternal:
		return "external"
	case ScopeRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

// ScopedError is implemented by every error this package raises. It lets
// callers decide on retry/log behavior using [errors.As] instead of
// matching on concrete types.
//
// Pattern: Marker Interface — a single method lets callers branch with
// errors.As instead of matching on concrete types.
type ScopedError interface {
	error
	// Scope reports the error's severity scope.
	Scope() ErrorScope
}

// BadItemError is returned by a report (success/failure) call when the
// referenced item is unknown, or known under a different origin.
type BadItemError[Item any] struct {
	Item Item
}

func (e *BadItemError[Item]) Error() string {
	return fmt.Sprintf("waypoint: unknown or origin-mismatched item: %v", e.Item)
}

// Scope reports ScopeUnrecoverable: a bad report is a caller bug.
func (e *BadItemError[Item]) Scope() ErrorScope { return ScopeUnrecoverable }

// unrecoverableError is the concrete type backing the package's sentinel
// errors, all of which share ScopeUnrecoverable.
type unrecoverableError string

func (e unrecoverableError) Error() string     { return string(e) }
func (e unrecoverableError) Scope() ErrorScope { return ScopeUnrecoverable }

// Sentinel errors. All carry ScopeUnrecoverable: each indicates either a
// caller bug (Uninit, Empty) or a condition the scheduler cannot recover
// from internally (OutOfEpochs, NoValidItems, MutexPoison).
var (
	// ErrUninit is returned when a report call (Success, Failure,
	// SuccessByID, FailureByID) is made before the scheduler has ever
	// completed a refresh. Select in that state returns ErrEmpty.
	ErrUninit error = unrecoverableError("waypoint: scheduler has no valid items yet; call Refresh first")

	// ErrOutOfEpochs is returned when a refresh needs to advance the epoch
	// but the epoch iterator has been exhausted. This is fatal to the
	// scheduler instance.
	ErrOutOfEpochs error = unrecoverableError("waypoint: epoch sequence exhausted")

	// ErrNoValidItems is returned when a refresh's input, after policy
	// filtering, is empty.
	ErrNoValidItems error = unrecoverableError("waypoint: refresh produced no valid items after policy filtering")

	// ErrEmpty is returned by Select when the scheduler is Uninit, or the
	// record store holds no records.
	ErrEmpty error = unrecoverableError("waypoint: no items available to select")

	// ErrMutexPoison names a mutex left unusable by a panicking holder. No
	// function in this package returns it: Notify and SharedIDGen use
	// sync.Mutex, which has no poisoned state, and their methods return no
	// error.
	ErrMutexPoison error = unrecoverableError("waypoint: internal mutex poisoned by a panicking holder")
)
