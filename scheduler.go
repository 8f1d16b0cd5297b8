package waypoint

import "time"

// SchedulerState is the tri-state lifecycle of a [Scheduler].
type SchedulerState int

const (
	// Uninit is the initial state: no refresh has yet supplied a valid item.
	Uninit SchedulerState = iota
	// Single means exactly one valid item survived the most recent refresh.
	Single
	// Multi means two or more valid items survived the most recent refresh.
	Multi
)

func (s SchedulerState) String() string {
	switch s {
	case Uninit:
		return "uninit"
	case Single:
		return "single"
	case Multi:
		return "multi"
	default:
		return "unknown"
	}
}

// EpochIterator supplies the monotone, possibly-finite sequence of epoch
// identifiers a [Scheduler] draws from. Next reports false once the
// sequence is exhausted.
type EpochIterator interface {
	Next() (epoch uint64, ok bool)
}

// epochSequence is an unbounded ascending [EpochIterator].
type epochSequence struct {
	gen *AscendingCount
}

// NewEpochSequence returns an [EpochIterator] that never runs out,
// yielding 0, 1, 2, ... in order.
func NewEpochSequence() EpochIterator {
	return &epochSequence{gen: NewAscendingCount()}
}

func (e *epochSequence) Next() (uint64, bool) {
	return e.gen.Next(), true
}

// Selection is the result of [Scheduler.Select]: either a usable item
// together with the dense ID that names it for this epoch, or a
// timestamp at which a subsequent select might succeed.
type Selection[Item, Origin any] struct {
	Outcome SelectOutcome
	Item    Item
	Origin  Origin
	ID      DenseItemID
	RetryAt time.Time
}

// EpochChange describes a refresh that altered the (item, origin) set: the
// new epoch, the full dense-ID-ordered table, and what was added/removed
// relative to the prior epoch.
type EpochChange[Item, Origin any] struct {
	Epoch   uint64
	Table   []Pair[Item, Origin]
	Added   []Pair[Item, Origin]
	Removed []Pair[Item, Origin]
}

// SchedulerConfig holds the optional collaborators a [Scheduler] accepts
// beyond its required history factory, policy, retry calculator, and
// epoch iterator. The zero value uses [Hooks](nil) and [RealClock].
type SchedulerConfig struct {
	Hooks *Hooks
	Clock Clock
	// Name identifies this scheduler in a [SchedulerRegistry] and in
	// [SchedulerStatus] reports. Defaults to "scheduler" when empty.
	Name string
}

// Scheduler is an adaptive multi-target selector: given a
// dynamically-refreshed candidate set, it chooses the best currently-usable
// item, tracks per-item history, and arms retry delays after failures.
//
// Scheduler is a single-owner, non-thread-safe state machine; callers that
// share it across goroutines must serialise Refresh, Select, and the
// success/failure report methods behind a mutex.
type Scheduler[Item comparable, Origin comparable] struct {
	historyFactory HistoryFactory
	policy         Policy[Item]
	retry          RetryCalculator
	epochs         EpochIterator
	hooks          *Hooks
	clock          Clock
	name           string

	state  SchedulerState
	epoch  uint64
	latest time.Time

	single *record[Item, Origin]
	multi  *store[Item, Origin]
}

// NewScheduler constructs a Scheduler in the Uninit state, consuming one
// epoch id from epochs as the initial value. It fails with
// [ErrOutOfEpochs] if epochs is exhausted immediately.
func NewScheduler[Item comparable, Origin comparable](
	historyFactory HistoryFactory,
	policy Policy[Item],
	retry RetryCalculator,
	epochs EpochIterator,
	cfg SchedulerConfig,
) (*Scheduler[Item, Origin], error) {
	epoch, ok := epochs.Next()
	if !ok {
		return nil, ErrOutOfEpochs
	}

	clock := cfg.Clock
	if clock == nil {
		clock = RealClock{}
	}

	return &Scheduler[Item, Origin]{
		historyFactory: historyFactory,
		policy:         policy,
		retry:          retry,
		epochs:         epochs,
		hooks:          cfg.Hooks,
		clock:          clock,
		name:           cfg.Name,
		state:          Uninit,
		epoch:          epoch,
	}, nil
}

// State reports the scheduler's current lifecycle state.
func (s *Scheduler[Item, Origin]) State() SchedulerState { return s.state }

// Epoch reports the scheduler's current epoch identifier.
func (s *Scheduler[Item, Origin]) Epoch() uint64 { return s.epoch }

func (s *Scheduler[Item, Origin]) advanceEpoch() error {
	epoch, ok := s.epochs.Next()
	if !ok {
		return ErrOutOfEpochs
	}
	s.epoch = epoch
	s.hooks.emitEpochAdvance(epoch)
	return nil
}

// Refresh supplies a new candidate set and reconciles scheduler state
// against it. Refreshes must be strictly monotone in now; a refresh with
// now no later than the previous one is silently dropped (returns nil,
// nil), except from Uninit, which always accepts. Returns nil, nil when
// the (item, origin) set is unchanged from the previous epoch.
func (s *Scheduler[Item, Origin]) Refresh(now time.Time, pairs []Pair[Item, Origin]) (*EpochChange[Item, Origin], error) {
	if s.state != Uninit && !now.After(s.latest) {
		return nil, nil
	}

	filtered := make([]Pair[Item, Origin], 0, len(pairs))
	for _, p := range pairs {
		if s.policy.Check(p.Item) {
			filtered = append(filtered, p)
		}
	}

	if len(filtered) == 0 {
		return nil, ErrNoValidItems
	}

	var added, removed []Pair[Item, Origin]

	switch {
	case len(filtered) == 1:
		added, removed = s.refreshToSingle(now, filtered[0])
	default:
		added, removed = s.refreshToMulti(now, filtered)
	}

	s.latest = now

	if len(added) == 0 && len(removed) == 0 {
		return nil, nil
	}

	if err := s.advanceEpoch(); err != nil {
		return nil, err
	}

	return &EpochChange[Item, Origin]{
		Epoch:   s.epoch,
		Table:   s.table(),
		Added:   added,
		Removed: removed,
	}, nil
}

func (s *Scheduler[Item, Origin]) table() []Pair[Item, Origin] {
	switch s.state {
	case Single:
		return []Pair[Item, Origin]{{Item: s.single.item, Origin: s.single.origin}}
	case Multi:
		return s.multi.pairs()
	default:
		return nil
	}
}

func (s *Scheduler[Item, Origin]) refreshToSingle(now time.Time, p Pair[Item, Origin]) (added, removed []Pair[Item, Origin]) {
	switch s.state {
	case Uninit:
		s.single = &record[Item, Origin]{item: p.Item, origin: p.Origin, history: s.historyFactory(), lastUse: now}
		s.state = Single
		return []Pair[Item, Origin]{p}, nil

	case Single:
		if s.single.item == p.Item && s.single.origin == p.Origin {
			return nil, nil
		}
		prior := Pair[Item, Origin]{Item: s.single.item, Origin: s.single.origin}
		s.single = &record[Item, Origin]{item: p.Item, origin: p.Origin, history: s.historyFactory(), lastUse: now}
		return []Pair[Item, Origin]{p}, []Pair[Item, Origin]{prior}

	default: // Multi
		target, rest := s.multi.convertToSingle(p.Item, p.Origin)
		s.multi = nil
		s.state = Single
		if target != nil {
			s.single = target
			return nil, rest
		}
		s.single = &record[Item, Origin]{item: p.Item, origin: p.Origin, history: s.historyFactory(), lastUse: now}
		return []Pair[Item, Origin]{p}, rest
	}
}

func (s *Scheduler[Item, Origin]) refreshToMulti(now time.Time, pairs []Pair[Item, Origin]) (added, removed []Pair[Item, Origin]) {
	switch s.state {
	case Uninit:
		s.multi = newStore[Item, Origin](s.historyFactory, now, pairs, s.hooks)
		s.state = Multi
		return append([]Pair[Item, Origin](nil), s.multi.pairs()...), nil

	case Single:
		priorItem, priorRecord := s.single.item, s.single
		m, a, targetRemoved := fromSingle[Item, Origin](s.historyFactory, now, priorItem, priorRecord, pairs, s.hooks)
		s.multi = m
		s.single = nil
		s.state = Multi
		if targetRemoved {
			removed = []Pair[Item, Origin]{{Item: priorItem, Origin: priorRecord.origin}}
		}
		return a, removed

	default: // Multi
		return s.multi.update(now, pairs, s.hooks)
	}
}

// Success reports a successful use of (item, origin).
func (s *Scheduler[Item, Origin]) Success(item Item, origin Origin) error {
	switch s.state {
	case Uninit:
		return ErrUninit
	case Single:
		if s.single.item != item || s.single.origin != origin {
			s.hooks.emitBadItem()
			return &BadItemError[Item]{Item: item}
		}
		s.single.history.Success()
		s.single.delayUntil = nil
		s.hooks.emitSuccess(0)
		return nil
	default:
		if err := s.multi.recordSuccess(item, origin); err != nil {
			s.hooks.emitBadItem()
			return err
		}
		s.hooks.emitSuccess(s.multi.idMap[item])
		return nil
	}
}

// Failure reports a failed use of (item, origin), arming a retry delay.
func (s *Scheduler[Item, Origin]) Failure(item Item, origin Origin) error {
	switch s.state {
	case Uninit:
		return ErrUninit
	case Single:
		if s.single.item != item || s.single.origin != origin {
			s.hooks.emitBadItem()
			return &BadItemError[Item]{Item: item}
		}
		until := s.single.lastUse.Add(s.retry.Delay(s.single.history.NRetries()))
		s.single.delayUntil = &until
		s.single.history.Failure()
		s.hooks.emitFailure(0)
		s.hooks.emitRetryArmed(0, until)
		return nil
	default:
		if err := s.multi.recordFailure(s.retry, item, origin); err != nil {
			s.hooks.emitBadItem()
			return err
		}
		idx := s.multi.idMap[item]
		s.hooks.emitFailure(idx)
		if until := s.multi.entries[idx].delayUntil; until != nil {
			s.hooks.emitRetryArmed(idx, *until)
		}
		return nil
	}
}

// SuccessByID reports success against a previously-issued [DenseItemID].
// IDs from a prior epoch are silently ignored.
func (s *Scheduler[Item, Origin]) SuccessByID(id DenseItemID) error {
	if s.state == Uninit {
		return ErrUninit
	}
	if id.Epoch != s.epoch {
		return nil
	}
	if s.state == Single {
		s.single.history.Success()
		s.single.delayUntil = nil
		s.hooks.emitSuccess(0)
		return nil
	}
	s.multi.recordSuccessByID(id.Index)
	s.hooks.emitSuccess(id.Index)
	return nil
}

// FailureByID reports failure against a previously-issued [DenseItemID].
// IDs from a prior epoch are silently ignored.
func (s *Scheduler[Item, Origin]) FailureByID(id DenseItemID) error {
	if s.state == Uninit {
		return ErrUninit
	}
	if id.Epoch != s.epoch {
		return nil
	}
	if s.state == Single {
		until := s.single.lastUse.Add(s.retry.Delay(s.single.history.NRetries() + 1))
		s.single.delayUntil = &until
		s.single.history.Failure()
		s.hooks.emitFailure(0)
		s.hooks.emitRetryArmed(0, until)
		return nil
	}
	s.multi.recordFailureByID(s.retry, id.Index)
	s.hooks.emitFailure(id.Index)
	if id.Index >= 0 && id.Index < len(s.multi.entries) {
		if until := s.multi.entries[id.Index].delayUntil; until != nil {
			s.hooks.emitRetryArmed(id.Index, *until)
		}
	}
	return nil
}

// Select returns the best currently-usable item, or the earliest time a
// subsequent select might succeed.
func (s *Scheduler[Item, Origin]) Select() (Selection[Item, Origin], error) {
	now := s.clock.Now()

	switch s.state {
	case Uninit:
		var zero Selection[Item, Origin]
		return zero, ErrEmpty

	case Single:
		sel := s.selectSingle(now)
		s.emitSelectHooks(sel)
		return sel, nil

	default:
		res, err := s.multi.selectRecord(now, s.policy)
		if err != nil {
			var zero Selection[Item, Origin]
			return zero, err
		}
		sel := Selection[Item, Origin]{Outcome: res.Outcome, RetryAt: res.RetryAt}
		if res.Outcome == SelectSuccess {
			sel.Item = res.Item
			sel.Origin = res.Origin
			sel.ID = DenseItemID{Epoch: s.epoch, Index: res.Index}
		}
		s.emitSelectHooks(sel)
		return sel, nil
	}
}

func (s *Scheduler[Item, Origin]) selectSingle(now time.Time) Selection[Item, Origin] {
	r := s.single

	if r.delayUntil == nil {
		r.lastUse = now
		return Selection[Item, Origin]{
			Outcome: SelectSuccess,
			Item:    r.item,
			Origin:  r.origin,
			ID:      DenseItemID{Epoch: s.epoch, Index: 0},
		}
	}

	retryAt := *r.delayUntil
	if !retryAt.After(now) {
		r.delayUntil = nil
	}
	return Selection[Item, Origin]{Outcome: SelectRetry, RetryAt: retryAt}
}

func (s *Scheduler[Item, Origin]) emitSelectHooks(sel Selection[Item, Origin]) {
	if sel.Outcome == SelectSuccess {
		s.hooks.emitSelect(sel.ID.Index)
	} else {
		s.hooks.emitRetryRequested(sel.RetryAt)
	}
}
