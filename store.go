package waypoint

import (
	"sort"
	"time"
)

// store is the Multi-state backing: it owns the per-item records, the
// item→index bijection, and a lazily-sorted preference order. It
// represents scheduler state only while two or more items are present;
// the Scheduler Facade converts to and from a bare [record] when the
// candidate set shrinks to or grows from exactly one entry.
type store[Item comparable, Origin comparable] struct {
	historyFactory HistoryFactory
	entries        []record[Item, Origin]
	idMap          map[Item]int
	order          []int
}

// newStore constructs a store from an ordered sequence of (item, origin)
// pairs. Duplicate items are discarded, keeping the first occurrence;
// hooks (if non-nil) is notified of each duplicate via OnDuplicateItem.
func newStore[Item comparable, Origin comparable](
	historyFactory HistoryFactory,
	now time.Time,
	pairs []Pair[Item, Origin],
	hooks *Hooks,
) *store[Item, Origin] {
	s := &store[Item, Origin]{
		historyFactory: historyFactory,
		idMap:          make(map[Item]int, len(pairs)),
	}

	for _, p := range pairs {
		if _, dup := s.idMap[p.Item]; dup {
			hooks.emitDuplicateItem()
			continue
		}

		idx := len(s.entries)
		s.entries = append(s.entries, record[Item, Origin]{
			item:    p.Item,
			origin:  p.Origin,
			history: historyFactory(),
			lastUse: now,
		})
		s.idMap[p.Item] = idx
	}

	s.order = make([]int, len(s.entries))
	for i := range s.order {
		s.order[i] = i
	}

	return s
}

// pairs returns the (item, origin) table in dense-index order.
func (s *store[Item, Origin]) pairs() []Pair[Item, Origin] {
	out := make([]Pair[Item, Origin], len(s.entries))
	for i, e := range s.entries {
		out[i] = Pair[Item, Origin]{Item: e.item, Origin: e.origin}
	}
	return out
}

func (s *store[Item, Origin]) len() int { return len(s.entries) }

// lookup resolves item to its record index, verifying the origin matches.
func (s *store[Item, Origin]) lookup(item Item, origin Origin) (int, error) {
	idx, ok := s.idMap[item]
	if !ok || s.entries[idx].origin != origin {
		return 0, &BadItemError[Item]{Item: item}
	}
	return idx, nil
}

func (s *store[Item, Origin]) recordSuccess(item Item, origin Origin) error {
	idx, err := s.lookup(item, origin)
	if err != nil {
		return err
	}
	s.entries[idx].history.Success()
	s.entries[idx].delayUntil = nil
	return nil
}

func (s *store[Item, Origin]) recordSuccessByID(idx int) {
	if idx < 0 || idx >= len(s.entries) {
		return
	}
	s.entries[idx].history.Success()
	s.entries[idx].delayUntil = nil
}

func (s *store[Item, Origin]) recordFailure(retry RetryCalculator, item Item, origin Origin) error {
	idx, err := s.lookup(item, origin)
	if err != nil {
		return err
	}

	e := &s.entries[idx]
	until := e.lastUse.Add(retry.Delay(e.history.NRetries()))
	e.delayUntil = &until
	e.history.Failure()
	return nil
}

// recordFailureByID mirrors recordFailure, but — preserving a deliberate,
// not normalised, asymmetry — computes the delay against the
// post-increment retry count rather than the pre-increment one used by
// the by-value path.
func (s *store[Item, Origin]) recordFailureByID(retry RetryCalculator, idx int) {
	if idx < 0 || idx >= len(s.entries) {
		return
	}

	e := &s.entries[idx]
	until := e.lastUse.Add(retry.Delay(e.history.NRetries() + 1))
	e.delayUntil = &until
	e.history.Failure()
}

// policyComparer is the subset of [Policy] the store's sort needs,
// parameterised over Item only so the store need not know Origin's
// policy relevance.
type policyComparer[Item any] interface {
	Compare(a, b Item) Ordering
}

// selectRecord runs the select algorithm: cache scores, sort the
// preference order, clear caches, then inspect the front record.
func (s *store[Item, Origin]) selectRecord(now time.Time, policy policyComparer[Item]) (SelectResult[Item, Origin], error) {
	if len(s.order) == 0 {
		var zero SelectResult[Item, Origin]
		return zero, ErrEmpty
	}

	for i := range s.entries {
		s.entries[i].history.CacheScore()
	}

	working := make([]int, len(s.order))
	copy(working, s.order)

	sort.SliceStable(working, func(i, j int) bool {
		return s.less(working[i], working[j], policy, now)
	})
	s.order = working

	for i := range s.entries {
		s.entries[i].history.ClearScoreCache()
	}

	front := s.order[0]
	e := &s.entries[front]

	if e.delayUntil == nil {
		e.lastUse = now
		return SelectResult[Item, Origin]{
			Outcome: SelectSuccess,
			Item:    e.item,
			Origin:  e.origin,
			Index:   front,
		}, nil
	}

	retryAt := *e.delayUntil
	if !retryAt.After(now) {
		e.delayUntil = nil
	}
	return SelectResult[Item, Origin]{
		Outcome: SelectRetry,
		RetryAt: retryAt,
	}, nil
}

// less implements the four-level select comparator: score descending,
// policy tiebreak, delay presence/value, then reverse last-use.
func (s *store[Item, Origin]) less(i, j int, policy policyComparer[Item], now time.Time) bool {
	a, b := &s.entries[i], &s.entries[j]

	sa, sb := a.history.Score(), b.history.Score()
	if sa != sb && !(isNaN(sa) || isNaN(sb)) {
		return sa > sb
	}

	switch policy.Compare(a.item, b.item) {
	case Less:
		return true
	case Greater:
		return false
	}

	aHas, bHas := a.delayUntil != nil, b.delayUntil != nil
	switch {
	case aHas != bHas:
		return !aHas
	case aHas && bHas:
		if !a.delayUntil.Equal(*b.delayUntil) {
			return a.delayUntil.Before(*b.delayUntil)
		}
	}

	return a.lastUse.After(b.lastUse)
}

func isNaN(f float64) bool { return f != f }

// convertToSingle drains the store, returning the record matching
// (targetItem, targetOrigin) if present, and every other (item, origin)
// pair — used by the Scheduler Facade to report what a refresh removed.
func (s *store[Item, Origin]) convertToSingle(targetItem Item, targetOrigin Origin) (*record[Item, Origin], []Pair[Item, Origin]) {
	var target *record[Item, Origin]
	removed := make([]Pair[Item, Origin], 0, len(s.entries))

	for i := range s.entries {
		e := &s.entries[i]
		if e.item == targetItem && e.origin == targetOrigin {
			target = e
			continue
		}
		removed = append(removed, Pair[Item, Origin]{Item: e.item, Origin: e.origin})
	}

	return target, removed
}

// fromSingle builds a fresh store from pairs, reusing targetRecord for the
// entry whose item matches targetItem and whose origin matches the
// record's origin. It reports the freshly created (added) pairs, and
// whether no such entry was found (meaning the prior Single record was
// dropped by this refresh).
func fromSingle[Item comparable, Origin comparable](
	historyFactory HistoryFactory,
	now time.Time,
	targetItem Item,
	targetRecord *record[Item, Origin],
	pairs []Pair[Item, Origin],
	hooks *Hooks,
) (s *store[Item, Origin], added []Pair[Item, Origin], targetWasRemoved bool) {
	s = &store[Item, Origin]{
		historyFactory: historyFactory,
		idMap:          make(map[Item]int, len(pairs)),
	}

	targetWasRemoved = true

	for _, p := range pairs {
		if _, dup := s.idMap[p.Item]; dup {
			hooks.emitDuplicateItem()
			continue
		}

		idx := len(s.entries)

		if p.Item == targetItem && targetRecord != nil && p.Origin == targetRecord.origin {
			targetWasRemoved = false
			s.entries = append(s.entries, *targetRecord)
		} else {
			s.entries = append(s.entries, record[Item, Origin]{
				item:    p.Item,
				origin:  p.Origin,
				history: historyFactory(),
				lastUse: now,
			})
			added = append(added, p)
		}
		s.idMap[p.Item] = idx
	}

	s.order = make([]int, len(s.entries))
	for i := range s.order {
		s.order[i] = i
	}

	return s, added, targetWasRemoved
}

// update reconciles the store in place against a new refresh set,
// computing the symmetric difference between the current (item, origin)
// pairs and pairs. An item present in both retains its record only when
// the origin also matches; otherwise a fresh record replaces it, and the
// pair counts as both removed and added.
func (s *store[Item, Origin]) update(now time.Time, pairs []Pair[Item, Origin], hooks *Hooks) (added, removed []Pair[Item, Origin]) {
	seen := make(map[Item]struct{}, len(pairs))
	newEntries := make([]record[Item, Origin], 0, len(pairs))
	newIDMap := make(map[Item]int, len(pairs))

	for _, p := range pairs {
		if _, dup := seen[p.Item]; dup {
			hooks.emitDuplicateItem()
			continue
		}
		seen[p.Item] = struct{}{}

		idx, existed := s.idMap[p.Item]
		if existed && s.entries[idx].origin == p.Origin {
			newIDMap[p.Item] = len(newEntries)
			newEntries = append(newEntries, s.entries[idx])
			continue
		}

		if existed {
			// Origin changed: counts as both removed and added.
			removed = append(removed, Pair[Item, Origin]{Item: p.Item, Origin: s.entries[idx].origin})
		}

		newIDMap[p.Item] = len(newEntries)
		newEntries = append(newEntries, record[Item, Origin]{
			item:    p.Item,
			origin:  p.Origin,
			history: s.historyFactory(),
			lastUse: now,
		})
		added = append(added, p)
	}

	for item, idx := range s.idMap {
		if _, stillPresent := seen[item]; !stillPresent {
			removed = append(removed, Pair[Item, Origin]{Item: item, Origin: s.entries[idx].origin})
		}
	}

	s.entries = newEntries
	s.idMap = newIDMap
	s.order = make([]int, len(s.entries))
	for i := range s.order {
		s.order[i] = i
	}

	return added, removed
}
