package waypoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHistory is a deterministic History double for exercising the store's
// sort and bookkeeping logic without CountHistory/EWMAHistory's formulas.
type fakeHistory struct {
	score    float64
	nretries int
	cached   float64
	caching  bool
}

func newFakeHistory(score float64) *fakeHistory { return &fakeHistory{score: score} }

func (h *fakeHistory) Success()          { h.nretries = 0 }
func (h *fakeHistory) Failure()          { h.nretries++ }
func (h *fakeHistory) Retry()            { h.nretries++ }
func (h *fakeHistory) NRetries() int     { return h.nretries }
func (h *fakeHistory) CacheScore()       { h.cached = h.score; h.caching = true }
func (h *fakeHistory) ClearScoreCache()  { h.caching = false }
func (h *fakeHistory) Score() float64 {
	if h.caching {
		return h.cached
	}
	return h.score
}

func fakeFactory(score float64) HistoryFactory {
	return func() History { return newFakeHistory(score) }
}

func pair(item, origin string) Pair[string, string] {
	return Pair[string, string]{Item: item, Origin: origin}
}

func TestStoreConstructInsertionOrder(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{
		pair("a", "o"), pair("b", "o"), pair("c", "o"),
	}, nil)

	require.Equal(t, 3, s.len())
	assert.Equal(t, []Pair[string, string]{pair("a", "o"), pair("b", "o"), pair("c", "o")}, s.pairs())
}

func TestStoreConstructDropsDuplicateItemsKeepingFirst(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{
		pair("a", "o1"), pair("a", "o2"),
	}, nil)

	require.Equal(t, 1, s.len())
	assert.Equal(t, "o1", s.entries[0].origin)
}

func TestStoreConstructEmitsDuplicateHook(t *testing.T) {
	now := time.Now()
	var dupCount int
	hooks := &Hooks{OnDuplicateItem: func() { dupCount++ }}

	newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{
		pair("a", "o1"), pair("a", "o2"), pair("b", "o1"),
	}, hooks)

	assert.Equal(t, 1, dupCount)
}

func TestStoreRecordSuccessClearsDelay(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o")}, nil)

	until := now.Add(time.Second)
	s.entries[0].delayUntil = &until

	require.NoError(t, s.recordSuccess("a", "o"))
	assert.Nil(t, s.entries[0].delayUntil)
}

func TestStoreRecordSuccessOriginMismatchIsBadItem(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o1")}, nil)

	err := s.recordSuccess("a", "o2")
	var badItem *BadItemError[string]
	require.ErrorAs(t, err, &badItem)
	assert.Equal(t, "a", badItem.Item)
}

func TestStoreRecordSuccessUnknownItemIsBadItem(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o")}, nil)

	err := s.recordSuccess("z", "o")
	var badItem *BadItemError[string]
	require.ErrorAs(t, err, &badItem)
}

func TestStoreRecordFailureArmsDelayAgainstPreIncrementRetries(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o")}, nil)

	retry := RetryCalculator{Factor: 100, ExpBase: 2.0, ExpFactor: 1.0, ExpRoundsCap: 20, MaxRandom: 0}

	require.NoError(t, s.recordFailure(retry, "a", "o"))
	require.NotNil(t, s.entries[0].delayUntil)
	assert.Equal(t, now.Add(100*time.Microsecond), *s.entries[0].delayUntil)
	assert.Equal(t, 1, s.entries[0].history.NRetries())

	require.NoError(t, s.recordFailure(retry, "a", "o"))
	// Second failure: nretries was 1 at call time (pre-increment), so delay
	// uses delay(1) = 200us, computed against the *current* last_use.
	assert.Equal(t, s.entries[0].lastUse.Add(200*time.Microsecond), *s.entries[0].delayUntil)
}

func TestStoreRecordFailureByIDUsesPostIncrementRetries(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o")}, nil)

	retry := RetryCalculator{Factor: 100, ExpBase: 2.0, ExpFactor: 1.0, ExpRoundsCap: 20, MaxRandom: 0}

	s.recordFailureByID(retry, 0)
	// nretries() was 0 before the call; by-id treats the delay as
	// post-increment, i.e. uses delay(0+1) = delay(1) = 200us.
	assert.Equal(t, now.Add(200*time.Microsecond), *s.entries[0].delayUntil)
}

func TestStoreRecordFailureByIDOutOfRangeIsNoOp(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o")}, nil)
	retry := DefaultRetryCalculator()

	assert.NotPanics(t, func() { s.recordFailureByID(retry, 99) })
	assert.Nil(t, s.entries[0].delayUntil)
}

func TestStoreSelectEmptyIsErrEmpty(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, nil, nil)

	_, err := s.selectRecord(now, PassThroughPolicy[string]{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestStoreSelectOrdersByScoreDescending(t *testing.T) {
	now := time.Now()
	s := &store[string, string]{idMap: map[string]int{}}
	s.entries = []record[string, string]{
		{item: "low", origin: "o", history: newFakeHistory(0.1), lastUse: now},
		{item: "high", origin: "o", history: newFakeHistory(0.9), lastUse: now},
	}
	s.idMap["low"] = 0
	s.idMap["high"] = 1
	s.order = []int{0, 1}

	res, err := s.selectRecord(now, PassThroughPolicy[string]{})
	require.NoError(t, err)
	assert.Equal(t, SelectSuccess, res.Outcome)
	assert.Equal(t, "high", res.Item)
}

func TestStoreSelectUpdatesLastUseOnSuccess(t *testing.T) {
	earlier := time.Now().Add(-time.Hour)
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), earlier, []Pair[string, string]{pair("a", "o")}, nil)

	res, err := s.selectRecord(now, PassThroughPolicy[string]{})
	require.NoError(t, err)
	assert.Equal(t, SelectSuccess, res.Outcome)
	assert.Equal(t, now, s.entries[0].lastUse)
}

func TestStoreSelectReturnsRetryWhenDelayNotExpired(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o")}, nil)

	until := now.Add(time.Hour)
	s.entries[0].delayUntil = &until

	res, err := s.selectRecord(now, PassThroughPolicy[string]{})
	require.NoError(t, err)
	assert.Equal(t, SelectRetry, res.Outcome)
	assert.Equal(t, until, res.RetryAt)
	assert.NotNil(t, s.entries[0].delayUntil, "delay must remain armed when not yet expired")
}

func TestStoreSelectClearsExpiredDelayButStillReturnsRetryOnce(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o")}, nil)

	past := now.Add(-time.Second)
	s.entries[0].delayUntil = &past

	res, err := s.selectRecord(now, PassThroughPolicy[string]{})
	require.NoError(t, err)
	assert.Equal(t, SelectRetry, res.Outcome)
	assert.Equal(t, past, res.RetryAt)
	assert.Nil(t, s.entries[0].delayUntil, "expired delay must be cleared so the next select succeeds")
}

func TestStoreSelectPrefersRecordWithoutDelay(t *testing.T) {
	now := time.Now()
	s := &store[string, string]{idMap: map[string]int{}}
	delayed := now.Add(time.Hour)
	s.entries = []record[string, string]{
		{item: "delayed", origin: "o", history: newFakeHistory(1.0), lastUse: now, delayUntil: &delayed},
		{item: "free", origin: "o", history: newFakeHistory(1.0), lastUse: now},
	}
	s.idMap["delayed"] = 0
	s.idMap["free"] = 1
	s.order = []int{0, 1}

	res, err := s.selectRecord(now, PassThroughPolicy[string]{})
	require.NoError(t, err)
	assert.Equal(t, "free", res.Item)
}

func TestStoreSelectTiesBreakOnMoreRecentLastUse(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Hour)
	s := &store[string, string]{idMap: map[string]int{}}
	s.entries = []record[string, string]{
		{item: "stale", origin: "o", history: newFakeHistory(1.0), lastUse: older},
		{item: "warm", origin: "o", history: newFakeHistory(1.0), lastUse: now},
	}
	s.idMap["stale"] = 0
	s.idMap["warm"] = 1
	s.order = []int{0, 1}

	res, err := s.selectRecord(now, PassThroughPolicy[string]{})
	require.NoError(t, err)
	assert.Equal(t, "warm", res.Item, "more-recently-used item should win a full tie")
}

func TestStoreConvertToSingleSeparatesTargetFromRest(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{
		pair("a", "o"), pair("b", "o"), pair("c", "o"),
	}, nil)

	target, removed := s.convertToSingle("b", "o")
	require.NotNil(t, target)
	assert.Equal(t, "b", target.item)
	assert.ElementsMatch(t, []Pair[string, string]{pair("a", "o"), pair("c", "o")}, removed)
}

func TestStoreConvertToSingleMissingTargetReturnsNilRecord(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{
		pair("a", "o"), pair("b", "o"),
	}, nil)

	target, removed := s.convertToSingle("z", "o")
	assert.Nil(t, target)
	assert.Len(t, removed, 2)
}

func TestFromSingleReusesMatchingRecordAndTracksAdded(t *testing.T) {
	earlier := time.Now().Add(-time.Minute)
	now := time.Now()

	target := &record[string, string]{item: "a", origin: "o", history: newFakeHistory(1.0), lastUse: earlier}
	target.history.Failure()

	s, added, removed := fromSingle[string, string](fakeFactory(1.0), now, "a", target, []Pair[string, string]{
		pair("a", "o"), pair("b", "o"),
	}, nil)

	require.Equal(t, 2, s.len())
	assert.False(t, removed)
	assert.Equal(t, []Pair[string, string]{pair("b", "o")}, added)

	idx := s.idMap["a"]
	assert.Equal(t, earlier, s.entries[idx].lastUse, "reused record keeps its prior last_use, proving history carried over")
}

func TestFromSingleReportsTargetRemovedWhenAbsent(t *testing.T) {
	now := time.Now()
	target := &record[string, string]{item: "a", origin: "o", history: newFakeHistory(1.0), lastUse: now}

	s, added, removed := fromSingle[string, string](fakeFactory(1.0), now, "a", target, []Pair[string, string]{
		pair("b", "o"), pair("c", "o"),
	}, nil)

	require.Equal(t, 2, s.len())
	assert.True(t, removed)
	assert.ElementsMatch(t, []Pair[string, string]{pair("b", "o"), pair("c", "o")}, added)
}

func TestStoreUpdateComputesSymmetricDifference(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{
		pair("a", "o"), pair("b", "o"),
	}, nil)

	later := now.Add(time.Minute)
	added, removed := s.update(later, []Pair[string, string]{
		pair("a", "o"), pair("c", "o"),
	}, nil)

	assert.Equal(t, []Pair[string, string]{pair("c", "o")}, added)
	assert.Equal(t, []Pair[string, string]{pair("b", "o")}, removed)
	assert.Equal(t, 2, s.len())
}

func TestStoreUpdateOriginChangeCountsAsBothRemovedAndAdded(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o1")}, nil)

	later := now.Add(time.Minute)
	added, removed := s.update(later, []Pair[string, string]{pair("a", "o2")}, nil)

	assert.Equal(t, []Pair[string, string]{pair("a", "o2")}, added)
	assert.Equal(t, []Pair[string, string]{pair("a", "o1")}, removed)
}

func TestStoreUpdateRetainsUnchangedRecord(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{pair("a", "o")}, nil)
	s.entries[0].history.Failure()

	later := now.Add(time.Minute)
	added, removed := s.update(later, []Pair[string, string]{pair("a", "o")}, nil)

	assert.Nil(t, added)
	assert.Nil(t, removed)
	assert.Equal(t, 1, s.entries[0].history.NRetries(), "retained record keeps its history")
	assert.Equal(t, now, s.entries[0].lastUse, "retained record keeps its prior last_use, not the refresh time")
}

func TestStoreUpdateIdempotentOnIdenticalSet(t *testing.T) {
	now := time.Now()
	s := newStore[string, string](fakeFactory(1.0), now, []Pair[string, string]{
		pair("a", "o"), pair("b", "o"),
	}, nil)

	added, removed := s.update(now.Add(time.Second), []Pair[string, string]{
		pair("a", "o"), pair("b", "o"),
	}, nil)

	assert.Nil(t, added)
	assert.Nil(t, removed)
}
