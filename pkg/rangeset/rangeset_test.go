package rangeset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seenWithRun(clientID uint64, from, to uint64) SeenMessages {
	counters := make(map[uint64]string)
	for c := from; c <= to; c++ {
		counters[c] = fmt.Sprintf("m%d", c)
	}
	return SeenMessages{clientID: counters}
}

func TestToRangeBasedCoalescesConsecutive(t *testing.T) {
	seen := seenWithRun(1, 1, 1000)
	rb := ToRangeBased(seen)
	require.Len(t, rb[1].Ranges, 1)
	assert.Equal(t, Range{Start: 1, End: 1000}, rb[1].Ranges[0])
}

func TestFromRangeBasedRoundTrip(t *testing.T) {
	seen := SeenMessages{
		1: {1: "m1", 2: "m2", 3: "m3", 15: "m15", 20: "m20"},
		2: {1: "m1b"},
	}
	rb := ToRangeBased(seen)
	got := FromRangeBased(rb)
	assert.Equal(t, seen, got)
}

func TestToRangeBasedOmitsEmptyClients(t *testing.T) {
	seen := SeenMessages{1: {}}
	rb := ToRangeBased(seen)
	_, ok := rb[1]
	assert.False(t, ok)
}

func TestFromRangeBasedDropsCountersMissingFromSideTable(t *testing.T) {
	rb := RangeBased{
		1: {Ranges: []Range{{Start: 1, End: 3}}, Messages: map[uint64]string{1: "m1", 3: "m3"}},
	}
	got := FromRangeBased(rb)
	assert.Equal(t, map[uint64]string{1: "m1", 3: "m3"}, got[1])
}

// S1. Range reconciliation with consecutive counters (1..1000).
func TestScenarioS1ConsecutiveRun(t *testing.T) {
	seen := seenWithRun(1, 1, 1000)
	rb := ToRangeBased(seen)
	require.Len(t, rb[1].Ranges, 1)
	assert.Equal(t, Range{Start: 1, End: 1000}, rb[1].Ranges[0])

	diff := ComputeSetDifferenceFromStateVector(rb, StateVector{1: 500})
	entries := diff[1]
	require.Len(t, entries, 500)
	assert.Equal(t, uint64(501), entries[0].Counter)
	assert.Equal(t, uint64(1000), entries[len(entries)-1].Counter)
}

// S2. Partial sync with gaps.
func TestScenarioS2PartialSyncWithGaps(t *testing.T) {
	localCounters := map[uint64]string{}
	for _, c := range []uint64{1, 2, 3, 4, 5, 15, 16, 17, 18, 19, 20} {
		localCounters[c] = fmt.Sprintf("m%d", c)
	}
	local := ToRangeBased(SeenMessages{1: localCounters})

	// remote has seen all of local's counters already
	remoteAll := ToRangeBased(SeenMessages{1: localCounters})
	diff := ComputeSetDifference(local, remoteAll)
	assert.Empty(t, diff[1])

	// reversed: local has all 1..20, remote has only {1..5, 15..20}
	fullCounters := map[uint64]string{}
	for c := uint64(1); c <= 20; c++ {
		fullCounters[c] = fmt.Sprintf("m%d", c)
	}
	fullLocal := ToRangeBased(SeenMessages{1: fullCounters})
	diff2 := ComputeSetDifference(fullLocal, local)
	entries := diff2[1]
	require.Len(t, entries, 9)
	for i, c := range []uint64{6, 7, 8, 9, 10, 11, 12, 13, 14} {
		assert.Equal(t, c, entries[i].Counter)
	}
}

func TestComputeSetDifferenceClientAbsentFromRemoteYieldsAll(t *testing.T) {
	local := ToRangeBased(seenWithRun(9, 1, 5))
	diff := ComputeSetDifference(local, RangeBased{})
	assert.Len(t, diff[9], 5)
}

func TestComputeSetDifferenceIsSubsetOfLocalAndDisjointFromRemote(t *testing.T) {
	local := ToRangeBased(SeenMessages{1: {1: "a", 2: "b", 3: "c", 4: "d"}})
	remote := ToRangeBased(SeenMessages{1: {2: "b", 3: "c"}})
	diff := ComputeSetDifference(local, remote)
	remoteMembers := membership(remote[1])
	for _, e := range diff[1] {
		_, inLocal := local[1].Messages[e.Counter]
		assert.True(t, inLocal)
		_, inRemote := remoteMembers[e.Counter]
		assert.False(t, inRemote)
	}
}

func TestComputeSetDifferenceFromStateVectorDefaultsToMinusOne(t *testing.T) {
	local := ToRangeBased(seenWithRun(1, 1, 3))
	diff := ComputeSetDifferenceFromStateVector(local, StateVector{})
	assert.Len(t, diff[1], 3)
}

func TestMergeRangeBasedIsIdempotentOnDuplicateCounters(t *testing.T) {
	local := ToRangeBased(SeenMessages{1: {1: "m1"}})
	merged1 := MergeRangeBased(local, SeenMessages{1: {2: "m2"}})
	merged2 := MergeRangeBased(merged1, SeenMessages{1: {2: "m2"}})
	assert.Equal(t, merged1, merged2)
	require.Len(t, merged2[1].Ranges, 1)
	assert.Equal(t, Range{Start: 1, End: 2}, merged2[1].Ranges[0])
}

func TestMergeRangeBasedNewClient(t *testing.T) {
	local := RangeBased{}
	merged := MergeRangeBased(local, SeenMessages{5: {1: "m1"}})
	require.Contains(t, merged, uint64(5))
	assert.Equal(t, Range{Start: 1, End: 1}, merged[5].Ranges[0])
}
