package snowflake

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutOfRangeWorkerIDs(t *testing.T) {
	_, err := New(-1)
	require.Error(t, err)
	_, err = New(MaxWorkerID + 1)
	require.Error(t, err)

	g, err := New(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), g.WorkerID())

	g, err = New(MaxWorkerID)
	require.NoError(t, err)
	assert.Equal(t, int64(MaxWorkerID), g.WorkerID())
}

func TestNextIDStrictlyIncreasing(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	prev := int64(-1)
	for i := 0; i < 10000; i++ {
		id, err := strconv.ParseInt(g.NextID(), 10, 64)
		require.NoError(t, err)
		require.Greater(t, id, prev, "iteration %d", i)
		prev = id
	}
}

func TestNextIDUniqueUnderConcurrency(t *testing.T) {
	g, err := New(7)
	require.NoError(t, err)

	const goroutines = 16
	const perGoroutine = 2000

	results := make([][]string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			ids := make([]string, perGoroutine)
			for j := range ids {
				ids[j] = g.NextID()
			}
			results[slot] = ids
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, goroutines*perGoroutine)
	for _, ids := range results {
		for _, id := range ids {
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %s", id)
			seen[id] = struct{}{}
		}
	}
	require.Len(t, seen, goroutines*perGoroutine)
}

func TestDistinctWorkersNeverCollide(t *testing.T) {
	a, err := New(3)
	require.NoError(t, err)
	b, err := New(4)
	require.NoError(t, err)

	fromA := make(map[string]struct{})
	for i := 0; i < 5000; i++ {
		fromA[a.NextID()] = struct{}{}
	}
	for i := 0; i < 5000; i++ {
		id := b.NextID()
		_, collides := fromA[id]
		require.False(t, collides, "worker 4 reissued %s", id)
	}
}

func TestWorkerFieldSurvivesRoundTrip(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	for i := 0; i < 5000; i++ {
		parts, err := Decompose(g.NextID())
		require.NoError(t, err)
		require.Equal(t, int64(3), parts.WorkerID)
	}
}

func TestSequenceExhaustionAdvancesTimestamp(t *testing.T) {
	g, err := New(5)
	require.NoError(t, err)

	// Freeze the clock on one millisecond for exactly 4096 issues, then let
	// it tick. Each successful call reads the clock once.
	const frozen = Epoch + 1000
	calls := 0
	g.now = func() int64 {
		calls++
		if calls <= 4096 {
			return frozen
		}
		return frozen + 1
	}

	seen := make(map[string]struct{}, 4097)
	var first, last Parts
	for i := 0; i < 4097; i++ {
		id := g.NextID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s at call %d", id, i)
		seen[id] = struct{}{}

		parts, err := Decompose(id)
		require.NoError(t, err)
		if i == 0 {
			first = parts
		}
		last = parts
	}

	require.Len(t, seen, 4097)
	assert.True(t, last.Timestamp.After(first.Timestamp),
		"4097th id must carry a later millisecond than the first 4096")
	assert.Equal(t, int64(0), last.Sequence)
}

func TestSequenceWrapSpinsUntilClockAdvances(t *testing.T) {
	g, err := New(5)
	require.NoError(t, err)

	const frozen = Epoch + 2000
	g.lastTimestamp = frozen
	g.sequence = maxSequence // next increment wraps to 0

	reads := 0
	g.now = func() int64 {
		reads++
		if reads < 4 {
			return frozen
		}
		return frozen + 1
	}

	parts, err := Decompose(g.NextID())
	require.NoError(t, err)
	assert.Equal(t, frozen+1, parts.Timestamp.UnixMilli())
	assert.Equal(t, int64(0), parts.Sequence)
	assert.GreaterOrEqual(t, reads, 4, "generator must re-read the clock until it advances")
}

func TestClockRollbackClampsToLastTimestamp(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	ts := Epoch + 5000
	g.now = func() int64 { return ts }
	before := g.NextID()

	// Clock jumps backward; ids must keep increasing off the clamped value.
	ts = Epoch + 1000
	after := g.NextID()

	b, err := strconv.ParseInt(before, 10, 64)
	require.NoError(t, err)
	a, err := strconv.ParseInt(after, 10, 64)
	require.NoError(t, err)
	require.Greater(t, a, b)

	parts, err := Decompose(after)
	require.NoError(t, err)
	assert.Equal(t, int64(1), parts.Sequence)
}

func TestDecomposeRejectsNonNumericInput(t *testing.T) {
	_, err := Decompose("not-a-number")
	require.Error(t, err)
}
