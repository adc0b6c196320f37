package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_PushFIFO(t *testing.T) {
	var q eventQueue

	for i := 1; i <= 3; i++ {
		_, evicted := q.push(Queued{Event: Press(KeyID(i))})
		require.False(t, evicted, "push below capacity should not evict")
	}

	require.Equal(t, 3, q.len())
	assert.Equal(t, Press(1), q.popFront().Event)
	assert.Equal(t, Press(2), q.popFront().Event)
	assert.Equal(t, Press(3), q.popFront().Event)
	assert.Equal(t, 0, q.len())
}

func TestEventQueue_EvictsOldestWhenFull(t *testing.T) {
	var q eventQueue

	for i := 0; i < QueueCapacity; i++ {
		_, evicted := q.push(Queued{Event: Press(KeyID(i))})
		require.False(t, evicted)
	}

	old, evicted := q.push(Queued{Event: Press(100)})
	require.True(t, evicted, "push at capacity must evict")
	assert.Equal(t, Press(0), old.Event, "evicted entry is the oldest")
	assert.Equal(t, QueueCapacity, q.len(), "queue never exceeds capacity")
	assert.Equal(t, Press(1), q.at(0).Event)
	assert.Equal(t, Press(100), q.at(QueueCapacity-1).Event)
}

func TestEventQueue_NeverExceedsCapacity(t *testing.T) {
	var q eventQueue

	for i := 0; i < 5*QueueCapacity; i++ {
		old, evicted := q.push(Queued{Event: Press(KeyID(i))})
		if i >= QueueCapacity {
			require.True(t, evicted)
			assert.Equal(t, Press(KeyID(i-QueueCapacity)), old.Event)
		}
		assert.LessOrEqual(t, q.len(), QueueCapacity)
	}
}

func TestEventQueue_AgeAllSaturates(t *testing.T) {
	var q eventQueue
	q.push(Queued{Event: Press(1)})
	q.push(Queued{Event: Press(2), Since: ^uint16(0)})

	q.ageAll()

	assert.Equal(t, uint16(1), q.at(0).Since)
	assert.Equal(t, ^uint16(0), q.at(1).Since, "age saturates instead of wrapping")
}

func TestEventQueue_RetainPreservesOrder(t *testing.T) {
	var q eventQueue
	// Wrap the ring so retain has to cross the end of the buffer
	for i := 0; i < QueueCapacity+4; i++ {
		q.push(Queued{Event: Press(KeyID(i))})
	}

	q.retain(func(item Queued) bool { return item.Event.Key.ID%2 == 0 })

	require.Equal(t, 5, q.len())
	want := []KeyID{4, 6, 8, 10, 12}
	for i, id := range want {
		assert.Equal(t, id, q.at(i).Event.Key.ID)
	}
}

func TestEventQueue_RemoveAt(t *testing.T) {
	var q eventQueue
	for i := 1; i <= 4; i++ {
		q.push(Queued{Event: Press(KeyID(i))})
	}

	removed := q.removeAt(1)

	assert.Equal(t, Press(2), removed.Event)
	require.Equal(t, 3, q.len())
	assert.Equal(t, Press(1), q.at(0).Event)
	assert.Equal(t, Press(3), q.at(1).Event)
	assert.Equal(t, Press(4), q.at(2).Event)
}

func TestEventQueue_Drain(t *testing.T) {
	var q eventQueue
	q.push(Queued{Event: Press(1)})
	q.push(Queued{Event: Release(1)})

	var got []Event
	q.drain(func(item Queued) { got = append(got, item.Event) })

	assert.Equal(t, []Event{Press(1), Release(1)}, got)
	assert.Equal(t, 0, q.len())
}
