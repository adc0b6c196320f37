package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Transitions(t *testing.T) {
	assert.Equal(t, UnreadReleased, Unread.onFullRelease())
	assert.Equal(t, UnreadReleased, UnreadReleased.onFullRelease())
	assert.Equal(t, Released, Releasable.onFullRelease())
	assert.Equal(t, Released, Released.onFullRelease())

	next, tap, ok := Unread.onDelivery()
	assert.True(t, ok)
	assert.False(t, tap)
	assert.Equal(t, Releasable, next)

	next, tap, ok = UnreadReleased.onDelivery()
	assert.True(t, ok)
	assert.True(t, tap)
	assert.Equal(t, Released, next)

	_, _, ok = Releasable.onDelivery()
	assert.False(t, ok)
	_, _, ok = Released.onDelivery()
	assert.False(t, ok)
}

func TestActiveChord_LastRelease(t *testing.T) {
	a := activeChord{
		held:      newKeySet([]KeyID{1, 2}),
		remaining: newKeySet([]KeyID{1, 2}),
		release:   OnLastRelease,
		status:    Releasable,
	}

	assert.False(t, a.noteRelease(3), "non-participant is not held")

	require.True(t, a.noteRelease(1))
	assert.Equal(t, Releasable, a.status)
	assert.Equal(t, []KeyID{2}, a.remaining.slice())

	assert.False(t, a.noteRelease(1), "a key is only released once")

	require.True(t, a.noteRelease(2))
	assert.Equal(t, Released, a.status)
	assert.Equal(t, 0, a.remaining.len())
}

func TestActiveChord_FirstRelease(t *testing.T) {
	a := activeChord{
		held:    newKeySet([]KeyID{1, 2}),
		release: OnFirstRelease,
		status:  Unread,
	}

	require.True(t, a.noteRelease(2))
	assert.Equal(t, UnreadReleased, a.status)
	assert.Equal(t, []KeyID{1}, a.held.slice())

	require.True(t, a.noteRelease(1))
	assert.Equal(t, UnreadReleased, a.status)
}

func TestActiveTable_RemoveReleasedKeepsOrder(t *testing.T) {
	var tbl activeTable
	tbl.add(activeChord{coord: 10, status: Releasable})
	tbl.add(activeChord{coord: 11, status: Released})
	tbl.add(activeChord{coord: 12, status: Unread})
	tbl.add(activeChord{coord: 13, status: Released})

	var removed []KeyID
	tbl.removeReleased(func(a activeChord) { removed = append(removed, a.coord) })

	assert.Equal(t, []KeyID{11, 13}, removed)
	require.Equal(t, 2, tbl.len())
	assert.Equal(t, KeyID(10), tbl.at(0).coord)
	assert.Equal(t, KeyID(12), tbl.at(1).coord)
}

func TestCoordPool_AllocFree(t *testing.T) {
	p := coordPool{base: 100}

	seen := make(map[KeyID]bool)
	for i := 0; i < MaxActiveChords; i++ {
		c, ok := p.alloc()
		require.True(t, ok)
		assert.False(t, seen[c], "coordinate %d handed out twice", c)
		seen[c] = true
	}
	assert.Equal(t, MaxActiveChords, p.inUse())

	_, ok := p.alloc()
	assert.False(t, ok, "pool is exhausted")

	p.free(103)
	c, ok := p.alloc()
	require.True(t, ok)
	assert.Equal(t, KeyID(103), c, "freed coordinate is reused")
}

func TestKeySet(t *testing.T) {
	s := newKeySet([]KeyID{4, 5, 6})
	assert.True(t, s.contains(5))
	assert.True(t, s.remove(5))
	assert.False(t, s.contains(5))
	assert.False(t, s.remove(5))
	assert.ElementsMatch(t, []KeyID{4, 6}, s.slice())

	s.add(9)
	assert.Equal(t, 3, s.len())
}
