package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingPushAndItems(t *testing.T) {
	t.Parallel()

	r := newRing[int](3)
	assert.Equal(t, 0, r.size())
	assert.Empty(t, r.items())

	r.push(1)
	r.push(2)
	assert.Equal(t, 2, r.size())
	assert.Equal(t, []int{1, 2}, r.items())

	r.push(3)
	r.push(4) // вытесняет 1
	r.push(5) // вытесняет 2
	assert.Equal(t, 3, r.size())
	assert.Equal(t, []int{3, 4, 5}, r.items())
}

func TestRingWrapAroundMany(t *testing.T) {
	t.Parallel()

	const capacity = 16
	r := newRing[int](capacity)
	for i := 0; i < capacity*10+3; i++ {
		r.push(i)
	}

	got := r.items()
	require.Len(t, got, capacity)
	for i, v := range got {
		assert.Equal(t, capacity*9+3+i, v)
	}
}

func TestRingItemsReturnsCopy(t *testing.T) {
	t.Parallel()

	r := newRing[int](4)
	r.push(10)
	r.push(20)

	got := r.items()
	got[0] = 999
	assert.Equal(t, []int{10, 20}, r.items())
}
