package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertAt(t *testing.T) {
	order := []int64{1, 2, 3}
	assert.Equal(t, []int64{9, 1, 2, 3}, InsertAt(order, 0, 9))
	assert.Equal(t, []int64{1, 8, 9, 2, 3}, InsertAt(order, 1, 8, 9))
	assert.Equal(t, []int64{1, 2, 3, 9}, InsertAt(order, -1, 9))
	assert.Equal(t, []int64{1, 2, 3, 9}, InsertAt(order, 10, 9))
	assert.Equal(t, []int64{1, 2, 3}, order)
}

func TestMove(t *testing.T) {
	order := []int64{1, 2, 3}

	got, ok := Move(order, 2, -1)
	assert.True(t, ok)
	assert.Equal(t, []int64{2, 1, 3}, got)

	got, ok = Move(order, 2, 1)
	assert.True(t, ok)
	assert.Equal(t, []int64{1, 3, 2}, got)

	_, ok = Move(order, 1, -1)
	assert.False(t, ok)
	_, ok = Move(order, 3, 1)
	assert.False(t, ok)
	_, ok = Move(order, 42, 1)
	assert.False(t, ok)

	assert.Equal(t, []int64{1, 2, 3}, order)
}

func TestRemove(t *testing.T) {
	assert.Equal(t, []int64{1, 3}, Remove([]int64{1, 2, 3, 4}, 2, 4))
	assert.Empty(t, Remove([]int64{1}, 1))
}

func TestCheckPermutation(t *testing.T) {
	assert.NoError(t, CheckPermutation([]int64{1, 2, 3}, []int64{3, 1, 2}))
	assert.ErrorIs(t, CheckPermutation([]int64{1, 2, 3}, []int64{1, 2}), ErrInvalidOrder)
	assert.ErrorIs(t, CheckPermutation([]int64{1, 2, 3}, []int64{1, 2, 2}), ErrInvalidOrder)
	assert.ErrorIs(t, CheckPermutation([]int64{1, 2}, []int64{1, 5}), ErrInvalidOrder)
}
