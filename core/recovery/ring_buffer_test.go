package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer[int](3)

	assert.Equal(t, 0, rb.Len())
	assert.Equal(t, 3, rb.Cap())
	assert.Nil(t, rb.All())

	_, ok := rb.Newest()
	assert.False(t, ok)
}

func TestRingBufferPushAndOrder(t *testing.T) {
	rb := NewRingBuffer[int](3)
	rb.Push(1)
	rb.Push(2)

	assert.Equal(t, []int{1, 2}, rb.All())

	newest, ok := rb.Newest()
	require.True(t, ok)
	assert.Equal(t, 2, newest)
}

func TestRingBufferOverwritesOldest(t *testing.T) {
	rb := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		rb.Push(i)
	}

	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, []int{3, 4, 5}, rb.All())

	newest, ok := rb.Newest()
	require.True(t, ok)
	assert.Equal(t, 5, newest)
}

func TestRingBufferLast(t *testing.T) {
	rb := NewRingBuffer[int](4)
	for i := 1; i <= 4; i++ {
		rb.Push(i)
	}

	assert.Equal(t, []int{3, 4}, rb.Last(2))
	assert.Equal(t, []int{1, 2, 3, 4}, rb.Last(10))
	assert.Nil(t, rb.Last(0))
}

func TestRingBufferDefaultCapacity(t *testing.T) {
	rb := NewRingBuffer[int](0)
	assert.Equal(t, 50, rb.Cap())
}
