package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer(t *testing.T) {
	t.Run("keeps newest entries in insertion order", testKeepsNewest)
	t.Run("append reports eviction", testAppendReportsEviction)
	t.Run("get latest", testGetLatest)
	t.Run("non positive capacity falls back to default", testDefaultCapacity)
}

func testKeepsNewest(t *testing.T) {
	rb := NewRingBuffer[int](100)
	for i := 0; i < 150; i++ {
		rb.Append(i)
	}

	all := rb.GetAll()
	require.Len(t, all, 100)
	for i, v := range all {
		assert.Equal(t, 50+i, v)
	}
	assert.Equal(t, rb.Capacity(), rb.Size())
}

func testAppendReportsEviction(t *testing.T) {
	rb := NewRingBuffer[string](2)
	assert.False(t, rb.Append("a"))
	assert.False(t, rb.Append("b"))
	assert.True(t, rb.Append("c"))
	assert.Equal(t, []string{"b", "c"}, rb.GetAll())
}

func testGetLatest(t *testing.T) {
	rb := NewRingBuffer[int](5)
	assert.Empty(t, rb.GetLatest(3))

	for i := 1; i <= 7; i++ {
		rb.Append(i)
	}
	assert.Equal(t, []int{5, 6, 7}, rb.GetLatest(3))
	assert.Equal(t, []int{3, 4, 5, 6, 7}, rb.GetLatest(50))
	assert.Empty(t, rb.GetLatest(0))
}

func testDefaultCapacity(t *testing.T) {
	rb := NewRingBuffer[int](0)
	assert.Equal(t, DefaultHistoryCapacity, rb.Capacity())
}
