package utils

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuneIndexToByteOffset(t *testing.T) {
	s := "añb€"
	assert.Equal(t, 0, RuneIndexToByteOffset(s, 0))
	assert.Equal(t, 1, RuneIndexToByteOffset(s, 1))
	assert.Equal(t, 3, RuneIndexToByteOffset(s, 2))
	assert.Equal(t, 4, RuneIndexToByteOffset(s, 3))
	assert.Equal(t, len(s), RuneIndexToByteOffset(s, 4))
	assert.Equal(t, -1, RuneIndexToByteOffset(s, 5))
}

func TestRuneSlice(t *testing.T) {
	assert.Equal(t, "ñb", RuneSlice("añbc", 1, 3))
	assert.Equal(t, "", RuneSlice("abc", 2, 1))
	assert.Equal(t, "bc", RuneSlice("abc", 1, 10))
}

func TestDebouncer(t *testing.T) {
	var d Debouncer
	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Debounce(20*time.Millisecond, func() { calls.Add(1) })
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Debounce(time.Hour, func() { calls.Add(1) })
	assert.True(t, d.Stop())
	assert.False(t, d.Stop())
}
