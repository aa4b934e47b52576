package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffSchedule(t *testing.T) {
	b := NewBackoff()

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}
	for i, expected := range want {
		d, ok := b.Next()
		require.True(t, ok, "attempt %d should be allowed", i+1)
		assert.Equal(t, expected, d, "attempt %d", i+1)
	}

	_, ok := b.Next()
	assert.False(t, ok, "sixth attempt must be refused")
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoff()

	for i := 0; i < b.MaxAttempts; i++ {
		b.Next()
	}
	_, ok := b.Next()
	require.False(t, ok)

	b.Reset()
	d, ok := b.Next()
	assert.True(t, ok)
	assert.Equal(t, time.Second, d)
	assert.Equal(t, 1, b.Attempt())
}
