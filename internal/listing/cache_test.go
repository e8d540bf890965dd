package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	ttl := 5 * time.Minute
	c := NewCache[int](ttl, clock.Now)

	c.Set([]int{1, 2})

	clock.Advance(ttl - time.Millisecond)
	data, ok := c.Get()
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, data)

	clock.Advance(2 * time.Millisecond)
	_, ok = c.Get()
	assert.False(t, ok)

	stale, ok := c.Stale()
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, stale)
}

func TestCache_InvalidateKeepsStaleData(t *testing.T) {
	c := NewCache[string](time.Minute, newFakeClock().Now)
	_, ok := c.Stale()
	assert.False(t, ok)

	c.Set([]string{"a"})
	c.Invalidate()

	_, ok = c.Get()
	assert.False(t, ok)
	stale, ok := c.Stale()
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, stale)
}
