package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_HitWithinTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTL[string, bool](time.Minute, func() time.Time { return now })

	c.Set("bucket", true)
	v, ok := c.Get("bucket")
	assert.True(t, ok)
	assert.True(t, v)
}

func TestTTL_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTL[string, bool](time.Minute, func() time.Time { return now })

	c.Set("bucket", true)
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("bucket")
	assert.False(t, ok)
}

func TestTTL_MissOnUnknownKey(t *testing.T) {
	c := NewTTL[string, int](time.Minute, nil)
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestTTL_Delete(t *testing.T) {
	c := NewTTL[string, int](time.Minute, nil)
	c.Set("k", 1)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}
