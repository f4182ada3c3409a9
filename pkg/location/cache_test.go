package location

import (
	"testing"
	"time"

	"github.com/pontolabs/ponto-agent/pkg/geo"
	"github.com/stretchr/testify/assert"
)

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	c := NewCache(ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

// TestCache_MissWhenEmpty tests that an empty cache never returns a sample.
func TestCache_MissWhenEmpty(t *testing.T) {
	c, _ := newTestCache(30 * time.Second)

	_, ok := c.Get(time.Minute)
	assert.False(t, ok)
}

// TestCache_ZeroMaxAgeForcesFreshRead tests that maxAge=0 bypasses the cache.
func TestCache_ZeroMaxAgeForcesFreshRead(t *testing.T) {
	c, _ := newTestCache(30 * time.Second)
	c.Put(Sample{Coordinate: geo.Coordinate{Latitude: 1, Longitude: 2}, AccuracyMeters: 10})

	_, ok := c.Get(0)
	assert.False(t, ok)
}

// TestCache_HitWithinTTLAndMaxAge tests a fresh fix is returned.
func TestCache_HitWithinTTLAndMaxAge(t *testing.T) {
	c, now := newTestCache(30 * time.Second)
	c.Put(Sample{Coordinate: geo.Coordinate{Latitude: 1, Longitude: 2}, AccuracyMeters: 10})

	*now = now.Add(10 * time.Second)

	got, ok := c.Get(20 * time.Second)
	assert.True(t, ok)
	assert.Equal(t, 10.0, got.AccuracyMeters)
}

// TestCache_ExpiresAfterTTL tests that the TTL bounds reuse even when the
// caller would accept an older fix.
func TestCache_ExpiresAfterTTL(t *testing.T) {
	c, now := newTestCache(30 * time.Second)
	c.Put(Sample{AccuracyMeters: 10})

	*now = now.Add(31 * time.Second)

	_, ok := c.Get(5 * time.Minute)
	assert.False(t, ok)
}

// TestCache_MaxAgeStricterThanTTL tests the caller's maxAge wins when tighter.
func TestCache_MaxAgeStricterThanTTL(t *testing.T) {
	c, now := newTestCache(30 * time.Second)
	c.Put(Sample{AccuracyMeters: 10})

	*now = now.Add(10 * time.Second)

	_, ok := c.Get(5 * time.Second)
	assert.False(t, ok)
}

// TestCache_Clear tests that Clear drops the stored fix.
func TestCache_Clear(t *testing.T) {
	c, _ := newTestCache(30 * time.Second)
	c.Put(Sample{AccuracyMeters: 10})
	c.Clear()

	_, ok := c.Get(time.Minute)
	assert.False(t, ok)
}
