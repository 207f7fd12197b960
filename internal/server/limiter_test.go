package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_NilAllowsAll(t *testing.T) {
	var l *clientLimiter
	assert.Nil(t, newClientLimiter(0, 5, 0))
	assert.Nil(t, newClientLimiter(1, 0, 0))
	assert.True(t, l.Allow("1.2.3.4", time.Now()))
}

func TestClientLimiter_PerKeyBuckets(t *testing.T) {
	l := newClientLimiter(1, 1, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, l.Allow("a", now))
	assert.False(t, l.Allow("a", now))
	assert.True(t, l.Allow("b", now), "buckets are per key")
	assert.True(t, l.Allow("a", now.Add(time.Second)), "tokens refill")
	assert.True(t, l.Allow("  ", now), "blank keys are not limited")
}

func TestClientLimiter_EvictsIdle(t *testing.T) {
	l := newClientLimiter(100, 100, time.Minute)
	start := time.Unix(1_700_000_000, 0)
	l.Allow("idle", start)

	later := start.Add(time.Hour)
	for i := 0; i < evictEvery; i++ {
		l.Allow("busy", later)
	}
	assert.Equal(t, 1, l.size())
}
