package proxy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCountsWithinWindow(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)
	store.nowFn = func() time.Time { return now }

	ctx := context.Background()

	for i := 1; i <= 30; i++ {
		result, err := store.IncrementAndCheck(ctx, "203.0.113.7", 30, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i)
		assert.Equal(t, 30-i, result.Remaining)
	}

	result, err := store.IncrementAndCheck(ctx, "203.0.113.7", 30, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed, "request 31 in the same minute must be denied")
	assert.Equal(t, 0, result.Remaining)
}

func TestMemoryStoreWindowReset(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 59, 0, time.UTC)
	store.nowFn = func() time.Time { return now }

	ctx := context.Background()

	for i := 0; i < 31; i++ {
		store.IncrementAndCheck(ctx, "203.0.113.7", 30, time.Minute)
	}
	result, _ := store.IncrementAndCheck(ctx, "203.0.113.7", 30, time.Minute)
	assert.False(t, result.Allowed)

	// Crossing the minute boundary opens a fresh bucket.
	now = now.Add(2 * time.Second)
	result, err := store.IncrementAndCheck(ctx, "203.0.113.7", 30, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 29, result.Remaining)
}

func TestMemoryStoreIsolatesClients(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 31; i++ {
		store.IncrementAndCheck(ctx, "203.0.113.7", 30, time.Minute)
	}

	result, err := store.IncrementAndCheck(ctx, "198.51.100.2", 30, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "one client's exhaustion must not affect another")
}

func TestMemoryStoreSweepsExpiredBuckets(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.nowFn = func() time.Time { return now }

	ctx := context.Background()
	store.IncrementAndCheck(ctx, "203.0.113.7", 30, time.Minute)
	store.IncrementAndCheck(ctx, "198.51.100.2", 30, time.Minute)
	assert.Len(t, store.buckets, 2)

	now = now.Add(3 * time.Minute)
	store.IncrementAndCheck(ctx, "203.0.113.7", 30, time.Minute)
	assert.Len(t, store.buckets, 1, "expired buckets are swept on access")
}

func TestBucketKeyChangesPerWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)

	k1, reset1 := bucketKey("203.0.113.7", base, time.Minute)
	k2, _ := bucketKey("203.0.113.7", base.Add(20*time.Second), time.Minute)
	k3, _ := bucketKey("203.0.113.7", base.Add(40*time.Second), time.Minute)

	assert.Equal(t, k1, k2, "same minute, same bucket")
	assert.NotEqual(t, k1, k3, "next minute, new bucket")
	assert.Equal(t, time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC), reset1.UTC())
}
