package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(calls *int, val []string) func() ([]string, error) {
	return func() ([]string, error) {
		*calls++
		return val, nil
	}
}

func TestGet_ReadThrough(t *testing.T) {
	c := New(time.Minute)
	calls := 0

	for i := 0; i < 3; i++ {
		got, err := Get(c, Skills, counter(&calls, []string{"go"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"go"}, got)
	}
	assert.Equal(t, 1, calls, "fetch should run once and then be served from cache")
}

func TestGet_ErrorsAreNotCached(t *testing.T) {
	c := New(time.Minute)
	boom := errors.New("db down")

	_, err := Get(c, Projects, func() ([]string, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	calls := 0
	got, err := Get(c, Projects, counter(&calls, []string{"p"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, got)
	assert.Equal(t, 1, calls)
}

func TestInvalidate_DropsCollectionKeysOnly(t *testing.T) {
	c := New(time.Minute)
	skillCalls, blogCalls, slugCalls := 0, 0, 0

	_, _ = Get(c, Skills, counter(&skillCalls, nil))
	_, _ = Get(c, Blog, counter(&blogCalls, nil))
	_, _ = Get(c, Blog+":hello", counter(&slugCalls, nil))
	// "blogroll" shares a prefix string with "blog" but is another collection.
	rollCalls := 0
	_, _ = Get(c, "blogroll", counter(&rollCalls, nil))

	c.Invalidate(Blog)

	_, _ = Get(c, Skills, counter(&skillCalls, nil))
	_, _ = Get(c, Blog, counter(&blogCalls, nil))
	_, _ = Get(c, Blog+":hello", counter(&slugCalls, nil))
	_, _ = Get(c, "blogroll", counter(&rollCalls, nil))

	assert.Equal(t, 1, skillCalls)
	assert.Equal(t, 2, blogCalls)
	assert.Equal(t, 2, slugCalls)
	assert.Equal(t, 1, rollCalls)
}

func TestGet_StaleFillAfterInvalidateIsDropped(t *testing.T) {
	c := New(time.Minute)

	_, err := Get(c, Socials, func() ([]string, error) {
		// A write lands while this read is in flight.
		c.Invalidate(Socials)
		return []string{"stale"}, nil
	})
	require.NoError(t, err)

	calls := 0
	got, err := Get(c, Socials, counter(&calls, []string{"fresh"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, got)
	assert.Equal(t, 1, calls)
}

func TestZeroTTLDisablesCaching(t *testing.T) {
	c := New(0)
	calls := 0

	_, _ = Get(c, Skills, counter(&calls, nil))
	_, _ = Get(c, Skills, counter(&calls, nil))
	assert.Equal(t, 2, calls)
}

func TestNilCacheIsPassThrough(t *testing.T) {
	var c *Cache
	calls := 0

	_, err := Get(c, Skills, counter(&calls, nil))
	require.NoError(t, err)
	c.Invalidate(Skills)
	c.Flush()
	assert.Equal(t, 1, calls)
}
