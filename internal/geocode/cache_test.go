package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"livecam-geo/internal/geo"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls map[string]int
	known map[string]geo.Coord
	fail  bool
}

func (c *countingGeocoder) Geocode(_ context.Context, address string) (geo.Coord, bool, error) {
	c.calls[address]++
	if c.fail {
		return geo.Coord{}, false, errors.New("upstream down")
	}
	co, ok := c.known[address]
	return co, ok, nil
}

func newCached(t *testing.T) (*Cached, *countingGeocoder, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	next := &countingGeocoder{calls: map[string]int{}, known: map[string]geo.Coord{"Shibuya": {Lat: 35.6595, Lng: 139.7005}}}
	return &Cached{Next: next, Redis: rc, TTL: time.Hour}, next, mr
}

func TestCachedHitAndNegative(t *testing.T) {
	c, next, mr := newCached(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		co, ok, err := c.Geocode(ctx, "Shibuya")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, geo.Coord{Lat: 35.6595, Lng: 139.7005}, co)

		_, ok, err = c.Geocode(ctx, "Atlantis")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, next.calls["Shibuya"])
	assert.Equal(t, 1, next.calls["Atlantis"])

	assert.True(t, mr.Exists(KeyPrefix+"shibuya"))
	assert.Equal(t, time.Hour, mr.TTL(KeyPrefix+"atlantis"))
}

func TestCachedErrorsNotStored(t *testing.T) {
	c, next, mr := newCached(t)
	next.fail = true

	_, _, err := c.Geocode(context.Background(), "Shibuya")
	require.Error(t, err)
	assert.False(t, mr.Exists(KeyPrefix+"shibuya"))

	next.fail = false
	_, ok, err := c.Geocode(context.Background(), "Shibuya")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, next.calls["Shibuya"])
}

func TestCachedWithoutRedis(t *testing.T) {
	next := &countingGeocoder{calls: map[string]int{}, known: map[string]geo.Coord{}}
	c := &Cached{Next: next}
	_, ok, err := c.Geocode(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, _ = c.Geocode(context.Background(), "x")
	assert.Equal(t, 2, next.calls["x"])
}

func TestCachedRedisDown(t *testing.T) {
	c, next, mr := newCached(t)
	mr.Close()
	co, ok, err := c.Geocode(context.Background(), "Shibuya")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 35.6595, co.Lat)
	assert.Equal(t, 1, next.calls["Shibuya"])
}
