package pipeline

import (
	"context"
	"testing"

	"livecam-geo/internal/dataset"
	"livecam-geo/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataStrategy(t *testing.T) {
	md := &fakeMetadata{coords: map[string]geo.Coord{
		"found000000": {Lat: 1.5, Lng: 2.5},
		"sentinel000": {},
	}}
	s := &MetadataStrategy{Lookup: md, Keys: mustPool("k0", "k1")}
	ctx := context.Background()

	assert.Equal(t, Found(geo.Coord{Lat: 1.5, Lng: 2.5}), s.Resolve(ctx, "found000000"))
	assert.Equal(t, Miss(""), s.Resolve(ctx, "sentinel000"))
	assert.Equal(t, Miss(""), s.Resolve(ctx, "unknown0000"))
}

func TestMetadataStrategyFallsThroughOnExhaustion(t *testing.T) {
	md := &fakeMetadata{
		coords:    map[string]geo.Coord{"found000000": {Lat: 1.5, Lng: 2.5}},
		quotaKeys: map[string]bool{"k0": true, "k1": true},
	}
	s := &MetadataStrategy{Lookup: md, Keys: mustPool("k0", "k1")}

	assert.Equal(t, Miss(""), s.Resolve(context.Background(), "found000000"))
	assert.Equal(t, 2, md.calls)

	// 每个 ID 各有一份预算
	assert.Equal(t, Miss(""), s.Resolve(context.Background(), "found000000"))
	assert.Equal(t, 4, md.calls)
}

func TestAddressStrategy(t *testing.T) {
	s := &AddressStrategy{
		Info: &fakeInfo{info: map[string][2]string{
			"hit00000000": {"Monterey Bay", "Aquarium"},
			"nomatch0000": {"My Room", "Streamer"},
			"geofail0000": {"Shibuya", "Cams"},
			"blank000000": {" ", ""},
		}},
		Geocoder: &fakeGeocoder{
			known:   map[string]geo.Coord{"Monterey Bay Aquarium": {Lat: 36.6, Lng: -121.9}},
			failing: map[string]bool{"Shibuya Cams": true},
		},
	}
	ctx := context.Background()

	assert.Equal(t, Found(geo.Coord{Lat: 36.6, Lng: -121.9}), s.Resolve(ctx, "hit00000000"))
	assert.Equal(t, Miss("My Room Streamer"), s.Resolve(ctx, "nomatch0000"))
	assert.Equal(t, Miss("Shibuya Cams"), s.Resolve(ctx, "geofail0000"))
	assert.Equal(t, Miss(""), s.Resolve(ctx, "blank000000"))
	assert.Equal(t, Miss(""), s.Resolve(ctx, "noinfo00000"))
}

func newTestResolver() (*Resolver, *fakeGeocoder) {
	gc := &fakeGeocoder{known: map[string]geo.Coord{"Monterey Bay Aquarium": {Lat: 36.6, Lng: -121.9}}}
	return &Resolver{Strategies: []Strategy{
		&MetadataStrategy{
			Lookup: &fakeMetadata{coords: map[string]geo.Coord{"meta0000000": {Lat: 10, Lng: 20}}},
			Keys:   mustPool("k0"),
		},
		&AddressStrategy{
			Info: &fakeInfo{info: map[string][2]string{
				"meta0000000": {"ignored", "ignored"},
				"addr0000000": {"Monterey Bay", "Aquarium"},
				"miss0000000": {"My Room", "Streamer"},
			}},
			Geocoder: gc,
		},
	}}, gc
}

func TestResolverRun(t *testing.T) {
	r, gc := newTestResolver()
	ls := dataset.NewLocationStore()
	blacklist := dataset.NewIDSet("old00000000")
	diagnostics := dataset.NewIDSet()
	cands := dataset.NewIDSet("meta0000000", "addr0000000", "miss0000000", "noinfo00000")

	st, err := r.Run(context.Background(), cands, ls, blacklist, diagnostics)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Found)
	assert.Equal(t, 2, st.Blacklisted)
	assert.Equal(t, map[string]int{"metadata": 1, "address": 1}, st.ByTier)

	c, _ := ls.Get("meta0000000")
	assert.Equal(t, geo.Coord{Lat: 10, Lng: 20}, c)
	c, _ = ls.Get("addr0000000")
	assert.Equal(t, geo.Coord{Lat: 36.6, Lng: -121.9}, c)
	assert.Equal(t, []string{"miss0000000", "noinfo00000", "old00000000"}, blacklist.Sorted())
	assert.Equal(t, []string{"My Room Streamer"}, diagnostics.Sorted())
	assert.NotContains(t, gc.asked, "ignored ignored")
}

func TestResolverIdempotent(t *testing.T) {
	classify := func() ([]string, []string) {
		r, _ := newTestResolver()
		ls := dataset.NewLocationStore()
		bl := dataset.NewIDSet()
		cands := dataset.NewIDSet("meta0000000", "addr0000000", "miss0000000")
		_, err := r.Run(context.Background(), cands, ls, bl, dataset.NewIDSet())
		require.NoError(t, err)
		return ls.IDs(), bl.Sorted()
	}
	ids1, bl1 := classify()
	ids2, bl2 := classify()
	assert.Equal(t, ids1, ids2)
	assert.Equal(t, bl1, bl2)
}

func TestResolverStopsOnCancel(t *testing.T) {
	r, _ := newTestResolver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bl := dataset.NewIDSet()
	_, err := r.Run(ctx, dataset.NewIDSet("miss0000000"), dataset.NewLocationStore(), bl, dataset.NewIDSet())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, bl.Len())
}
