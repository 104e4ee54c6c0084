package pipeline

import (
	"context"
	"errors"
	"fmt"

	"livecam-geo/internal/dataset"
	"livecam-geo/internal/feed"
	"livecam-geo/internal/geo"
	"livecam-geo/internal/keypool"
)

var errUpstream = errors.New("upstream unavailable")

func quota(key string) error {
	return fmt.Errorf("key %s: %w", key, keypool.ErrQuotaExceeded)
}

// fakeLive：status 取值 live / ended / error / quota；quotaKeys 中的密钥始终配额失败
type fakeLive struct {
	status    map[string]string
	quotaKeys map[string]bool
	calls     map[string]int
	keysSeen  []string
}

func newFakeLive(status map[string]string) *fakeLive {
	return &fakeLive{status: status, quotaKeys: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeLive) IsLive(_ context.Context, id, key string) (bool, error) {
	f.calls[id]++
	f.keysSeen = append(f.keysSeen, key)
	if f.quotaKeys[key] {
		return false, quota(key)
	}
	switch f.status[id] {
	case "live":
		return true, nil
	case "ended":
		return false, nil
	case "quota":
		return false, quota(key)
	}
	return false, errUpstream
}

// fakeSearch：remaining 为每把密钥可用的调用次数，用尽后配额失败；未列出的密钥不限
type fakeSearch struct {
	results   map[string][]string
	failing   map[string]bool
	remaining map[string]int
	queries   []string
}

func (f *fakeSearch) Search(_ context.Context, q, key string) ([]string, error) {
	f.queries = append(f.queries, q)
	if n, ok := f.remaining[key]; ok {
		if n <= 0 {
			return nil, quota(key)
		}
		f.remaining[key] = n - 1
	}
	if f.failing[q] {
		return nil, errUpstream
	}
	return f.results[q], nil
}

// fakeFeed：pages 以 start 为键；未列出的 start 使用 fallback
type fakeFeed struct {
	pages    map[int]*feed.Page
	fallback func(start int) *feed.Page
	err      error
	starts   []int
}

func (f *fakeFeed) Page(_ context.Context, start int) (*feed.Page, error) {
	f.starts = append(f.starts, start)
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.pages[start]; ok {
		return p, nil
	}
	if f.fallback != nil {
		return f.fallback(start), nil
	}
	return &feed.Page{Total: 0}, nil
}

type fakeMetadata struct {
	coords    map[string]geo.Coord
	quotaKeys map[string]bool
	calls     int
}

func (f *fakeMetadata) RecordingLocation(_ context.Context, id, key string) (geo.Coord, bool, error) {
	f.calls++
	if f.quotaKeys[key] {
		return geo.Coord{}, false, quota(key)
	}
	c, ok := f.coords[id]
	return c, ok, nil
}

type fakeInfo struct {
	info map[string][2]string
}

func (f *fakeInfo) Info(_ context.Context, id string) (string, string, error) {
	v, ok := f.info[id]
	if !ok {
		return "", "", errUpstream
	}
	return v[0], v[1], nil
}

type fakeGeocoder struct {
	known   map[string]geo.Coord
	failing map[string]bool
	asked   []string
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (geo.Coord, bool, error) {
	f.asked = append(f.asked, address)
	if f.failing[address] {
		return geo.Coord{}, false, errUpstream
	}
	c, ok := f.known[address]
	return c, ok, nil
}

type memInputs struct {
	locations *dataset.LocationStore
	blacklist dataset.IDSet
	queries   []string
}

func (m *memInputs) Locations(context.Context) (*dataset.LocationStore, error) {
	return m.locations, nil
}
func (m *memInputs) Blacklist(context.Context) (dataset.IDSet, error) { return m.blacklist, nil }
func (m *memInputs) Queries(context.Context) ([]string, error)        { return m.queries, nil }

type memOutputs struct {
	locations   *dataset.LocationStore
	blacklist   dataset.IDSet
	diagnostics dataset.IDSet
	order       []string
}

func (m *memOutputs) SaveLocations(_ context.Context, ls *dataset.LocationStore) error {
	m.locations = ls
	m.order = append(m.order, "geo")
	return nil
}

func (m *memOutputs) SaveBlacklist(_ context.Context, s dataset.IDSet) error {
	m.blacklist = s
	m.order = append(m.order, "blacklist")
	return nil
}

func (m *memOutputs) SaveDiagnostics(_ context.Context, s dataset.IDSet) error {
	m.diagnostics = s
	m.order = append(m.order, "diagnostics")
	return nil
}

func mustPool(keys ...string) *keypool.Pool {
	p, err := keypool.New(keys)
	if err != nil {
		panic(err)
	}
	return p
}

func storeOf(entries map[string]geo.Coord) *dataset.LocationStore {
	ls := dataset.NewLocationStore()
	for id, c := range entries {
		if err := ls.Put(id, c); err != nil {
			panic(err)
		}
	}
	return ls
}
