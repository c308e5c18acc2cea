package historydb

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(s string) types.Date {
	d, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testSeries() types.Series {
	base := time.Date(2024, 3, 12, 0, 0, 0, 123456000, time.UTC)
	return types.Series{
		{State: "15.5", Timestamp: base.Add(2 * time.Hour)},
		{State: "10.0", Timestamp: base},
		{State: "unavailable", Timestamp: base.Add(time.Hour)},
	}
}

func TestStorePutGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	p := types.Period{Start: day("2024-03-12"), End: day("2024-03-12")}

	_, ok, err := store.Get(ctx, "sensor.washer_energy", p)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "sensor.washer_energy", p, testSeries()))

	got, ok, err := store.Get(ctx, "sensor.washer_energy", p)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 3)
	for i, want := range testSeries() {
		assert.Equal(t, want.State, got[i].State)
		assert.True(t, want.Timestamp.Equal(got[i].Timestamp), "sample %d", i)
	}

	// other periods and entities are separate entries
	_, ok, err = store.Get(ctx, "sensor.washer_energy", types.Period{Start: day("2024-03-11"), End: day("2024-03-12")})
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, "sensor.dryer_energy", p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePutReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	p := types.Period{Start: day("2024-03-12"), End: day("2024-03-12")}

	require.NoError(t, store.Put(ctx, "sensor.a", p, testSeries()))
	require.NoError(t, store.Put(ctx, "sensor.a", p, testSeries()[:1]))

	got, ok, err := store.Get(ctx, "sensor.a", p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestStorePrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	fetchedAt := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fetchedAt }
	p := types.Period{Start: day("2024-03-12"), End: day("2024-03-12")}
	require.NoError(t, store.Put(ctx, "sensor.a", p, testSeries()))

	// entries fetched exactly at the cutoff are kept
	n, err := store.Prune(ctx, fetchedAt)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.Prune(ctx, fetchedAt.Add(time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, err := store.Get(ctx, "sensor.a", p)
	require.NoError(t, err)
	assert.False(t, ok)
}

type countingFetcher struct {
	mu     sync.Mutex
	calls  int
	series types.Series
}

func (f *countingFetcher) FetchSeries(ctx context.Context, entityID string, period types.Period) types.Series {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.series
}

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) CacheHit()  { o.hits++ }
func (o *countingObserver) CacheMiss() { o.misses++ }

func newTestCachedFetcher(t *testing.T, next Fetcher, obs Observer) *CachedFetcher {
	f := NewCachedFetcher(next, openTestStore(t), zap.NewNop(), obs)
	f.now = func() time.Time { return time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC) }
	return f
}

func TestCachedFetcherServesPastPeriodsFromStore(t *testing.T) {
	next := &countingFetcher{series: testSeries()}
	obs := &countingObserver{}
	f := newTestCachedFetcher(t, next, obs)
	yesterday := types.Period{Start: day("2024-03-12"), End: day("2024-03-12")}

	first := f.FetchSeries(context.Background(), "sensor.a", yesterday)
	second := f.FetchSeries(context.Background(), "sensor.a", yesterday)

	assert.Equal(t, 1, next.calls)
	assert.Len(t, first, 3)
	assert.Len(t, second, 3)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestCachedFetcherBypassesPeriodsReachingToday(t *testing.T) {
	next := &countingFetcher{series: testSeries()}
	obs := &countingObserver{}
	f := newTestCachedFetcher(t, next, obs)
	week := types.Period{Start: day("2024-03-10"), End: day("2024-03-13")}

	f.FetchSeries(context.Background(), "sensor.a", week)
	f.FetchSeries(context.Background(), "sensor.a", week)

	assert.Equal(t, 2, next.calls)
	assert.Zero(t, obs.hits+obs.misses)
}

func TestCachedFetcherDoesNotCacheEmptySeries(t *testing.T) {
	next := &countingFetcher{series: types.Series{}}
	f := newTestCachedFetcher(t, next, nil)
	yesterday := types.Period{Start: day("2024-03-12"), End: day("2024-03-12")}

	assert.Empty(t, f.FetchSeries(context.Background(), "sensor.a", yesterday))
	assert.Empty(t, f.FetchSeries(context.Background(), "sensor.a", yesterday))
	assert.Equal(t, 2, next.calls)
}

func TestCachedFetcherPassesInvertedPeriods(t *testing.T) {
	next := &countingFetcher{series: types.Series{}}
	f := newTestCachedFetcher(t, next, nil)
	inverted := types.Period{Start: day("2024-03-10"), End: day("2024-03-01")}

	assert.Empty(t, f.FetchSeries(context.Background(), "sensor.a", inverted))
	assert.Equal(t, 1, next.calls)
}

func TestCachedFetcherWaitsForUTCWindowToClose(t *testing.T) {
	next := &countingFetcher{series: testSeries()}
	obs := &countingObserver{}
	f := newTestCachedFetcher(t, next, obs)
	brussels := time.FixedZone("CET", 3600)
	// local date is already 2024-03-13, the UTC day 2024-03-12 is still open
	now := time.Date(2024, 3, 13, 0, 30, 0, 0, brussels)
	f.now = func() time.Time { return now }
	previousDay := types.Period{Start: day("2024-03-12"), End: day("2024-03-12")}

	f.FetchSeries(context.Background(), "sensor.a", previousDay)
	assert.Equal(t, 1, next.calls)
	assert.Zero(t, obs.hits+obs.misses)

	now = now.Add(2 * time.Hour)
	f.FetchSeries(context.Background(), "sensor.a", previousDay)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 1, obs.misses)

	f.FetchSeries(context.Background(), "sensor.a", previousDay)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 1, obs.hits)
}

func TestCachedFetcherCachesClosedUTCDayWestOfUTC(t *testing.T) {
	next := &countingFetcher{series: testSeries()}
	f := newTestCachedFetcher(t, next, nil)
	// local date is still 2024-03-12, its UTC window closed two hours ago
	f.now = func() time.Time { return time.Date(2024, 3, 12, 21, 0, 0, 0, time.FixedZone("EST", -5*3600)) }
	localToday := types.Period{Start: day("2024-03-12"), End: day("2024-03-12")}

	f.FetchSeries(context.Background(), "sensor.a", localToday)
	f.FetchSeries(context.Background(), "sensor.a", localToday)
	assert.Equal(t, 1, next.calls)
}
