package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// countingStore counts station lookups reaching the backend.
type countingStore struct {
	*Memory
	lookups int

	// afterLookup runs once the backend answered, before the caller sees it.
	afterLookup func()
}

func (c *countingStore) BaseStationName(ctx context.Context, id string) (string, error) {
	c.lookups++
	name, err := c.Memory.BaseStationName(ctx, id)
	if c.afterLookup != nil {
		c.afterLookup()
	}
	return name, err
}

// nameKeys returns the cached station name keys, without the generation key.
func nameKeys(mr *miniredis.Miniredis) []string {
	var keys []string
	for _, k := range mr.Keys() {
		if k != stationGenKey {
			keys = append(keys, k)
		}
	}
	return keys
}

func setupCached(t *testing.T) (*miniredis.Miniredis, *countingStore, *Cached) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	backend := &countingStore{Memory: NewMemory(Options{})}
	return mr, backend, NewCached(backend, rdb, time.Minute)
}

func TestCached_StationNameHitsCache(t *testing.T) {
	mr, backend, cached := setupCached(t)
	ctx := context.Background()
	importFixture(t, cached)

	page, err := cached.Page(ctx, 1, 0)
	require.NoError(t, err)
	id := page[0].BaseStationID

	for i := 0; i < 3; i++ {
		name, err := cached.BaseStationName(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "North", name)
	}
	require.Equal(t, 1, backend.lookups)

	got, err := mr.Get(stationKey(0, id))
	require.NoError(t, err)
	require.Equal(t, "North", got)
	require.Equal(t, time.Minute, mr.TTL(stationKey(0, id)))
}

func TestCached_UnknownStationNotCached(t *testing.T) {
	mr, backend, cached := setupCached(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		name, err := cached.BaseStationName(ctx, "missing")
		require.NoError(t, err)
		require.Empty(t, name)
	}
	require.Equal(t, 2, backend.lookups)
	require.False(t, mr.Exists(stationKey(0, "missing")))
}

func TestCached_BulkMutationsPurge(t *testing.T) {
	mr, _, cached := setupCached(t)
	ctx := context.Background()
	importFixture(t, cached)

	page, _ := cached.Page(ctx, 10, 0)
	_, _ = cached.BaseStationName(ctx, page[0].BaseStationID)
	_, _ = cached.BaseStationName(ctx, page[1].BaseStationID)
	require.Len(t, nameKeys(mr), 2)

	require.NoError(t, cached.DeleteAllData(ctx))
	require.Empty(t, nameKeys(mr))

	importFixture(t, cached)
	page, _ = cached.Page(ctx, 10, 0)
	_, _ = cached.BaseStationName(ctx, page[0].BaseStationID)
	require.NoError(t, cached.GenerateSampleData(ctx))
	require.Empty(t, nameKeys(mr))
}

func TestCached_LookupRacingPurgeIsNotServed(t *testing.T) {
	_, backend, cached := setupCached(t)
	ctx := context.Background()
	importFixture(t, cached)

	page, _ := cached.Page(ctx, 1, 0)
	id := page[0].BaseStationID

	// The backend answers, then the data is deleted before the name is cached.
	backend.afterLookup = func() {
		backend.afterLookup = nil
		require.NoError(t, cached.DeleteAllData(ctx))
	}
	name, err := cached.BaseStationName(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "North", name)

	name, err = cached.BaseStationName(ctx, id)
	require.NoError(t, err)
	require.Empty(t, name, "name read before the purge must not be served")
	require.Equal(t, 2, backend.lookups)
}

func TestCached_FailedMutationKeepsCache(t *testing.T) {
	mr, _, cached := setupCached(t)
	ctx := context.Background()
	importFixture(t, cached)

	page, _ := cached.Page(ctx, 1, 0)
	_, _ = cached.BaseStationName(ctx, page[0].BaseStationID)

	err := cached.ImportFile(ctx, core.UploadedFile{Name: "bad.csv", Content: strings.NewReader("nope\n")})
	require.Error(t, err)
	require.Len(t, nameKeys(mr), 1)
}

func TestCached_RedisDownFallsThrough(t *testing.T) {
	mr, backend, cached := setupCached(t)
	ctx := context.Background()
	importFixture(t, cached)
	page, _ := cached.Page(ctx, 1, 0)

	mr.Close()

	name, err := cached.BaseStationName(ctx, page[0].BaseStationID)
	require.NoError(t, err)
	require.Equal(t, "North", name)
	require.Equal(t, 1, backend.lookups)
}
