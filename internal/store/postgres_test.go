package store

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// newTestPostgres connects to TEST_DATABASE_URL and starts from empty tables.
// Tests using it are skipped when the variable is unset.
func newTestPostgres(t *testing.T, opts Options) *Postgres {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	p := NewPostgres(pool, opts)
	require.NoError(t, p.Migrate(ctx))
	require.NoError(t, p.DeleteAllData(ctx))
	return p
}

func TestPostgres_ImportPageDelete(t *testing.T) {
	p := newTestPostgres(t, Options{EmbedStationNames: true})
	ctx := context.Background()

	importFixture(t, p)

	n, err := p.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	page, err := p.Page(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 4)
	require.Equal(t, []string{"TH-1", "TH-2", "TH-3", "TH-4"},
		[]string{page[0].Model, page[1].Model, page[2].Model, page[3].Model}, "file order is kept")
	require.Equal(t, "North", page[0].BaseStationName)
	require.False(t, page[3].HasBaseStation())

	name, err := p.BaseStationName(ctx, page[1].BaseStationID)
	require.NoError(t, err)
	require.Equal(t, "South", name)

	require.NoError(t, p.DeleteSensor(ctx, page[0].ID))
	require.ErrorIs(t, p.DeleteSensor(ctx, page[0].ID), core.ErrSensorNotFound)
	require.ErrorIs(t, p.DeleteSensor(ctx, "not-a-uuid"), core.ErrSensorNotFound)
}

func TestPostgres_ReimportReusesStations(t *testing.T) {
	p := newTestPostgres(t, Options{})
	ctx := context.Background()

	importFixture(t, p)
	importFixture(t, p)

	page, err := p.Page(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 8)
	require.Equal(t, page[0].BaseStationID, page[4].BaseStationID)
}

func TestPostgres_BadImportInsertsNothing(t *testing.T) {
	p := newTestPostgres(t, Options{})
	ctx := context.Background()

	err := p.ImportFile(ctx, core.UploadedFile{
		Name:    "bad.csv",
		Content: strings.NewReader("Model,Status\nTH-1,Active\n,Active\n"),
	})
	require.ErrorIs(t, err, core.ErrInvalidImport)

	n, _ := p.Count(ctx)
	require.Zero(t, n)
}

func TestPostgres_GenerateSampleData(t *testing.T) {
	p := newTestPostgres(t, Options{SampleStations: 2, SampleSensorsPerStation: 5})
	ctx := context.Background()

	require.NoError(t, p.GenerateSampleData(ctx))
	require.NoError(t, p.GenerateSampleData(ctx))

	n, err := p.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 20, n)
}
