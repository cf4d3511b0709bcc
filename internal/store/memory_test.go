package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/stretchr/testify/require"
)

const fixtureCSV = "Model,Status,Base Station Name\n" +
	"TH-1,Active,North\n" +
	"TH-2,Offline,South\n" +
	"TH-3,Active,North\n" +
	"TH-4,Inactive,\n"

func importFixture(t *testing.T, svc core.DataService) {
	t.Helper()
	err := svc.ImportFile(context.Background(), core.UploadedFile{
		Name:    "fixture.csv",
		Content: strings.NewReader(fixtureCSV),
	})
	require.NoError(t, err)
}

func TestMemory_ImportAndPage(t *testing.T) {
	m := NewMemory(Options{})
	importFixture(t, m)
	ctx := context.Background()

	n, err := m.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	page, err := m.Page(ctx, 3, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.Equal(t, "TH-1", page[0].Model)
	require.Equal(t, page[0].BaseStationID, page[2].BaseStationID, "stations are shared by name")
	require.Empty(t, page[0].BaseStationName, "names are not embedded by default")

	rest, err := m.Page(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.False(t, rest[0].HasBaseStation())

	beyond, err := m.Page(ctx, 3, 10)
	require.NoError(t, err)
	require.Empty(t, beyond)

	name, err := m.BaseStationName(ctx, page[1].BaseStationID)
	require.NoError(t, err)
	require.Equal(t, "South", name)
}

func TestMemory_EmbedStationNames(t *testing.T) {
	m := NewMemory(Options{EmbedStationNames: true})
	importFixture(t, m)

	page, err := m.Page(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Equal(t, "North", page[0].BaseStationName)
	require.Empty(t, page[3].BaseStationName)
}

func TestMemory_PageRejectsInvalidSize(t *testing.T) {
	_, err := NewMemory(Options{}).Page(context.Background(), 0, 0)
	require.ErrorIs(t, err, core.ErrInvalidPageSize)
}

func TestMemory_DeleteSensor(t *testing.T) {
	m := NewMemory(Options{})
	importFixture(t, m)
	ctx := context.Background()

	page, _ := m.Page(ctx, 10, 0)
	require.NoError(t, m.DeleteSensor(ctx, page[1].ID))

	n, _ := m.Count(ctx)
	require.Equal(t, 3, n)

	err := m.DeleteSensor(ctx, page[1].ID)
	require.ErrorIs(t, err, core.ErrSensorNotFound)
}

func TestMemory_ImportRejectsBadFile(t *testing.T) {
	m := NewMemory(Options{})

	err := m.ImportFile(context.Background(), core.UploadedFile{
		Name:    "bad.csv",
		Content: strings.NewReader("Model,Base Station Name\nTH-1,North\n"),
	})
	require.ErrorIs(t, err, core.ErrInvalidImport)
	require.ErrorContains(t, err, `missing required column "Status"`)

	n, _ := m.Count(context.Background())
	require.Zero(t, n, "a rejected file inserts nothing")
}

func TestMemory_ImportHonorsLimiter(t *testing.T) {
	lim := core.NewImportLimiter(1, 10*time.Millisecond)
	m := NewMemory(Options{Limiter: lim})
	ctx := context.Background()

	require.NoError(t, lim.Acquire(ctx))
	defer lim.Release()

	err := m.ImportFile(ctx, core.UploadedFile{Name: "x.csv", Content: strings.NewReader(fixtureCSV)})
	require.ErrorIs(t, err, core.ErrTooManyImports)
}

func TestMemory_GenerateAndDeleteAll(t *testing.T) {
	m := NewMemory(Options{SampleStations: 3, SampleSensorsPerStation: 4})
	ctx := context.Background()

	require.NoError(t, m.GenerateSampleData(ctx))
	n, _ := m.Count(ctx)
	require.Equal(t, 12, n)

	page, _ := m.Page(ctx, 12, 0)
	for _, s := range page {
		name, err := m.BaseStationName(ctx, s.BaseStationID)
		require.NoError(t, err)
		require.NotEmpty(t, name)
	}

	require.NoError(t, m.DeleteAllData(ctx))
	n, _ = m.Count(ctx)
	require.Zero(t, n)

	name, _ := m.BaseStationName(ctx, page[0].BaseStationID)
	require.Empty(t, name)
}

func TestMemory_DefaultPageSize(t *testing.T) {
	size, err := NewMemory(Options{}).DefaultPageSize(context.Background())
	require.NoError(t, err)
	require.Equal(t, core.FallbackPageSize, size)

	size, _ = NewMemory(Options{DefaultPageSize: 25}).DefaultPageSize(context.Background())
	require.Equal(t, 25, size)
}
