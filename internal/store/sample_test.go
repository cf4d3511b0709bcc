package store

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleDataset(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	rows := sampleDataset(rng, 10, 3)

	require.Len(t, rows, 30)

	names := stationNames(rows)
	require.Len(t, names, 10, "station names are unique per run")
	for _, r := range rows {
		require.NotEmpty(t, r.Model)
		require.Contains(t, sampleStatuses, r.Status)
	}
}

func TestStationNames(t *testing.T) {
	rows := []newSensor{
		{StationName: "North"},
		{StationName: ""},
		{StationName: "South"},
		{StationName: "North"},
	}
	require.Equal(t, []string{"North", "South"}, stationNames(rows))
}
