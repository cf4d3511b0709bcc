// Package store implements the data service behind the JSON API.
//
// Postgres is the production backend (pgx). Memory keeps the same semantics
// in process and backs local development and the HTTP tests. Cached wraps
// either one with a Redis cache of base station names.
//
// Both backends order sensors by creation time, then id, so page windows are
// stable across requests.
package store

import "github.com/JonMunkholm/SensorDesk/internal/core"

// Options configures a backend.
type Options struct {
	DefaultPageSize   int  // Reported by DefaultPageSize; <= 0 uses core.FallbackPageSize
	EmbedStationNames bool // Join station names into Page results

	SampleStations          int // Stations created by GenerateSampleData
	SampleSensorsPerStation int // Sensors per generated station

	// Limiter gates concurrent imports; nil allows any number.
	Limiter *core.ImportLimiter
}

func (o Options) withDefaults() Options {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = core.FallbackPageSize
	}
	if o.SampleStations <= 0 {
		o.SampleStations = 5
	}
	if o.SampleSensorsPerStation <= 0 {
		o.SampleSensorsPerStation = 20
	}
	return o
}

// newSensor is a sensor to insert; its station is referenced by name.
type newSensor struct {
	Model       string
	Status      string
	StationName string // Empty for no station
}

// fromImportRows converts decoded CSV lines to insert rows.
func fromImportRows(rows []core.ImportRow) []newSensor {
	out := make([]newSensor, len(rows))
	for i, r := range rows {
		out[i] = newSensor{Model: r.Model, Status: r.Status, StationName: r.BaseStationName}
	}
	return out
}

// stationNames returns the distinct non-empty station names in first-seen order.
func stationNames(rows []newSensor) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rows {
		name := r.StationName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
