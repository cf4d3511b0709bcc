package core

import (
	"context"
	"io"
)

// SensorRecord is one row of the sensor inventory as returned by the data service.
// The client copy is disposable: it is rebuilt on every page fetch.
type SensorRecord struct {
	ID              string `json:"id"`
	Model           string `json:"model"`
	Status          string `json:"status"`
	BaseStationID   string `json:"baseStationId,omitempty"`   // Empty when the sensor has no station
	BaseStationName string `json:"baseStationName,omitempty"` // Derived: joined by the service or resolved by the Enricher
}

// HasBaseStation reports whether the record references a base station.
func (r SensorRecord) HasBaseStation() bool {
	return r.BaseStationID != ""
}

// NeedsStationName reports whether the display name must be resolved by a lookup.
func (r SensorRecord) NeedsStationName() bool {
	return r.HasBaseStation() && r.BaseStationName == ""
}

// BaseStation is referenced, never owned, by SensorRecord.
type BaseStation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UploadedFile is a CSV file handed to the data service for parsing.
type UploadedFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// SensorSource serves pages of sensor records and single-row deletes.
type SensorSource interface {
	DefaultPageSize(ctx context.Context) (int, error)
	Page(ctx context.Context, pageSize, offset int) ([]SensorRecord, error)
	Count(ctx context.Context) (int, error)
	DeleteSensor(ctx context.Context, sensorID string) error
}

// StationResolver resolves a base station id to its display name.
// An unknown id resolves to "" without error.
type StationResolver interface {
	BaseStationName(ctx context.Context, baseStationID string) (string, error)
}

// BulkService performs whole-dataset operations.
type BulkService interface {
	ImportFile(ctx context.Context, file UploadedFile) error
	GenerateSampleData(ctx context.Context) error
	DeleteAllData(ctx context.Context) error
}

// DataService is the full remote data service consumed by the UI.
// Implemented over HTTP by the remote package and directly by the store package.
type DataService interface {
	SensorSource
	StationResolver
	BulkService
}

// Reloader rebuilds a view from scratch after a bulk mutation.
type Reloader interface {
	Reload(ctx context.Context) error
}
