package api

import "github.com/JonMunkholm/SensorDesk/internal/core"

// Wire types of the data service API. The remote package decodes the same types.

// PageSizeResponse is returned by GET /api/v1/settings/page-size.
type PageSizeResponse struct {
	PageSize int `json:"pageSize"`
}

// SensorsResponse is returned by GET /api/v1/sensors.
type SensorsResponse struct {
	Sensors []core.SensorRecord `json:"sensors"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

// CountResponse is returned by GET /api/v1/sensors/count.
type CountResponse struct {
	Count int `json:"count"`
}

// StationNameResponse is returned by GET /api/v1/base-stations/{id}/name.
// Name is empty for an unknown station.
type StationNameResponse struct {
	Name string `json:"name"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Route paths, relative to the server root.
const (
	PathPageSize    = "/api/v1/settings/page-size"
	PathSensors     = "/api/v1/sensors"
	PathSensorCount = "/api/v1/sensors/count"
	PathSensor      = "/api/v1/sensors/{id}"
	PathStationName = "/api/v1/base-stations/{id}/name"
	PathImports     = "/api/v1/imports"
	PathSampleData  = "/api/v1/sample-data"
	PathData        = "/api/v1/data"

	// ImportFormField is the multipart field carrying the CSV file.
	ImportFormField = "file"
)
