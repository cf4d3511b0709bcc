// Package templates holds the templ components of the sensor inventory UI.
//
// Edit the .templ files and run `templ generate`; the *_templ.go files are
// generated and committed.
package templates

import "github.com/JonMunkholm/SensorDesk/internal/core"

// HTMXScript is the htmx build loaded by every page. The CSP in package web
// allows its origin.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// TableID is the element swapped by every listing action.
const TableID = "sensor-table"

// TableView is the sensor table of one view session.
type TableView struct {
	State           core.PageState
	PageSizeOptions []int
}

// offListSize reports whether the current size is missing from the selector,
// which happens when the service default is not an allowed size.
func (v TableView) offListSize() bool {
	return !core.IsAllowedPageSize(v.State.PageSize, v.PageSizeOptions)
}

// DataView is the bulk data panel of one view session.
type DataView struct {
	State   core.BulkState
	Pending string // Name of the running operation, if any
}

func (v DataView) pending() bool {
	return v.State == core.BulkPending
}

// DashboardView is everything the full page shows.
type DashboardView struct {
	Title string
	Table TableView
	Data  DataView
}
