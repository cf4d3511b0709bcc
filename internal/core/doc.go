// Package core provides the business logic for the sensor inventory UI.
//
// The package holds the view controllers and has no HTTP or rendering
// dependencies. It talks to the data service only through the interfaces in
// types.go, so the same controllers run against the HTTP client in package
// remote, against the PostgreSQL store directly, or against fakes in tests.
//
// # Controllers
//
//   - [Listing]: paginated table state ([PageState]), page size, navigation
//     and single-row deletes.
//   - [Enricher]: resolves missing base station names with one concurrent
//     lookup per distinct station, joining on all of them.
//   - [Bulk]: CSV import, CSV/XLSX export, sample data generation and
//     delete-all, each followed by a full reload of the bound view.
//
// # Page State
//
// A [PageState] is replaced wholesale on every transition. Each fetch is
// tagged with a sequence token, and a result is applied only if no newer
// fetch was issued while it was in flight:
//
//	l := core.NewListing(svc, core.ListingOptions{Notifier: queue})
//	if err := l.Initialize(ctx); err != nil { ... }
//	_ = l.GoToNext(ctx)
//	st := l.State() // st.CurrentPage == 2
//
// # Error Handling
//
// Nothing here is fatal. Failures are returned to the caller and also queued
// as [Notification] values for the view. Technical errors are mapped to coded
// user messages with [MapError]; see error_messages.go for the code table.
package core
