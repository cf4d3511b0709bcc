package core

// listing.go implements the paginated sensor listing.
//
// The Listing owns a single PageState value. Every remote call happens
// outside the lock; results are committed only if no newer fetch was issued
// in the meantime (latest navigation wins, by sequence token rather than by
// arrival order).

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JonMunkholm/SensorDesk/internal/logging"
)

// ListingOptions configures a Listing.
type ListingOptions struct {
	PageSizeOptions []int     // Allowed page sizes; nil uses DefaultPageSizeOptions
	FallbackSize    int       // Used when the service default is unavailable; 0 uses FallbackPageSize
	Enricher        *Enricher // Optional; resolves missing station names after each page fetch
	Notifier        Notifier  // Optional; receives user-facing failures
}

// Listing is the paginated sensor table controller for one view.
type Listing struct {
	src      SensorSource
	enricher *Enricher
	notify   Notifier
	options  []int
	fallback int

	mu    sync.Mutex
	state PageState
	seq   uint64 // Token of the most recently issued fetch
}

// NewListing creates a Listing backed by src. Call Initialize before use.
func NewListing(src SensorSource, opts ListingOptions) *Listing {
	options := opts.PageSizeOptions
	if len(options) == 0 {
		options = DefaultPageSizeOptions
	}
	fallback := opts.FallbackSize
	if fallback <= 0 {
		fallback = FallbackPageSize
	}
	notify := opts.Notifier
	if notify == nil {
		notify = discardNotifier{}
	}
	return &Listing{
		src:      src,
		enricher: opts.Enricher,
		notify:   notify,
		options:  options,
		fallback: fallback,
		state:    NewPageState(fallback),
	}
}

// State returns the current page state.
func (l *Listing) State() PageState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// PageSizeOptions returns the allowed page sizes.
func (l *Listing) PageSizeOptions() []int {
	return l.options
}

// Initialize fetches the service default page size, falling back to the
// configured default on failure, then loads the first page.
func (l *Listing) Initialize(ctx context.Context) error {
	size, err := l.src.DefaultPageSize(ctx)
	if err != nil || size <= 0 {
		logging.FromContext(ctx).Warn("default page size unavailable, using fallback",
			"fallback", l.fallback,
			"error", err,
		)
		size = l.fallback
	}

	return l.fetch(ctx, NewPageState(size))
}

// Reload rebuilds the view from scratch. Implements Reloader.
func (l *Listing) Reload(ctx context.Context) error {
	return l.Initialize(ctx)
}

// FetchPage loads the rows of the current page, then refreshes the total count.
//
// On a page failure the state is left unchanged. If the count fails after the
// rows were loaded, the rows stay replaced and the totals keep their old value.
// Returns ErrSuperseded when a newer fetch was issued before this one finished.
func (l *Listing) FetchPage(ctx context.Context) error {
	return l.fetch(ctx, l.State())
}

// fetch loads the page described by req. req becomes the state, with the
// new rows, only once the page arrived and no newer fetch was issued.
func (l *Listing) fetch(ctx context.Context, req PageState) error {
	l.mu.Lock()
	l.seq++
	token := l.seq
	l.mu.Unlock()

	rows, err := l.src.Page(ctx, req.PageSize, req.Offset())
	if err != nil {
		if l.superseded(token) {
			return ErrSuperseded
		}
		l.notify.Notify(ctx, errorNotification("Error", "Error fetching sensors: ", err))
		return fmt.Errorf("fetch page %d: %w", req.CurrentPage, err)
	}
	if l.enricher != nil {
		rows = l.enricher.Enrich(ctx, rows)
	}

	if !l.commit(token, func(PageState) PageState { return req.WithRows(rows) }) {
		return ErrSuperseded
	}

	total, err := l.src.Count(ctx)
	if err != nil {
		if l.superseded(token) {
			return ErrSuperseded
		}
		l.notify.Notify(ctx, errorNotification("Error", "Error fetching sensor count: ", err))
		return fmt.Errorf("count sensors: %w", err)
	}

	if !l.commit(token, func(s PageState) PageState { return s.WithTotal(total) }) {
		return ErrSuperseded
	}
	return nil
}

// commit applies fn to the state if token is still the latest fetch.
func (l *Listing) commit(token uint64, fn func(PageState) PageState) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.seq {
		return false
	}
	l.state = fn(l.state)
	return true
}

func (l *Listing) superseded(token uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return token != l.seq
}

// SetPageSize changes the page size and reloads from the first page.
// A size that is not positive or not allowed is reported without a remote call.
func (l *Listing) SetPageSize(ctx context.Context, n int) error {
	if !IsAllowedPageSize(n, l.options) {
		err := fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
		l.notify.Notify(ctx, Notification{
			Title:    "Invalid page size",
			Message:  fmt.Sprintf("Page size must be one of %v", l.options),
			Severity: SeverityError,
			Code:     MapError(err).Code,
		})
		return err
	}

	return l.fetch(ctx, l.State().WithPageSize(n))
}

// GoToFirst moves to page 1. No-op if already there.
func (l *Listing) GoToFirst(ctx context.Context) error {
	return l.goTo(ctx, func(PageState) int { return 1 })
}

// GoToPrevious moves back one page. No-op on page 1.
func (l *Listing) GoToPrevious(ctx context.Context) error {
	return l.goTo(ctx, func(s PageState) int { return s.CurrentPage - 1 })
}

// GoToNext moves forward one page. No-op on the last page.
func (l *Listing) GoToNext(ctx context.Context) error {
	return l.goTo(ctx, func(s PageState) int { return s.CurrentPage + 1 })
}

// GoToLast moves to the last page. No-op if already there.
func (l *Listing) GoToLast(ctx context.Context) error {
	return l.goTo(ctx, func(s PageState) int { return s.LastPage() })
}

// goTo clamps the target page and fetches it unless the page did not change.
// The current page only moves once the target page has loaded.
func (l *Listing) goTo(ctx context.Context, target func(PageState) int) error {
	cur := l.State()
	next := cur.WithPage(target(cur))
	if next.CurrentPage == cur.CurrentPage {
		return nil
	}
	return l.fetch(ctx, next)
}

// DeleteRow deletes a sensor and re-fetches the current page.
//
// If the delete emptied the last page, the view steps back to the new last
// page and fetches once more.
func (l *Listing) DeleteRow(ctx context.Context, sensorID string) error {
	if err := l.src.DeleteSensor(ctx, sensorID); err != nil {
		l.notify.Notify(ctx, errorNotification("Error", "Error deleting sensor: ", err))
		return fmt.Errorf("delete sensor %s: %w", sensorID, err)
	}

	if err := l.FetchPage(ctx); err != nil {
		return err
	}

	cur := l.State()
	if len(cur.Rows) > 0 || cur.CurrentPage <= cur.LastPage() {
		return nil
	}
	if err := l.fetch(ctx, cur.WithPage(cur.LastPage())); err != nil && !errors.Is(err, ErrSuperseded) {
		return err
	}
	return nil
}
