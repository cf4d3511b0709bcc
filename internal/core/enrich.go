package core

// enrich.go resolves base station display names for rows that the data
// service returned without one.
//
// Lookups fan out one per distinct station id and the Enricher joins on all
// of them before returning. A failed lookup degrades that station's rows to
// an empty name; the batch itself never fails.

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxLookups bounds concurrent station lookups per Enrich call.
const DefaultMaxLookups = 8

// DefaultLookupTimeout bounds one shared station lookup.
const DefaultLookupTimeout = 10 * time.Second

// Enricher attaches BaseStationName to sensor rows via per-station lookups.
type Enricher struct {
	resolver   StationResolver
	maxLookups int
	timeout    time.Duration

	// flight collapses identical lookups issued by concurrent Enrich calls
	// (e.g. two view sessions on the same page).
	flight singleflight.Group
}

// NewEnricher creates an Enricher. maxLookups <= 0 uses DefaultMaxLookups.
func NewEnricher(resolver StationResolver, maxLookups int) *Enricher {
	if maxLookups <= 0 {
		maxLookups = DefaultMaxLookups
	}
	return &Enricher{
		resolver:   resolver,
		maxLookups: maxLookups,
		timeout:    DefaultLookupTimeout,
	}
}

// SetLookupTimeout changes the per-lookup timeout. Call before first use.
func (e *Enricher) SetLookupTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

// Enrich returns a new slice, same length and order as rows, in which every
// row that referenced a station without a name carries the resolved name,
// or "" if its lookup failed. Rows that already have a name, or no station,
// are copied unchanged. The input slice is not modified.
func (e *Enricher) Enrich(ctx context.Context, rows []SensorRecord) []SensorRecord {
	out := make([]SensorRecord, len(rows))
	copy(out, rows)

	ids := distinctStationIDs(rows)
	if len(ids) == 0 {
		return out
	}

	names := make(map[string]string, len(ids))
	var mu sync.Mutex

	logger := logging.FromContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxLookups)
	for _, id := range ids {
		g.Go(func() error {
			name, err := e.lookup(gctx, id)
			if err != nil {
				// Partial failure: the row shows an empty name.
				logger.Debug("station lookup failed", "base_station_id", id, "error", err)
				name = ""
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups never return an error

	for i := range out {
		if out[i].NeedsStationName() {
			out[i].BaseStationName = names[out[i].BaseStationID]
		}
	}
	return out
}

// lookup resolves one station id, sharing in-flight calls for the same id.
//
// The shared call runs detached from any one caller's cancellation, bounded
// by the lookup timeout; each caller still stops waiting when its own ctx ends.
func (e *Enricher) lookup(ctx context.Context, id string) (string, error) {
	ch := e.flight.DoChan(id, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		return e.resolver.BaseStationName(lctx, id)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// distinctStationIDs returns the station ids needing a lookup, in first-seen order.
func distinctStationIDs(rows []SensorRecord) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range rows {
		if !r.NeedsStationName() || seen[r.BaseStationID] {
			continue
		}
		seen[r.BaseStationID] = true
		ids = append(ids, r.BaseStationID)
	}
	return ids
}
