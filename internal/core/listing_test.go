package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestListing(t *testing.T, svc *fakeService) (*Listing, *NotificationQueue) {
	t.Helper()
	queue := NewNotificationQueue(0)
	l := NewListing(svc, ListingOptions{Notifier: queue})
	require.NoError(t, l.Initialize(context.Background()))
	return l, queue
}

func rowIDs(rows []SensorRecord) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestListing_InitializeUsesServiceDefault(t *testing.T) {
	svc := newFakeService(30)
	svc.defaultSize = 25

	l, _ := newTestListing(t, svc)
	st := l.State()

	require.Equal(t, 25, st.PageSize)
	require.Equal(t, 1, st.CurrentPage)
	require.Equal(t, 30, st.TotalRecords)
	require.Equal(t, 2, st.TotalPages())
	require.Len(t, st.Rows, 25)
}

func TestListing_InitializeFallsBackOnServiceError(t *testing.T) {
	svc := newFakeService(5)
	svc.defaultSizeErr = errBoom

	l, _ := newTestListing(t, svc)
	require.Equal(t, FallbackPageSize, l.State().PageSize)
	require.Len(t, l.State().Rows, 5)
}

func TestListing_InitializeFallsBackOnNonPositiveDefault(t *testing.T) {
	svc := newFakeService(5)
	svc.defaultSize = 0

	l, _ := newTestListing(t, svc)
	require.Equal(t, FallbackPageSize, l.State().PageSize)
}

func TestListing_EmptyDataset(t *testing.T) {
	l, _ := newTestListing(t, newFakeService(0))
	st := l.State()

	require.Equal(t, 0, st.TotalPages())
	require.Equal(t, 1, st.CurrentPage)
	require.Empty(t, st.Rows)
}

func TestListing_NavigationBounds(t *testing.T) {
	svc := newFakeService(25) // 3 pages of 10
	l, _ := newTestListing(t, svc)
	ctx := context.Background()

	calls := svc.pageCalls
	require.NoError(t, l.GoToPrevious(ctx))
	require.NoError(t, l.GoToFirst(ctx))
	require.Equal(t, 1, l.State().CurrentPage)
	require.Equal(t, calls, svc.pageCalls, "no fetch at the lower bound")

	require.NoError(t, l.GoToNext(ctx))
	require.Equal(t, 2, l.State().CurrentPage)
	require.Equal(t, "s-010", l.State().Rows[0].ID)

	require.NoError(t, l.GoToLast(ctx))
	require.Equal(t, 3, l.State().CurrentPage)
	require.Len(t, l.State().Rows, 5)

	calls = svc.pageCalls
	require.NoError(t, l.GoToNext(ctx))
	require.NoError(t, l.GoToLast(ctx))
	require.Equal(t, 3, l.State().CurrentPage)
	require.Equal(t, calls, svc.pageCalls, "no fetch at the upper bound")

	require.NoError(t, l.GoToPrevious(ctx))
	require.Equal(t, 2, l.State().CurrentPage)

	require.NoError(t, l.GoToFirst(ctx))
	require.Equal(t, 1, l.State().CurrentPage)
}

func TestListing_SetPageSizeResetsToFirstPage(t *testing.T) {
	svc := newFakeService(120)
	l, _ := newTestListing(t, svc)
	ctx := context.Background()

	require.NoError(t, l.GoToLast(ctx))
	require.Equal(t, 12, l.State().CurrentPage)

	for _, n := range []int{25, 50, 10, 200} {
		require.NoError(t, l.SetPageSize(ctx, n))
		st := l.State()
		require.Equal(t, 1, st.CurrentPage)
		require.Equal(t, n, st.PageSize)
		require.Equal(t, "s-000", st.Rows[0].ID)
		_ = l.GoToNext(ctx)
	}
}

func TestListing_SetPageSizeRejectsInvalid(t *testing.T) {
	svc := newFakeService(30)
	l, queue := newTestListing(t, svc)
	ctx := context.Background()
	before := l.State()
	calls := svc.pageCalls

	for _, n := range []int{0, -5, 7} {
		err := l.SetPageSize(ctx, n)
		require.ErrorIs(t, err, ErrInvalidPageSize)
	}

	require.Equal(t, calls, svc.pageCalls, "no remote call on precondition failure")
	require.Equal(t, before.PageSize, l.State().PageSize)

	notes := queue.Drain()
	require.Len(t, notes, 3)
	require.Equal(t, SeverityError, notes[0].Severity)
	require.Equal(t, "VAL001", notes[0].Code)
}

func TestListing_FetchFailureLeavesRows(t *testing.T) {
	svc := newFakeService(30)
	l, queue := newTestListing(t, svc)
	before := rowIDs(l.State().Rows)

	svc.pageErr = &ServiceError{Op: "list sensors", Status: 500, Message: "query failed"}
	err := l.GoToNext(context.Background())
	require.Error(t, err)

	require.Equal(t, before, rowIDs(l.State().Rows))
	notes := queue.Drain()
	require.Len(t, notes, 1)
	require.Equal(t, "Error fetching sensors: query failed", notes[0].Message)
}

func TestListing_FailedTransitionKeepsState(t *testing.T) {
	svc := newFakeService(30)
	l, queue := newTestListing(t, svc)
	ctx := context.Background()
	before := l.State()

	svc.pageErr = &ServiceError{Op: "list sensors", Status: 500, Message: "query failed"}

	require.Error(t, l.GoToNext(ctx))
	require.Equal(t, before, l.State())

	require.Error(t, l.GoToLast(ctx))
	require.Equal(t, before, l.State())

	require.Error(t, l.SetPageSize(ctx, 25))
	st := l.State()
	require.Equal(t, 10, st.PageSize)
	require.Equal(t, 1, st.CurrentPage)
	require.Equal(t, rowIDs(before.Rows), rowIDs(st.Rows))
	require.Len(t, queue.Drain(), 3)

	// Navigation continues from the page that is actually shown.
	svc.pageErr = nil
	require.NoError(t, l.GoToNext(ctx))
	require.Equal(t, 2, l.State().CurrentPage)
	require.Equal(t, "s-010", l.State().Rows[0].ID)
}

func TestListing_SupersededFailureIsNotReported(t *testing.T) {
	svc := newFakeService(25)
	l, queue := newTestListing(t, svc)
	ctx := context.Background()

	// The refetch of page 1 fails, but only after the user moved to page 2.
	svc.pageErr = errBoom
	triggered := false
	svc.pageHook = func(offset int) {
		if offset == 0 && !triggered {
			triggered = true
			svc.mu.Lock()
			svc.pageErr = nil
			svc.mu.Unlock()
			require.NoError(t, l.GoToNext(ctx))
		}
	}

	err := l.FetchPage(ctx)
	require.ErrorIs(t, err, ErrSuperseded)
	require.Empty(t, queue.Drain())
	require.Equal(t, 2, l.State().CurrentPage)
}

func TestListing_CountFailureKeepsNewRows(t *testing.T) {
	svc := newFakeService(30)
	l, queue := newTestListing(t, svc)

	svc.countErr = errBoom
	require.Error(t, l.GoToNext(context.Background()))

	st := l.State()
	require.Equal(t, "s-010", st.Rows[0].ID)
	require.Equal(t, 30, st.TotalRecords)
	require.Len(t, queue.Drain(), 1)
}

func TestListing_DeleteRowRefetches(t *testing.T) {
	svc := newFakeService(15)
	l, _ := newTestListing(t, svc)
	calls := svc.pageCalls

	require.NoError(t, l.DeleteRow(context.Background(), "s-003"))

	st := l.State()
	require.Equal(t, calls+1, svc.pageCalls)
	require.Equal(t, 14, st.TotalRecords)
	require.NotContains(t, rowIDs(st.Rows), "s-003")
	require.Len(t, st.Rows, 10)
}

func TestListing_DeleteRowFailureKeepsState(t *testing.T) {
	svc := newFakeService(15)
	l, queue := newTestListing(t, svc)
	before := l.State()
	calls := svc.pageCalls

	svc.deleteErr = &ServiceError{Op: "delete sensor", Status: 500, Message: "locked row"}
	err := l.DeleteRow(context.Background(), "s-003")
	require.Error(t, err)

	require.Equal(t, calls, svc.pageCalls)
	require.Equal(t, rowIDs(before.Rows), rowIDs(l.State().Rows))
	require.Equal(t, before.TotalRecords, l.State().TotalRecords)

	notes := queue.Drain()
	require.Len(t, notes, 1)
	require.Equal(t, "Error deleting sensor: locked row", notes[0].Message)
}

func TestListing_DeleteLastRowOfLastPageStepsBack(t *testing.T) {
	svc := newFakeService(21)
	l, _ := newTestListing(t, svc)
	ctx := context.Background()

	require.NoError(t, l.GoToLast(ctx))
	require.Equal(t, 3, l.State().CurrentPage)
	require.Equal(t, []string{"s-020"}, rowIDs(l.State().Rows))

	require.NoError(t, l.DeleteRow(ctx, "s-020"))

	st := l.State()
	require.Equal(t, 2, st.CurrentPage)
	require.Equal(t, 2, st.TotalPages())
	require.Len(t, st.Rows, 10)
	require.Equal(t, "s-010", st.Rows[0].ID)
}

func TestListing_LatestNavigationWins(t *testing.T) {
	svc := newFakeService(25)
	l, _ := newTestListing(t, svc)
	ctx := context.Background()

	// While the refetch of page 1 is in flight, the user moves to page 2.
	triggered := false
	svc.pageHook = func(offset int) {
		if offset == 0 && !triggered {
			triggered = true
			require.NoError(t, l.GoToNext(ctx))
		}
	}

	err := l.FetchPage(ctx)
	require.True(t, errors.Is(err, ErrSuperseded), "stale fetch must be discarded, got %v", err)

	st := l.State()
	require.Equal(t, 2, st.CurrentPage)
	require.Equal(t, "s-010", st.Rows[0].ID)
}

func TestListing_EnrichesRows(t *testing.T) {
	svc := newFakeService(4)
	queue := NewNotificationQueue(0)
	l := NewListing(svc, ListingOptions{
		Enricher: NewEnricher(svc, 2),
		Notifier: queue,
	})
	require.NoError(t, l.Initialize(context.Background()))

	rows := l.State().Rows
	require.Equal(t, "North", rows[0].BaseStationName)
	require.Equal(t, "South", rows[1].BaseStationName)
	require.Equal(t, 1, svc.lookupCalls["bs-1"], "one lookup per distinct station")
}

func TestListing_Reload(t *testing.T) {
	svc := newFakeService(40)
	l, _ := newTestListing(t, svc)
	ctx := context.Background()

	require.NoError(t, l.SetPageSize(ctx, 25))
	require.NoError(t, l.GoToNext(ctx))

	require.NoError(t, l.Reload(ctx))
	st := l.State()
	require.Equal(t, 10, st.PageSize)
	require.Equal(t, 1, st.CurrentPage)
}
