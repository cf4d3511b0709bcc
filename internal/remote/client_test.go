package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/api"
	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/store"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

// newTestClient runs the real API over an in-memory store.
func newTestClient(t *testing.T, opts store.Options) (*Client, *store.Memory) {
	t.Helper()
	mem := store.NewMemory(opts)
	ts := httptest.NewServer(api.NewServer(mem, api.Options{}).Router())
	t.Cleanup(ts.Close)
	return New(Options{BaseURL: ts.URL + "/"}), mem
}

func TestClient_RoundTrip(t *testing.T) {
	c, _ := newTestClient(t, store.Options{DefaultPageSize: 50})
	ctx := context.Background()

	size, err := c.DefaultPageSize(ctx)
	require.NoError(t, err)
	require.Equal(t, 50, size)

	err = c.ImportFile(ctx, core.UploadedFile{
		Name:    "sensors.csv",
		Content: strings.NewReader("Model,Status,Base Station Name\nTH-1,Active,North\nTH-2,Offline,\n"),
	})
	require.NoError(t, err)

	n, err := c.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	page, err := c.Page(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "TH-1", page[0].Model)
	require.True(t, page[0].NeedsStationName())

	name, err := c.BaseStationName(ctx, page[0].BaseStationID)
	require.NoError(t, err)
	require.Equal(t, "North", name)

	require.NoError(t, c.DeleteSensor(ctx, page[1].ID))
	n, _ = c.Count(ctx)
	require.Equal(t, 1, n)

	require.NoError(t, c.GenerateSampleData(ctx))
	n, _ = c.Count(ctx)
	require.Equal(t, 101, n)

	require.NoError(t, c.DeleteAllData(ctx))
	n, _ = c.Count(ctx)
	require.Zero(t, n)
}

func TestClient_ServiceErrorCarriesMessage(t *testing.T) {
	c, _ := newTestClient(t, store.Options{})
	ctx := context.Background()

	err := c.DeleteSensor(ctx, "nope")
	var se *core.ServiceError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusNotFound, se.Status)
	require.Equal(t, "SVC003", se.Code)
	require.Equal(t, "sensor not found: nope", core.ServiceMessage(err))

	err = c.ImportFile(ctx, core.UploadedFile{Name: "bad.csv", Content: strings.NewReader("Model\nA\n")})
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadRequest, se.Status)
	require.Contains(t, se.Message, `missing required column "Status"`)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	_, err := New(Options{BaseURL: ts.URL}).Count(context.Background())
	var se *core.ServiceError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Status)
	require.Equal(t, "upstream exploded", se.Message)
}

func TestClient_NoRetry(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(ts.Close)

	err := New(Options{BaseURL: ts.URL}).GenerateSampleData(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, "Service Unavailable", core.ServiceMessage(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})

	_, err := New(Options{BaseURL: ts.URL, Timeout: 50 * time.Millisecond}).Count(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	require.Equal(t, "OPS004", core.MapError(err).Code)
}

func TestClient_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(Options{BaseURL: url}).Count(context.Background())
	require.Error(t, err)
	require.Equal(t, "SVC001", core.MapError(err).Code)
}

func TestClient_ForwardsRequestID(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"count":3}`)
	}))
	t.Cleanup(ts.Close)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	n, err := New(Options{BaseURL: ts.URL}).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "req-42", got)
}
