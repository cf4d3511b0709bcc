package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// fakeService is an in-memory DataService for controller tests.
type fakeService struct {
	mu       sync.Mutex
	sensors  []SensorRecord
	stations map[string]string

	defaultSize    int
	defaultSizeErr error
	pageErr        error
	countErr       error
	deleteErr      error
	lookupErr      map[string]error
	importErr      error
	generateErr    error
	deleteAllErr   error

	// pageHook runs before Page returns; tests use it to interleave calls.
	pageHook func(offset int)

	pageCalls     int
	countCalls    int
	deleteCalls   int
	lookupCalls   map[string]int
	importCalls   int
	importedNames []string
	importedBody  []string
}

func newFakeService(n int) *fakeService {
	f := &fakeService{
		defaultSize: 10,
		stations:    map[string]string{"bs-1": "North", "bs-2": "South"},
		lookupErr:   map[string]error{},
		lookupCalls: map[string]int{},
	}
	for i := 0; i < n; i++ {
		f.sensors = append(f.sensors, SensorRecord{
			ID:            fmt.Sprintf("s-%03d", i),
			Model:         fmt.Sprintf("TH-%d", i),
			Status:        "Active",
			BaseStationID: []string{"bs-1", "bs-2"}[i%2],
		})
	}
	return f
}

func (f *fakeService) DefaultPageSize(context.Context) (int, error) {
	if f.defaultSizeErr != nil {
		return 0, f.defaultSizeErr
	}
	return f.defaultSize, nil
}

func (f *fakeService) Page(_ context.Context, pageSize, offset int) ([]SensorRecord, error) {
	f.mu.Lock()
	f.pageCalls++
	err := f.pageErr
	var out []SensorRecord
	if err == nil && offset < len(f.sensors) {
		end := min(offset+pageSize, len(f.sensors))
		out = append(out, f.sensors[offset:end]...)
	}
	hook := f.pageHook
	f.mu.Unlock()

	if hook != nil {
		hook(offset)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeService) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.sensors), nil
}

func (f *fakeService) DeleteSensor(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, s := range f.sensors {
		if s.ID == id {
			f.sensors = append(f.sensors[:i], f.sensors[i+1:]...)
			return nil
		}
	}
	return &ServiceError{Op: "delete sensor", Status: 404, Message: "sensor not found"}
}

func (f *fakeService) BaseStationName(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls[id]++
	if err := f.lookupErr[id]; err != nil {
		return "", err
	}
	return f.stations[id], nil
}

func (f *fakeService) ImportFile(_ context.Context, file UploadedFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.importCalls++
	if f.importErr != nil {
		return f.importErr
	}
	body, _ := io.ReadAll(file.Content)
	f.importedNames = append(f.importedNames, file.Name)
	f.importedBody = append(f.importedBody, string(body))
	return nil
}

func (f *fakeService) GenerateSampleData(context.Context) error {
	return f.generateErr
}

func (f *fakeService) DeleteAllData(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteAllErr != nil {
		return f.deleteAllErr
	}
	f.sensors = nil
	return nil
}

// countingReloader records Reload calls.
type countingReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingReloader) Reload(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *countingReloader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var errBoom = errors.New("boom")
