package store

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/google/uuid"
)

// Memory is an in-process data service with the same semantics as Postgres.
// Data is lost on restart.
type Memory struct {
	opts Options
	rng  *rand.Rand

	mu       sync.RWMutex
	sensors  []core.SensorRecord // Insertion order is creation order
	stations map[string]core.BaseStation
	byName   map[string]string // station name -> id
}

var _ core.DataService = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(opts Options) *Memory {
	return &Memory{
		opts:     opts.withDefaults(),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		stations: make(map[string]core.BaseStation),
		byName:   make(map[string]string),
	}
}

func (m *Memory) DefaultPageSize(context.Context) (int, error) {
	return m.opts.DefaultPageSize, nil
}

func (m *Memory) Page(_ context.Context, pageSize, offset int) ([]core.SensorRecord, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidPageSize, pageSize)
	}
	offset = max(offset, 0)

	m.mu.RLock()
	defer m.mu.RUnlock()

	if offset >= len(m.sensors) {
		return []core.SensorRecord{}, nil
	}
	end := min(offset+pageSize, len(m.sensors))
	out := slices.Clone(m.sensors[offset:end])
	if m.opts.EmbedStationNames {
		for i := range out {
			if out[i].HasBaseStation() {
				out[i].BaseStationName = m.stations[out[i].BaseStationID].Name
			}
		}
	}
	return out, nil
}

func (m *Memory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sensors), nil
}

func (m *Memory) DeleteSensor(_ context.Context, sensorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.sensors, func(s core.SensorRecord) bool { return s.ID == sensorID })
	if i < 0 {
		return fmt.Errorf("%w: %s", core.ErrSensorNotFound, sensorID)
	}
	m.sensors = slices.Delete(m.sensors, i, i+1)
	return nil
}

func (m *Memory) BaseStationName(_ context.Context, baseStationID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stations[baseStationID].Name, nil
}

func (m *Memory) ImportFile(ctx context.Context, file core.UploadedFile) error {
	if lim := m.opts.Limiter; lim != nil {
		if err := lim.Acquire(ctx); err != nil {
			return err
		}
		defer lim.Release()
	}

	rows, err := core.DecodeCSV(file.Content)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidImport, err)
	}
	m.insert(fromImportRows(rows))

	logging.WithFields(ctx, "file", file.Name, "rows", len(rows)).Info("sensor import committed")
	return nil
}

func (m *Memory) GenerateSampleData(ctx context.Context) error {
	m.mu.Lock()
	rows := sampleDataset(m.rng, m.opts.SampleStations, m.opts.SampleSensorsPerStation)
	m.mu.Unlock()

	m.insert(rows)
	logging.FromContext(ctx).Info("sample data generated", "sensors", len(rows))
	return nil
}

func (m *Memory) DeleteAllData(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sensors = nil
	clear(m.stations)
	clear(m.byName)
	return nil
}

func (m *Memory) insert(rows []newSensor) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range stationNames(rows) {
		if _, ok := m.byName[name]; ok {
			continue
		}
		id := uuid.NewString()
		m.stations[id] = core.BaseStation{ID: id, Name: name}
		m.byName[name] = id
	}
	for _, r := range rows {
		m.sensors = append(m.sensors, core.SensorRecord{
			ID:            uuid.NewString(),
			Model:         r.Model,
			Status:        r.Status,
			BaseStationID: m.byName[r.StationName],
		})
	}
}
