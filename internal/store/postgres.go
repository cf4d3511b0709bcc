package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the PostgreSQL-backed data service.
type Postgres struct {
	pool *pgxpool.Pool
	opts Options
}

var _ core.DataService = (*Postgres)(nil)

// NewPostgres creates a store on pool. Call Migrate once before use.
func NewPostgres(pool *pgxpool.Pool, opts Options) *Postgres {
	return &Postgres{pool: pool, opts: opts.withDefaults()}
}

// Migrate creates the tables and indexes if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) DefaultPageSize(context.Context) (int, error) {
	return p.opts.DefaultPageSize, nil
}

const (
	pageQuery = `
SELECT s.id::text, s.model, s.status, COALESCE(s.base_station_id::text, ''), ''
FROM sensors s
ORDER BY s.created_at, s.id
LIMIT $1 OFFSET $2`

	pageQueryWithNames = `
SELECT s.id::text, s.model, s.status, COALESCE(s.base_station_id::text, ''), COALESCE(b.name, '')
FROM sensors s
LEFT JOIN base_stations b ON b.id = s.base_station_id
ORDER BY s.created_at, s.id
LIMIT $1 OFFSET $2`
)

// Page returns up to pageSize sensors starting at offset.
func (p *Postgres) Page(ctx context.Context, pageSize, offset int) ([]core.SensorRecord, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidPageSize, pageSize)
	}
	offset = max(offset, 0)

	query := pageQuery
	if p.opts.EmbedStationNames {
		query = pageQueryWithNames
	}

	rows, err := p.pool.Query(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query sensors: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[core.SensorRecord])
	if err != nil {
		return nil, fmt.Errorf("scan sensors: %w", err)
	}
	return records, nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM sensors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sensors: %w", err)
	}
	return n, nil
}

// DeleteSensor deletes one sensor. Unknown or malformed ids return
// core.ErrSensorNotFound.
func (p *Postgres) DeleteSensor(ctx context.Context, sensorID string) error {
	id, err := uuid.Parse(sensorID)
	if err != nil {
		return fmt.Errorf("%w: %s", core.ErrSensorNotFound, sensorID)
	}

	tag, err := p.pool.Exec(ctx, `DELETE FROM sensors WHERE id = $1`, pgUUID(id))
	if err != nil {
		return fmt.Errorf("delete sensor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", core.ErrSensorNotFound, sensorID)
	}
	return nil
}

// BaseStationName resolves a station id. Unknown ids resolve to "".
func (p *Postgres) BaseStationName(ctx context.Context, baseStationID string) (string, error) {
	id, err := uuid.Parse(baseStationID)
	if err != nil {
		return "", nil
	}

	var name string
	err = p.pool.QueryRow(ctx, `SELECT name FROM base_stations WHERE id = $1`, pgUUID(id)).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup base station: %w", err)
	}
	return name, nil
}

// ImportFile decodes a sensor CSV and inserts every row in one transaction.
// A decoding error rejects the whole file.
func (p *Postgres) ImportFile(ctx context.Context, file core.UploadedFile) error {
	if lim := p.opts.Limiter; lim != nil {
		if err := lim.Acquire(ctx); err != nil {
			return err
		}
		defer lim.Release()
	}

	rows, err := core.DecodeCSV(file.Content)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidImport, err)
	}

	start := time.Now()
	if err := p.insert(ctx, fromImportRows(rows)); err != nil {
		return fmt.Errorf("import %s: %w", file.Name, err)
	}

	logging.WithFields(ctx, "file", file.Name, "rows", len(rows)).
		Info("sensor import committed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// GenerateSampleData inserts a synthetic dataset.
func (p *Postgres) GenerateSampleData(ctx context.Context) error {
	rows := sampleDataset(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		p.opts.SampleStations, p.opts.SampleSensorsPerStation)
	if err := p.insert(ctx, rows); err != nil {
		return fmt.Errorf("generate sample data: %w", err)
	}
	logging.FromContext(ctx).Info("sample data generated", "sensors", len(rows))
	return nil
}

// DeleteAllData removes every sensor and station.
func (p *Postgres) DeleteAllData(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `TRUNCATE sensors, base_stations`); err != nil {
		return fmt.Errorf("delete all data: %w", err)
	}
	return nil
}

// insert upserts the referenced stations by name and copies the sensors.
func (p *Postgres) insert(ctx context.Context, rows []newSensor) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stationIDs := make(map[string]pgtype.UUID)
	for _, name := range stationNames(rows) {
		var id pgtype.UUID
		err := tx.QueryRow(ctx, `
INSERT INTO base_stations (id, name) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`, pgUUID(uuid.New()), name).Scan(&id)
		if err != nil {
			return fmt.Errorf("upsert base station %q: %w", name, err)
		}
		stationIDs[name] = id
	}

	// Microsecond steps keep the file order under ORDER BY created_at.
	base := time.Now().UTC().Truncate(time.Microsecond)
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"sensors"},
		[]string{"id", "model", "status", "base_station_id", "created_at"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				pgUUID(uuid.New()),
				r.Model,
				r.Status,
				stationIDs[r.StationName], // zero value is NULL
				base.Add(time.Duration(i) * time.Microsecond),
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy sensors: %w", err)
	}
	if int(copied) != len(rows) {
		return fmt.Errorf("copy sensors: wrote %d of %d rows", copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
