package store

// schema is applied by Migrate. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS base_stations (
    id   UUID PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS sensors (
    id              UUID PRIMARY KEY,
    model           TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT '',
    base_station_id UUID REFERENCES base_stations (id) ON DELETE SET NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS sensors_created_at_id_idx ON sensors (created_at, id);
`
