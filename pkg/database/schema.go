package database

import (
	"context"
	"fmt"

	"ncaa-baseball/pkg/logging"
)

// Migrate applies the idempotent schema for the configured driver
func (d *DB) Migrate(ctx context.Context) error {
	schema, err := SchemaFor(d.config.Driver)
	if err != nil {
		return err
	}

	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		d.metrics.RecordDBError("migration_error")
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	d.logger.Info(ctx, "[DB_MIGRATE] Schema applied", logging.Fields{
		"driver": d.config.Driver,
	})
	return nil
}

// Drop removes every table the schema creates
func (d *DB) Drop(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schemaDrop); err != nil {
		d.metrics.RecordDBError("migration_error")
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	d.logger.Info(ctx, "[DB_MIGRATE] Schema dropped", logging.Fields{
		"driver": d.config.Driver,
	})
	return nil
}

// SchemaFor returns the DDL for a driver
func SchemaFor(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return schemaPostgres, nil
	case DriverSQLite:
		return schemaSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q", driver)
	}
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS schools (
  school_id       INTEGER PRIMARY KEY,
  name            TEXT NOT NULL,
  normalized_name TEXT NOT NULL,
  division        INTEGER NOT NULL DEFAULT 0,
  created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_schools_normalized_name ON schools(normalized_name);

CREATE TABLE IF NOT EXISTS players (
  player_id       INTEGER PRIMARY KEY,
  name            TEXT NOT NULL,
  normalized_name TEXT NOT NULL,
  school_id       INTEGER NOT NULL REFERENCES schools(school_id),
  created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_players_normalized_name ON players(normalized_name);

CREATE TABLE IF NOT EXISTS stat_lines (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  school_id  INTEGER NOT NULL,
  season     INTEGER NOT NULL,
  kind       TEXT NOT NULL CHECK (kind IN ('batting', 'pitching')),
  player_id  INTEGER NOT NULL,
  stats      TEXT NOT NULL,
  UNIQUE (school_id, season, kind, player_id)
);
CREATE INDEX IF NOT EXISTS idx_stat_lines_player ON stat_lines(player_id, kind, season);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS schools (
  school_id       BIGINT PRIMARY KEY,
  name            TEXT NOT NULL,
  normalized_name TEXT NOT NULL,
  division        INTEGER NOT NULL DEFAULT 0,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_schools_normalized_name ON schools(normalized_name);

CREATE TABLE IF NOT EXISTS players (
  player_id       BIGINT PRIMARY KEY,
  name            TEXT NOT NULL,
  normalized_name TEXT NOT NULL,
  school_id       BIGINT NOT NULL REFERENCES schools(school_id),
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_players_normalized_name ON players(normalized_name);

CREATE TABLE IF NOT EXISTS stat_lines (
  id         BIGSERIAL PRIMARY KEY,
  school_id  BIGINT NOT NULL,
  season     INTEGER NOT NULL,
  kind       TEXT NOT NULL CHECK (kind IN ('batting', 'pitching')),
  player_id  BIGINT NOT NULL,
  stats      JSONB NOT NULL,
  UNIQUE (school_id, season, kind, player_id)
);
CREATE INDEX IF NOT EXISTS idx_stat_lines_player ON stat_lines(player_id, kind, season);
`

const schemaDrop = `
DROP TABLE IF EXISTS stat_lines;
DROP TABLE IF EXISTS players;
DROP TABLE IF EXISTS schools;
`
