package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"carintel/internal/model"
)

const lastUpdatedKey = "last_updated"

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id                    BIGSERIAL PRIMARY KEY,
	vehicle_type          TEXT NOT NULL,
	model_year            INTEGER NOT NULL,
	make                  TEXT NOT NULL DEFAULT '',
	vehicle_class         TEXT,
	model                 TEXT NOT NULL DEFAULT '',
	city_l_per_100km      DOUBLE PRECISION,
	highway_l_per_100km   DOUBLE PRECISION,
	city_kwh_per_100km    DOUBLE PRECISION,
	highway_kwh_per_100km DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS vehicles_type_year_make_idx ON vehicles (vehicle_type, model_year, make);

CREATE TABLE IF NOT EXISTS car_rankings (
	id           BIGSERIAL PRIMARY KEY,
	year         INTEGER NOT NULL,
	category     TEXT NOT NULL,
	rank         INTEGER NOT NULL,
	model        TEXT NOT NULL,
	manufacturer TEXT NOT NULL DEFAULT '',
	source       TEXT,
	rationale    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dataset_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// PostgresRepository loads and replaces the dataset in PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if strings.Contains(dsn, "://") {
		if !strings.Contains(dsn, "?") {
			dsn += "?prefer_simple_protocol=true"
		} else {
			dsn += "&prefer_simple_protocol=true"
		}
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the dataset tables when they do not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load reads the whole dataset. Rows keep insertion order, so the first
// imported duplicate stays canonical.
func (r *PostgresRepository) Load(ctx context.Context) (*Dataset, error) {
	var records []model.VehicleRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT
			vehicle_type, model_year, make, vehicle_class, model,
			city_l_per_100km, highway_l_per_100km,
			city_kwh_per_100km, highway_kwh_per_100km
		FROM vehicles
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vehicles: %w", err)
	}

	partitions := make(map[model.VehicleType]Partition)
	for _, rec := range records {
		p := partitions[rec.VehicleType]
		p.Columns = Columns{ModelYear: true, VehicleClass: true}
		p.Records = append(p.Records, rec)
		partitions[rec.VehicleType] = p
	}

	var rankings []model.RankingEntry
	err = r.db.SelectContext(ctx, &rankings, `
		SELECT year, category, rank, model, manufacturer, source, rationale
		FROM car_rankings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rankings: %w", err)
	}

	lastUpdated, err := r.LastUpdated(ctx)
	if err != nil {
		return nil, err
	}

	return NewDataset(partitions, rankings, lastUpdated), nil
}

// LastUpdated returns the stored timestamp, or DefaultLastUpdated when unset
func (r *PostgresRepository) LastUpdated(ctx context.Context) (string, error) {
	var value string
	err := r.db.GetContext(ctx, &value, `SELECT value FROM dataset_meta WHERE key = $1`, lastUpdatedKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultLastUpdated, nil
		}
		return "", fmt.Errorf("failed to get last updated: %w", err)
	}
	return value, nil
}

// SetLastUpdated stores the timestamp display string
func (r *PostgresRepository) SetLastUpdated(ctx context.Context, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dataset_meta (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, lastUpdatedKey, value)
	if err != nil {
		return fmt.Errorf("failed to set last updated: %w", err)
	}
	return nil
}

// ReplaceVehicles swaps every record of one partition in a single transaction.
// Rows that fail to insert are reported and skipped.
func (r *PostgresRepository) ReplaceVehicles(ctx context.Context, vt model.VehicleType, records []model.VehicleRecord) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, append(errs, fmt.Sprintf("failed to start transaction: %v", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vehicles WHERE vehicle_type = $1`, vt); err != nil {
		return 0, append(errs, fmt.Sprintf("failed to clear %s: %v", vt, err))
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO vehicles (
			vehicle_type, model_year, make, vehicle_class, model,
			city_l_per_100km, highway_l_per_100km,
			city_kwh_per_100km, highway_kwh_per_100km
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return 0, append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
	}
	defer stmt.Close()

	for i, rec := range records {
		err := execRow(ctx, tx, stmt,
			vt, rec.ModelYear, rec.Make, rec.VehicleClass, rec.Model,
			rec.CityLPer100Km, rec.HighwayLPer100Km,
			rec.CityKWhPer100Km, rec.HighwayKWhPer100Km,
		)
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d (%d %s %s): %v", i+1, rec.ModelYear, rec.Make, rec.Model, err))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		return 0, append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
	}

	return success, errs
}

// ReplaceRankings swaps the whole rankings table in a single transaction
func (r *PostgresRepository) ReplaceRankings(ctx context.Context, entries []model.RankingEntry) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, append(errs, fmt.Sprintf("failed to start transaction: %v", err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM car_rankings`); err != nil {
		return 0, append(errs, fmt.Sprintf("failed to clear rankings: %v", err))
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO car_rankings (year, category, rank, model, manufacturer, source, rationale)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return 0, append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
	}
	defer stmt.Close()

	for i, e := range entries {
		err := execRow(ctx, tx, stmt, e.Year, e.Category, e.Rank, e.Model, e.Manufacturer, e.Source, e.Rationale)
		if err != nil {
			errs = append(errs, fmt.Sprintf("row %d (%d %s #%d): %v", i+1, e.Year, e.Category, e.Rank, err))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		return 0, append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
	}

	return success, errs
}

// execRow runs one insert under a savepoint so a rejected row does not abort
// the surrounding transaction
func execRow(ctx context.Context, tx *sqlx.Tx, stmt *sqlx.Stmt, args ...any) error {
	if _, err := tx.ExecContext(ctx, `SAVEPOINT import_row`); err != nil {
		return err
	}
	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT import_row`); rbErr != nil {
			return fmt.Errorf("%v (rollback failed: %w)", err, rbErr)
		}
		return err
	}
	_, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT import_row`)
	return err
}
