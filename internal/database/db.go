package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Alias1177/Pathwatch/internal/model"
)

// DB records live snapshots for post-session review
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	// Create PostgreSQL connection string
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			status TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			step_offset INT NOT NULL,
			surviving_paths INT NOT NULL,
			total_paths INT NOT NULL,
			eliminated_now INT NOT NULL,
			mean_price DOUBLE PRECISION,
			p10 DOUBLE PRECISION,
			p50 DOUBLE PRECISION,
			p90 DOUBLE PRECISION,
			as_of TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reversal_zones (
			id BIGSERIAL PRIMARY KEY,
			snapshot_id BIGINT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			price_low DOUBLE PRECISION NOT NULL,
			price_high DOUBLE PRECISION NOT NULL,
			zone_type TEXT NOT NULL,
			path_count INT NOT NULL,
			probability DOUBLE PRECISION NOT NULL
		)
	`)
	return err
}

// SaveSnapshot stores one snapshot and its zones
func (db *DB) SaveSnapshot(ctx context.Context, snap *model.LiveSnapshot) error {
	var mean, p10, p50, p90 sql.NullFloat64
	if snap.Stats != nil {
		mean = sql.NullFloat64{Float64: snap.Stats.Mean, Valid: true}
		p10 = sql.NullFloat64{Float64: snap.Stats.P10, Valid: true}
		p50 = sql.NullFloat64{Float64: snap.Stats.P50, Valid: true}
		p90 = sql.NullFloat64{Float64: snap.Stats.P90, Valid: true}
	}

	var snapshotID int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO snapshots (
			symbol, status, price, step_offset, surviving_paths, total_paths,
			eliminated_now, mean_price, p10, p50, p90, as_of
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		snap.Symbol, string(snap.Status), snap.Observation.Price, snap.Offset,
		snap.SurvivingPaths, snap.TotalPaths, snap.EliminatedNow,
		mean, p10, p50, p90, snap.AsOf,
	).Scan(&snapshotID)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	for _, z := range snap.Zones {
		_, err := db.ExecContext(ctx, `
			INSERT INTO reversal_zones (
				snapshot_id, price_low, price_high, zone_type, path_count, probability
			) VALUES ($1, $2, $3, $4, $5, $6)
		`, snapshotID, z.PriceLow, z.PriceHigh, string(z.Type), z.PathCount, z.Probability)
		if err != nil {
			return fmt.Errorf("inserting zone: %w", err)
		}
	}
	return nil
}

// Render implements the renderer sink contract so the recorder can be
// wired into the live loop alongside the console
func (db *DB) Render(ctx context.Context, snap *model.LiveSnapshot) error {
	return db.SaveSnapshot(ctx, snap)
}
