// Package store is the Postgres-backed system of record for the ad-serving
// core: the catalog (clients, advertisers, campaigns, ML scores), the
// append-only event log, the virtual clock, and the transactional recorder
// that enforces budget and ordering invariants under concurrency.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Postgres wraps a postgres DB connection.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the necessary tables if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS advertisers (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
    id UUID PRIMARY KEY,
    login TEXT NOT NULL,
    age INT,
    location TEXT NOT NULL DEFAULT '',
    gender TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ml_scores (
    client_id UUID NOT NULL REFERENCES clients(id),
    advertiser_id UUID NOT NULL REFERENCES advertisers(id),
    score DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (client_id, advertiser_id)
);

CREATE TABLE IF NOT EXISTS campaigns (
    id UUID PRIMARY KEY,
    advertiser_id UUID NOT NULL REFERENCES advertisers(id),
    impressions_limit INT NOT NULL,
    clicks_limit INT NOT NULL,
    cost_per_impression DOUBLE PRECISION NOT NULL,
    cost_per_click DOUBLE PRECISION NOT NULL,
    ad_title TEXT NOT NULL,
    ad_text TEXT NOT NULL,
    ad_photo_url TEXT NOT NULL DEFAULT '',
    start_date INT NOT NULL,
    end_date INT NOT NULL,
    target_gender TEXT NOT NULL DEFAULT '',
    target_age_from INT,
    target_age_to INT,
    target_location TEXT NOT NULL DEFAULT '',
    is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
    create_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ad_events (
    id BIGSERIAL PRIMARY KEY,
    campaign_id UUID NOT NULL REFERENCES campaigns(id),
    client_id UUID NOT NULL REFERENCES clients(id),
    event_type TEXT NOT NULL,
    event_day INT NOT NULL,
    event_timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS clock (
    id INT PRIMARY KEY,
    current_date_value INT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_ad_events_unique_per_type
    ON ad_events (campaign_id, client_id, event_type);
CREATE INDEX IF NOT EXISTS idx_ad_events_campaign_type_client
    ON ad_events (campaign_id, event_type, client_id);
CREATE INDEX IF NOT EXISTS idx_ad_events_campaign_type_day
    ON ad_events (campaign_id, event_type, event_day);
CREATE INDEX IF NOT EXISTS idx_campaigns_advertiser_deleted
    ON campaigns (advertiser_id, is_deleted);
`

// InitPostgres connects to Postgres with connection pooling configuration and
// ensures the schema exists.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	p := &Postgres{DB: db}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("connected to postgres",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

func (p *Postgres) ensureSchema() error {
	if _, err := p.DB.ExecContext(context.Background(), schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
