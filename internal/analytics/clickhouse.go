// Package analytics mirrors committed ad events into ClickHouse as a
// supplemental OLAP read path for the statistics aggregator's daily
// breakdowns. Postgres remains the system of record; this mirror is a
// best-effort enrichment, not a dependency of correctness.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campaignserve/adengine/internal/models"
	"github.com/campaignserve/adengine/internal/store"
)

// Mirror wraps a ClickHouse DB connection used to mirror ad events and to
// read them back for daily analytics.
type Mirror struct {
	DB *sql.DB
}

const createEventsTable = `CREATE TABLE IF NOT EXISTS ad_events (
	timestamp   DateTime,
	campaign_id String,
	client_id   String,
	event_type  String,
	event_day   Int32
) ENGINE=MergeTree() ORDER BY (campaign_id, event_type, event_day)`

// InitClickHouse connects to ClickHouse and ensures the mirror table exists.
func InitClickHouse(dsn string, maxOpenConns int) (*Mirror, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), createEventsTable); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}
	zap.L().Info("connected to clickhouse")
	return &Mirror{DB: db}, nil
}

// RecordEvent mirrors one committed ad_events row. Failures are logged, not
// returned, so a ClickHouse outage never blocks the recorder's commit path.
func (m *Mirror) RecordEvent(ctx context.Context, campaignID, clientID uuid.UUID, eventType models.EventType, day int) {
	_, err := m.DB.ExecContext(ctx,
		`INSERT INTO ad_events (timestamp, campaign_id, client_id, event_type, event_day) VALUES (?,?,?,?,?)`,
		time.Now().UTC(), campaignID.String(), clientID.String(), string(eventType), day)
	if err != nil {
		zap.L().Warn("clickhouse mirror insert failed", zap.Error(err))
	}
}

// DailyCounts reads the per-day unique-viewer mirror for one campaign,
// ascending by day. The statistics aggregator calls this opportunistically
// and falls back to the Postgres read path on any error, since the mirror
// is an enrichment rather than the source of truth.
func (m *Mirror) DailyCounts(ctx context.Context, campaignID uuid.UUID) ([]store.DailyCount, error) {
	rows, err := m.DB.QueryContext(ctx, `
		SELECT event_day,
			countDistinctIf(client_id, event_type = 'IMPRESSION') AS impressions,
			countDistinctIf(client_id, event_type = 'CLICK') AS clicks
		FROM ad_events
		WHERE campaign_id = ?
		GROUP BY event_day
		ORDER BY event_day ASC`, campaignID.String())
	if err != nil {
		return nil, fmt.Errorf("clickhouse daily counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.DailyCount
	for rows.Next() {
		var d store.DailyCount
		if err := rows.Scan(&d.Day, &d.Impressions, &d.Clicks); err != nil {
			return nil, fmt.Errorf("scan mirrored day: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close shuts down the ClickHouse connection.
func (m *Mirror) Close() {
	if m != nil && m.DB != nil {
		if err := m.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
