package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/campaignserve/adengine/internal/models"
)

// UniqueCounts is the unique-viewer count per event type for one campaign.
type UniqueCounts struct {
	Impressions int
	Clicks      int
}

// CountUnique returns count(distinct client_id) per event type for a campaign.
func (p *Postgres) CountUnique(ctx context.Context, campaignID uuid.UUID) (UniqueCounts, error) {
	return countUnique(ctx, p.DB, campaignID)
}

func countUnique(ctx context.Context, q querier, campaignID uuid.UUID) (UniqueCounts, error) {
	var uc UniqueCounts
	err := q.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT client_id) FILTER (WHERE event_type = $2) AS impressions,
			COUNT(DISTINCT client_id) FILTER (WHERE event_type = $3) AS clicks
		FROM ad_events WHERE campaign_id = $1`,
		campaignID, string(models.EventImpression), string(models.EventClick),
	).Scan(&uc.Impressions, &uc.Clicks)
	if err != nil {
		return UniqueCounts{}, fmt.Errorf("count unique: %w", err)
	}
	return uc, nil
}

// ClientFlags reports whether a specific client already has an impression
// and/or a click recorded on a campaign.
type ClientFlags struct {
	HasImpression bool
	HasClick      bool
}

// GetClientFlags returns the per-client event flags for a campaign.
func (p *Postgres) GetClientFlags(ctx context.Context, campaignID, clientID uuid.UUID) (ClientFlags, error) {
	return getClientFlags(ctx, p.DB, campaignID, clientID)
}

func getClientFlags(ctx context.Context, q querier, campaignID, clientID uuid.UUID) (ClientFlags, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT event_type FROM ad_events WHERE campaign_id = $1 AND client_id = $2`,
		campaignID, clientID)
	if err != nil {
		return ClientFlags{}, fmt.Errorf("client flags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var flags ClientFlags
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return ClientFlags{}, fmt.Errorf("scan event type: %w", err)
		}
		switch models.EventType(t) {
		case models.EventImpression:
			flags.HasImpression = true
		case models.EventClick:
			flags.HasClick = true
		}
	}
	return flags, rows.Err()
}

// DailyCount holds the unique-viewer counts of both event types for one
// campaign on one day.
type DailyCount struct {
	Day         int
	Impressions int
	Clicks      int
}

// DailyCounts returns unique-viewer counts per day for a campaign, ascending by day.
func (p *Postgres) DailyCounts(ctx context.Context, campaignID uuid.UUID) ([]DailyCount, error) {
	rows, err := p.DB.QueryContext(ctx, `
		SELECT event_day,
			COUNT(DISTINCT client_id) FILTER (WHERE event_type = $2) AS impressions,
			COUNT(DISTINCT client_id) FILTER (WHERE event_type = $3) AS clicks
		FROM ad_events
		WHERE campaign_id = $1
		GROUP BY event_day
		ORDER BY event_day ASC`,
		campaignID, string(models.EventImpression), string(models.EventClick))
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DailyCount
	for rows.Next() {
		var d DailyCount
		if err := rows.Scan(&d.Day, &d.Impressions, &d.Clicks); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting the read
// primitives run either standalone or inside the recorder's transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}
