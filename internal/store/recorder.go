package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/campaignserve/adengine/internal/models"
)

// RecordImpression runs the nine-step transactional recording algorithm for
// an impression: lock the campaign row, validate deletion/validity/cap
// state, and insert the event if it does not already exist. It returns
// false whenever the write was not performed for any reason; false must
// never be treated as success by the caller.
func (p *Postgres) RecordImpression(ctx context.Context, campaignID, clientID uuid.UUID) (bool, error) {
	return p.record(ctx, campaignID, clientID, models.EventImpression)
}

// RecordClick runs the same algorithm for a click, additionally requiring a
// prior impression by the same client on the same campaign.
func (p *Postgres) RecordClick(ctx context.Context, campaignID, clientID uuid.UUID) (bool, error) {
	return p.record(ctx, campaignID, clientID, models.EventClick)
}

func (p *Postgres) record(ctx context.Context, campaignID, clientID uuid.UUID, eventType models.EventType) (bool, error) {
	tx, err := p.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, fmt.Errorf("begin recorder tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// 1. Lock the campaign row.
	var isDeleted bool
	var startDate, endDate int
	err = tx.QueryRowContext(ctx, `
		SELECT is_deleted, start_date, end_date FROM campaigns WHERE id = $1 FOR UPDATE`,
		campaignID).Scan(&isDeleted, &startDate, &endDate)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock campaign: %w", err)
	}

	// 2. Soft-deleted campaigns accept no events.
	if isDeleted {
		return false, nil
	}

	// 3. Validity window, against the clock read inside this same transaction.
	day, err := getDayTx(ctx, tx)
	if err != nil {
		return false, err
	}
	if day < startDate || day > endDate {
		return false, nil
	}

	counts, err := countUnique(ctx, tx, campaignID)
	if err != nil {
		return false, err
	}

	if eventType == models.EventClick {
		// 5. A click requires a prior impression from this client.
		flags, err := getClientFlags(ctx, tx, campaignID, clientID)
		if err != nil {
			return false, err
		}
		if !flags.HasImpression {
			return false, nil
		}
	}

	// 4/6. Count and cap check for the relevant event type.
	var limit, current int
	row := tx.QueryRowContext(ctx, `SELECT impressions_limit, clicks_limit FROM campaigns WHERE id = $1`, campaignID)
	var implimit, clicklimit int
	if err := row.Scan(&implimit, &clicklimit); err != nil {
		return false, fmt.Errorf("read caps: %w", err)
	}
	if eventType == models.EventImpression {
		limit, current = implimit, counts.Impressions
	} else {
		limit, current = clicklimit, counts.Clicks
	}
	if current >= limit {
		return false, nil
	}

	// 7. Idempotence: an existing event of this type is a no-op success.
	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM ad_events WHERE campaign_id = $1 AND client_id = $2 AND event_type = $3)`,
		campaignID, clientID, string(eventType)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing event: %w", err)
	}
	if exists {
		return true, nil
	}

	// 8. Insert.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO ad_events (campaign_id, client_id, event_type, event_day) VALUES ($1,$2,$3,$4)`,
		campaignID, clientID, string(eventType), day)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	// 9. Commit.
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit recorder tx: %w", err)
	}
	return true, nil
}
