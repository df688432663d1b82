package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campaignserve/adengine/internal/models"
)

// clockRowID is the fixed id of the clock singleton row.
const clockRowID = 1

// GetDay returns the current virtual day, or 0 if it was never set.
func (p *Postgres) GetDay(ctx context.Context) (int, error) {
	var day int
	err := p.DB.QueryRowContext(ctx, `SELECT current_date_value FROM clock WHERE id = $1`, clockRowID).Scan(&day)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get day: %w", err)
	}
	return day, nil
}

// SetDay overwrites the virtual day. It is monotonic in the sense that it
// always replaces whatever was there; the core never advances it implicitly.
func (p *Postgres) SetDay(ctx context.Context, day int) error {
	if day < 0 {
		return models.NewInvariantError("current_date must not be negative")
	}
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO clock (id, current_date_value) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET current_date_value = EXCLUDED.current_date_value`,
		clockRowID, day)
	if err != nil {
		return fmt.Errorf("set day: %w", err)
	}
	return nil
}

// getDayTx reads the day inside an existing transaction, for use by the recorder.
func getDayTx(ctx context.Context, tx *sql.Tx) (int, error) {
	var day int
	err := tx.QueryRowContext(ctx, `SELECT current_date_value FROM clock WHERE id = $1`, clockRowID).Scan(&day)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get day (tx): %w", err)
	}
	return day, nil
}
