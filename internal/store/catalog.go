package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/campaignserve/adengine/internal/models"
)

// ErrConflict signals a primary-key collision mid-batch during a bulk upsert.
var ErrConflict = errors.New("conflict")

// translateUniqueViolation maps a Postgres unique-violation to ErrConflict so
// the transport can answer 409 when two writers race on the same fresh key.
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

// UpsertClients idempotently creates or updates each client by id, as a
// single all-or-nothing transaction.
func (p *Postgres) UpsertClients(ctx context.Context, clients []models.Client) ([]models.Client, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range clients {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clients (id, login, age, location, gender) VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (id) DO UPDATE SET login = EXCLUDED.login, age = EXCLUDED.age,
				location = EXCLUDED.location, gender = EXCLUDED.gender`,
			c.ID, c.Login, c.Age, c.Location, string(c.Gender))
		if err != nil {
			return nil, fmt.Errorf("upsert client %s: %w", c.ID, translateUniqueViolation(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return clients, nil
}

// GetClient looks up a client by id.
func (p *Postgres) GetClient(ctx context.Context, id uuid.UUID) (models.Client, error) {
	var c models.Client
	var age sql.NullInt64
	var gender string
	err := p.DB.QueryRowContext(ctx, `SELECT id, login, age, location, gender FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Login, &age, &c.Location, &gender)
	if err == sql.ErrNoRows {
		return models.Client{}, models.ErrNotFound
	}
	if err != nil {
		return models.Client{}, fmt.Errorf("get client: %w", err)
	}
	if age.Valid {
		v := int(age.Int64)
		c.Age = &v
	}
	c.Gender = models.Gender(gender)
	return c, nil
}

// UpsertAdvertisers idempotently creates or updates each advertiser by id.
func (p *Postgres) UpsertAdvertisers(ctx context.Context, advertisers []models.Advertiser) ([]models.Advertiser, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range advertisers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO advertisers (id, name) VALUES ($1,$2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			a.ID, a.Name)
		if err != nil {
			return nil, fmt.Errorf("upsert advertiser %s: %w", a.ID, translateUniqueViolation(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return advertisers, nil
}

// GetAdvertiser looks up an advertiser by id.
func (p *Postgres) GetAdvertiser(ctx context.Context, id uuid.UUID) (models.Advertiser, error) {
	var a models.Advertiser
	err := p.DB.QueryRowContext(ctx, `SELECT id, name FROM advertisers WHERE id = $1`, id).Scan(&a.ID, &a.Name)
	if err == sql.ErrNoRows {
		return models.Advertiser{}, models.ErrNotFound
	}
	if err != nil {
		return models.Advertiser{}, fmt.Errorf("get advertiser: %w", err)
	}
	return a, nil
}

// UpsertMLScore creates or replaces the score for a (client, advertiser)
// pair. Both foreign keys must already exist.
func (p *Postgres) UpsertMLScore(ctx context.Context, s models.MLScore) error {
	if _, err := p.GetClient(ctx, s.ClientID); err != nil {
		return err
	}
	if _, err := p.GetAdvertiser(ctx, s.AdvertiserID); err != nil {
		return err
	}
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO ml_scores (client_id, advertiser_id, score) VALUES ($1,$2,$3)
		ON CONFLICT (client_id, advertiser_id) DO UPDATE SET score = EXCLUDED.score`,
		s.ClientID, s.AdvertiserID, s.Score)
	if err != nil {
		return fmt.Errorf("upsert ml score: %w", err)
	}
	return nil
}

// CreateCampaign validates and inserts a new campaign for an existing advertiser.
func (p *Postgres) CreateCampaign(ctx context.Context, c models.Campaign) (models.Campaign, error) {
	if err := c.Validate(); err != nil {
		return models.Campaign{}, err
	}
	if _, err := p.GetAdvertiser(ctx, c.AdvertiserID); err != nil {
		return models.Campaign{}, err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreateDate.IsZero() {
		c.CreateDate = time.Now().UTC()
	}
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO campaigns (
			id, advertiser_id, impressions_limit, clicks_limit, cost_per_impression, cost_per_click,
			ad_title, ad_text, ad_photo_url, start_date, end_date,
			target_gender, target_age_from, target_age_to, target_location,
			is_deleted, create_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		c.ID, c.AdvertiserID, c.ImpressionsLimit, c.ClicksLimit, c.CostPerImpression, c.CostPerClick,
		c.AdTitle, c.AdText, c.AdPhotoURL, c.StartDate, c.EndDate,
		string(c.TargetGender), c.TargetAgeFrom, c.TargetAgeTo, c.TargetLocation,
		c.IsDeleted, c.CreateDate)
	if err != nil {
		return models.Campaign{}, fmt.Errorf("insert campaign: %w", err)
	}
	return c, nil
}

// campaignScanner is satisfied by both *sql.Row and *sql.Rows.
type campaignScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row campaignScanner) (models.Campaign, error) {
	var c models.Campaign
	var gender string
	var ageFrom, ageTo sql.NullInt64
	err := row.Scan(
		&c.ID, &c.AdvertiserID, &c.ImpressionsLimit, &c.ClicksLimit, &c.CostPerImpression, &c.CostPerClick,
		&c.AdTitle, &c.AdText, &c.AdPhotoURL, &c.StartDate, &c.EndDate,
		&gender, &ageFrom, &ageTo, &c.TargetLocation,
		&c.IsDeleted, &c.CreateDate,
	)
	if err != nil {
		return models.Campaign{}, err
	}
	c.TargetGender = models.TargetingGender(gender)
	if ageFrom.Valid {
		v := int(ageFrom.Int64)
		c.TargetAgeFrom = &v
	}
	if ageTo.Valid {
		v := int(ageTo.Int64)
		c.TargetAgeTo = &v
	}
	return c, nil
}

const campaignColumns = `id, advertiser_id, impressions_limit, clicks_limit, cost_per_impression, cost_per_click,
	ad_title, ad_text, ad_photo_url, start_date, end_date,
	target_gender, target_age_from, target_age_to, target_location,
	is_deleted, create_date`

// GetCampaign looks up a campaign by id regardless of its soft-delete state;
// callers that must hide soft-deleted campaigns check IsDeleted themselves.
func (p *Postgres) GetCampaign(ctx context.Context, id uuid.UUID) (models.Campaign, error) {
	row := p.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return models.Campaign{}, models.ErrNotFound
	}
	if err != nil {
		return models.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// ListCampaigns returns an advertiser's non-deleted campaigns ordered
// descending by create_date, paginated.
func (p *Postgres) ListCampaigns(ctx context.Context, advertiserID uuid.UUID, page, size int) ([]models.Campaign, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	rows, err := p.DB.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns
		WHERE advertiser_id = $1 AND is_deleted = FALSE
		ORDER BY create_date DESC
		LIMIT $2 OFFSET $3`, advertiserID, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCampaign validates c and persists it as a full replacement of the
// campaign's updatable fields; nothing is merged from the stored row, so a
// field left at its zero value is validated and written as that zero value.
// It rejects updates to soft-deleted campaigns with ErrNotFound.
func (p *Postgres) UpdateCampaign(ctx context.Context, c models.Campaign) (models.Campaign, error) {
	existing, err := p.GetCampaign(ctx, c.ID)
	if err != nil {
		return models.Campaign{}, err
	}
	if existing.IsDeleted {
		return models.Campaign{}, models.ErrNotFound
	}
	if err := c.Validate(); err != nil {
		return models.Campaign{}, err
	}
	_, err = p.DB.ExecContext(ctx, `
		UPDATE campaigns SET
			impressions_limit = $2, clicks_limit = $3, cost_per_impression = $4, cost_per_click = $5,
			ad_title = $6, ad_text = $7, ad_photo_url = $8, start_date = $9, end_date = $10,
			target_gender = $11, target_age_from = $12, target_age_to = $13, target_location = $14
		WHERE id = $1`,
		c.ID, c.ImpressionsLimit, c.ClicksLimit, c.CostPerImpression, c.CostPerClick,
		c.AdTitle, c.AdText, c.AdPhotoURL, c.StartDate, c.EndDate,
		string(c.TargetGender), c.TargetAgeFrom, c.TargetAgeTo, c.TargetLocation)
	if err != nil {
		return models.Campaign{}, fmt.Errorf("update campaign: %w", err)
	}
	return p.GetCampaign(ctx, c.ID)
}

// DeleteCampaign soft-deletes a campaign; its event history is untouched.
func (p *Postgres) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	existing, err := p.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsDeleted {
		return models.ErrNotFound
	}
	_, err = p.DB.ExecContext(ctx, `UPDATE campaigns SET is_deleted = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	return nil
}
