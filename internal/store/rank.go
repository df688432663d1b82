package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/campaignserve/adengine/internal/models"
)

// RankedCampaign is the winning candidate from FindBestCampaign, along with
// enough state for the caller to decide whether an impression still needs
// to be written.
type RankedCampaign struct {
	CampaignID    uuid.UUID
	AdvertiserID  uuid.UUID
	AdTitle       string
	AdText        string
	AdPhotoURL    string
	HasImpression bool
}

// rankQuery composes the campaign_stats / client_events / ml_scores
// subqueries and the expected-profit formula in one statement. 0.001 and
// 5000 are the fixed logistic constants of the click-probability curve.
const rankQuery = `
WITH campaign_stats AS (
	SELECT campaign_id,
		COUNT(DISTINCT client_id) FILTER (WHERE event_type = 'IMPRESSION') AS unique_impressions,
		COUNT(DISTINCT client_id) FILTER (WHERE event_type = 'CLICK') AS unique_clicks
	FROM ad_events
	GROUP BY campaign_id
),
client_events AS (
	SELECT campaign_id,
		bool_or(event_type = 'IMPRESSION') AS user_has_impression,
		bool_or(event_type = 'CLICK') AS user_has_click
	FROM ad_events
	WHERE client_id = $1
	GROUP BY campaign_id
),
ml_scores_subq AS (
	SELECT advertiser_id, score FROM ml_scores WHERE client_id = $1
)
SELECT
	c.id, c.advertiser_id, c.ad_title, c.ad_text, c.ad_photo_url,
	COALESCE(ce.user_has_impression, FALSE) AS has_impr,
	CASE
		WHEN COALESCE(ce.user_has_impression, FALSE) THEN
			CASE WHEN COALESCE(ce.user_has_click, FALSE) THEN 0.0
				ELSE c.cost_per_click * (1.0 / (1.0 + EXP(-0.001 * (COALESCE(ms.score, 0.0) - 5000.0))))
			END
		ELSE c.cost_per_impression + c.cost_per_click * (1.0 / (1.0 + EXP(-0.001 * (COALESCE(ms.score, 0.0) - 5000.0))))
	END AS expected_profit,
	COALESCE(ms.score, 0.0) AS ml_score
FROM campaigns c
LEFT JOIN client_events ce ON ce.campaign_id = c.id
LEFT JOIN campaign_stats cs ON cs.campaign_id = c.id
LEFT JOIN ml_scores_subq ms ON ms.advertiser_id = c.advertiser_id
WHERE c.is_deleted = FALSE
	AND c.start_date <= $2 AND c.end_date >= $2
	AND (COALESCE(cs.unique_impressions, 0) < c.impressions_limit OR COALESCE(cs.unique_clicks, 0) < c.clicks_limit)
	AND (COALESCE(ce.user_has_impression, FALSE) OR COALESCE(cs.unique_impressions, 0) < c.impressions_limit)
	AND (COALESCE(ce.user_has_click, FALSE) OR COALESCE(cs.unique_clicks, 0) < c.clicks_limit)
	AND (c.target_gender = '' OR c.target_gender = 'ALL' OR c.target_gender = $3)
	AND (c.target_age_from IS NULL OR c.target_age_from <= $4)
	AND (c.target_age_to IS NULL OR c.target_age_to >= $4)
	AND (c.target_location = '' OR c.target_location = $5)
ORDER BY expected_profit DESC, ml_score DESC, c.id ASC
LIMIT 1
`

// FindBestCampaign runs the hard-filter and expected-profit ranking query
// for one client at the given virtual day, returning the single winning
// campaign or models.ErrNotFound if none is eligible.
func (p *Postgres) FindBestCampaign(ctx context.Context, client models.Client, day int) (RankedCampaign, error) {
	age := 0
	if client.Age != nil {
		age = *client.Age
	}
	var r RankedCampaign
	var hasImpr bool
	err := p.DB.QueryRowContext(ctx, rankQuery, client.ID, day, string(client.Gender), age, client.Location).Scan(
		&r.CampaignID, &r.AdvertiserID, &r.AdTitle, &r.AdText, &r.AdPhotoURL, &hasImpr,
		new(float64), new(float64),
	)
	if err == sql.ErrNoRows {
		return RankedCampaign{}, models.ErrNotFound
	}
	if err != nil {
		return RankedCampaign{}, fmt.Errorf("rank campaigns: %w", err)
	}
	r.HasImpression = hasImpr
	return r, nil
}
