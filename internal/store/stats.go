package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/campaignserve/adengine/internal/models"
)

// CampaignStats is the aggregated totals for one campaign.
type CampaignStats struct {
	CampaignID  uuid.UUID
	Impressions int
	Clicks      int
	SpentTotal  float64
	Conversion  float64
}

// DayStats is one day's aggregated totals.
type DayStats struct {
	Day         int
	Impressions int
	Clicks      int
	SpentTotal  float64
	Conversion  float64
}

func computeStats(impressions, clicks int, costPerImpression, costPerClick float64) (spent, conversion float64) {
	spent = float64(impressions)*costPerImpression + float64(clicks)*costPerClick
	if impressions > 0 {
		conversion = 100.0 * float64(clicks) / float64(impressions)
	}
	return spent, conversion
}

// DayStatsFrom converts raw per-day unique counts into reporting rows using
// a campaign's current cost rates. Callers may source counts from Postgres
// or from the ClickHouse mirror interchangeably; either produces the same
// DailyCount shape. Rates are always the campaign's current ones: spend is
// not versioned historically, so a price edit revalues past days.
func DayStatsFrom(c models.Campaign, counts []DailyCount) []DayStats {
	out := make([]DayStats, 0, len(counts))
	for _, d := range counts {
		spent, conv := computeStats(d.Impressions, d.Clicks, c.CostPerImpression, c.CostPerClick)
		out = append(out, DayStats{Day: d.Day, Impressions: d.Impressions, Clicks: d.Clicks, SpentTotal: spent, Conversion: conv})
	}
	return out
}

// CampaignTotals computes unique-viewer totals and spend for one campaign.
// It rejects (with models.ErrNotFound) a missing or soft-deleted campaign;
// per-advertiser reporting is deliberately looser, see AdvertiserCampaigns.
func (p *Postgres) CampaignTotals(ctx context.Context, campaignID uuid.UUID) (CampaignStats, error) {
	c, err := p.GetCampaign(ctx, campaignID)
	if err != nil {
		return CampaignStats{}, err
	}
	if c.IsDeleted {
		return CampaignStats{}, models.ErrNotFound
	}
	counts, err := p.CountUnique(ctx, campaignID)
	if err != nil {
		return CampaignStats{}, err
	}
	spent, conv := computeStats(counts.Impressions, counts.Clicks, c.CostPerImpression, c.CostPerClick)
	return CampaignStats{
		CampaignID:  campaignID,
		Impressions: counts.Impressions,
		Clicks:      counts.Clicks,
		SpentTotal:  spent,
		Conversion:  conv,
	}, nil
}

// CampaignDaily computes the per-day breakdown for one campaign, ascending
// by day. It rejects a missing or soft-deleted campaign.
func (p *Postgres) CampaignDaily(ctx context.Context, campaignID uuid.UUID) ([]DayStats, error) {
	c, err := p.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, models.ErrNotFound
	}
	daily, err := p.DailyCounts(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return DayStatsFrom(c, daily), nil
}

// AdvertiserCampaigns loads every campaign owned by an advertiser,
// deliberately including soft-deleted ones: their historical events remain
// legitimate spend, so advertiser-level reporting aggregates over the
// unfiltered campaign list.
func (p *Postgres) AdvertiserCampaigns(ctx context.Context, advertiserID uuid.UUID) ([]models.Campaign, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE advertiser_id = $1`, advertiserID)
	if err != nil {
		return nil, fmt.Errorf("advertiser campaigns: %w", err)
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

// AdvertiserTotals sums unique-viewer totals and spend across all of an
// advertiser's campaigns, soft-deleted or not.
func (p *Postgres) AdvertiserTotals(ctx context.Context, advertiserID uuid.UUID) (CampaignStats, error) {
	campaigns, err := p.AdvertiserCampaigns(ctx, advertiserID)
	if err != nil {
		return CampaignStats{}, err
	}
	var totalImpr, totalClicks int
	var totalSpent float64
	for _, c := range campaigns {
		counts, err := p.CountUnique(ctx, c.ID)
		if err != nil {
			return CampaignStats{}, err
		}
		spent, _ := computeStats(counts.Impressions, counts.Clicks, c.CostPerImpression, c.CostPerClick)
		totalImpr += counts.Impressions
		totalClicks += counts.Clicks
		totalSpent += spent
	}
	var conv float64
	if totalImpr > 0 {
		conv = 100.0 * float64(totalClicks) / float64(totalImpr)
	}
	return CampaignStats{Impressions: totalImpr, Clicks: totalClicks, SpentTotal: totalSpent, Conversion: conv}, nil
}

// AdvertiserDaily aggregates per-day totals across all of an advertiser's
// campaigns, soft-deleted or not, ascending by day, reading counts from
// Postgres.
func (p *Postgres) AdvertiserDaily(ctx context.Context, advertiserID uuid.UUID) ([]DayStats, error) {
	return p.AdvertiserDailyWithSource(ctx, advertiserID, p.DailyCounts)
}

// AdvertiserDailyWithSource is AdvertiserDaily parameterized over the
// per-campaign daily-count source, so callers can prefer the ClickHouse
// mirror and fall back to Postgres per campaign on error.
func (p *Postgres) AdvertiserDailyWithSource(ctx context.Context, advertiserID uuid.UUID, countsFn func(context.Context, uuid.UUID) ([]DailyCount, error)) ([]DayStats, error) {
	campaigns, err := p.AdvertiserCampaigns(ctx, advertiserID)
	if err != nil {
		return nil, err
	}
	byDay := map[int]*DayStats{}
	var days []int
	for _, c := range campaigns {
		daily, err := countsFn(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range DayStatsFrom(c, daily) {
			agg, ok := byDay[d.Day]
			if !ok {
				agg = &DayStats{Day: d.Day}
				byDay[d.Day] = agg
				days = append(days, d.Day)
			}
			agg.Impressions += d.Impressions
			agg.Clicks += d.Clicks
			agg.SpentTotal += d.SpentTotal
		}
	}
	sort.Ints(days)
	out := make([]DayStats, 0, len(days))
	for _, day := range days {
		agg := byDay[day]
		if agg.Impressions > 0 {
			agg.Conversion = 100.0 * float64(agg.Clicks) / float64(agg.Impressions)
		}
		out = append(out, *agg)
	}
	return out, nil
}
