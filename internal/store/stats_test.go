package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/campaignserve/adengine/internal/models"
)

func TestComputeStatsConversionZeroWithNoImpressions(t *testing.T) {
	spent, conv := computeStats(0, 0, 1.0, 5.0)
	assert.Equal(t, 0.0, spent)
	assert.Equal(t, 0.0, conv)
}

func TestComputeStatsSpendAndConversion(t *testing.T) {
	spent, conv := computeStats(1, 1, 1.5, 2.5)
	assert.Equal(t, 4.0, spent)
	assert.Equal(t, 100.0, conv)
}

func TestComputeStatsPartialConversion(t *testing.T) {
	spent, conv := computeStats(4, 1, 1.0, 10.0)
	assert.Equal(t, 14.0, spent)
	assert.Equal(t, 25.0, conv)
}

func TestDayStatsFromUsesCampaignCurrentRates(t *testing.T) {
	c := models.Campaign{ID: uuid.New(), CostPerImpression: 2.0, CostPerClick: 3.0}
	counts := []DailyCount{
		{Day: 1, Impressions: 10, Clicks: 2},
		{Day: 3, Impressions: 5, Clicks: 0},
	}

	out := DayStatsFrom(c, counts)

	assert.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Day)
	assert.Equal(t, 26.0, out[0].SpentTotal) // 10*2 + 2*3
	assert.Equal(t, 20.0, out[0].Conversion) // 100*2/10
	assert.Equal(t, 3, out[1].Day)
	assert.Equal(t, 10.0, out[1].SpentTotal)
	assert.Equal(t, 0.0, out[1].Conversion)
}

func TestDayStatsFromEmptyInput(t *testing.T) {
	out := DayStatsFrom(models.Campaign{}, nil)
	assert.Empty(t, out)
}
