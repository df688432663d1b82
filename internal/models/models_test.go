package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validCampaign() Campaign {
	return Campaign{
		ID:                uuid.New(),
		AdvertiserID:      uuid.New(),
		ImpressionsLimit:  100,
		ClicksLimit:       10,
		CostPerImpression: 1.0,
		CostPerClick:      5.0,
		AdTitle:           "Summer sale",
		AdText:            "20% off everything",
		StartDate:         1,
		EndDate:           10,
	}
}

func TestValidateAcceptsMinimalCampaign(t *testing.T) {
	assert.NoError(t, validCampaign().Validate())
}

func TestValidateRejectsNonPositiveCaps(t *testing.T) {
	c := validCampaign()
	c.ImpressionsLimit = 0
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)

	c = validCampaign()
	c.ClicksLimit = -1
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)
}

func TestValidateRejectsNonPositivePrices(t *testing.T) {
	c := validCampaign()
	c.CostPerImpression = 0
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)

	c = validCampaign()
	c.CostPerClick = -5
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)
}

func TestValidateRejectsEmptyAdCopy(t *testing.T) {
	c := validCampaign()
	c.AdTitle = ""
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)

	c = validCampaign()
	c.AdText = ""
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)
}

func TestValidateRejectsMalformedPhotoURL(t *testing.T) {
	c := validCampaign()
	c.AdPhotoURL = "not a url"
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)

	c = validCampaign()
	c.AdPhotoURL = "https://cdn.example.com/ad.png"
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsInvertedDateWindow(t *testing.T) {
	c := validCampaign()
	c.StartDate = 10
	c.EndDate = 5
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)
}

func TestValidateRejectsInvertedAgeTargeting(t *testing.T) {
	c := validCampaign()
	from, to := 40, 18
	c.TargetAgeFrom = &from
	c.TargetAgeTo = &to
	assert.ErrorIs(t, c.Validate(), ErrInvariantViolation)
}

func TestValidateAcceptsNonInvertedAgeTargeting(t *testing.T) {
	c := validCampaign()
	from, to := 18, 40
	c.TargetAgeFrom = &from
	c.TargetAgeTo = &to
	assert.NoError(t, c.Validate())
}

func TestInvariantErrorUnwrapsToSentinel(t *testing.T) {
	err := errInvariant("boom")
	assert.True(t, errors.Is(err, ErrInvariantViolation))
}
