package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignserve/adengine/internal/models"
	"github.com/campaignserve/adengine/internal/store"
)

type fakeBackend struct {
	client        models.Client
	clientErr     error
	day           int
	winner        store.RankedCampaign
	winnerErr     error
	recordResult  bool
	recordErr     error
	recordedCalls int
}

func (f *fakeBackend) GetClient(ctx context.Context, id uuid.UUID) (models.Client, error) {
	return f.client, f.clientErr
}

func (f *fakeBackend) GetDay(ctx context.Context) (int, error) {
	return f.day, nil
}

func (f *fakeBackend) FindBestCampaign(ctx context.Context, client models.Client, day int) (store.RankedCampaign, error) {
	return f.winner, f.winnerErr
}

func (f *fakeBackend) RecordImpression(ctx context.Context, campaignID, clientID uuid.UUID) (bool, error) {
	f.recordedCalls++
	return f.recordResult, f.recordErr
}

func TestSelectUnknownClient(t *testing.T) {
	backend := &fakeBackend{clientErr: models.ErrNotFound}
	e := New(backend)
	_, err := e.Select(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrClientUnknown)
}

func TestSelectNoEligibleCampaign(t *testing.T) {
	backend := &fakeBackend{winnerErr: models.ErrNotFound}
	e := New(backend)
	_, err := e.Select(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoAdAvailable)
}

func TestSelectRecordsFirstImpression(t *testing.T) {
	campaignID := uuid.New()
	backend := &fakeBackend{
		winner:       store.RankedCampaign{CampaignID: campaignID, AdTitle: "t", AdText: "x", HasImpression: false},
		recordResult: true,
	}
	e := New(backend)
	ad, err := e.Select(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, campaignID, ad.CampaignID)
	assert.Equal(t, 1, backend.recordedCalls)
}

func TestSelectSkipsRecordWhenAlreadyImpressed(t *testing.T) {
	campaignID := uuid.New()
	backend := &fakeBackend{
		winner: store.RankedCampaign{CampaignID: campaignID, HasImpression: true},
	}
	e := New(backend)
	_, err := e.Select(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, backend.recordedCalls)
}

func TestSelectReturnsWinnerPayload(t *testing.T) {
	campaignID, advertiserID := uuid.New(), uuid.New()
	backend := &fakeBackend{
		winner: store.RankedCampaign{
			CampaignID:    campaignID,
			AdvertiserID:  advertiserID,
			AdTitle:       "Summer sale",
			AdText:        "20% off everything",
			AdPhotoURL:    "https://cdn.example.com/ad.png",
			HasImpression: true,
		},
	}
	e := New(backend)
	ad, err := e.Select(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, campaignID, ad.CampaignID)
	assert.Equal(t, advertiserID, ad.AdvertiserID)
	assert.Equal(t, "Summer sale", ad.AdTitle)
	assert.Equal(t, "20% off everything", ad.AdText)
	assert.Equal(t, "https://cdn.example.com/ad.png", ad.AdPhotoURL)
}

func TestSelectIsDeterministicForFixedState(t *testing.T) {
	// Once the first impression exists, repeated selects against the same
	// state must keep returning the same winner without writing again.
	campaignID := uuid.New()
	backend := &fakeBackend{
		winner: store.RankedCampaign{CampaignID: campaignID, HasImpression: true},
	}
	e := New(backend)
	for i := 0; i < 3; i++ {
		ad, err := e.Select(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Equal(t, campaignID, ad.CampaignID)
	}
	assert.Equal(t, 0, backend.recordedCalls)
}

func TestSelectPropagatesRaceLossAsNoAdAvailable(t *testing.T) {
	backend := &fakeBackend{
		winner:       store.RankedCampaign{CampaignID: uuid.New(), HasImpression: false},
		recordResult: false,
	}
	e := New(backend)
	_, err := e.Select(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoAdAvailable)
}
