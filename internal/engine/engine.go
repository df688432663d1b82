// Package engine implements the eligibility and ranking component: given a
// client, it selects the highest-scoring eligible campaign and hands off to
// the recorder to write the first impression.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/campaignserve/adengine/internal/models"
	"github.com/campaignserve/adengine/internal/store"
)

// ErrClientUnknown is returned when the client id does not exist in the catalog.
var ErrClientUnknown = errors.New("client unknown")

// ErrNoAdAvailable is returned when no campaign is eligible for this client,
// including the case where the winning campaign's cap was consumed by a
// concurrent request between ranking and recording.
var ErrNoAdAvailable = errors.New("no ad available")

// Ad is the payload returned to the caller of Select.
type Ad struct {
	CampaignID   uuid.UUID
	AdvertiserID uuid.UUID
	AdTitle      string
	AdText       string
	AdPhotoURL   string
}

// Backend is the subset of store.Postgres the engine depends on, narrowed so
// the engine can be tested against a fake.
type Backend interface {
	GetClient(ctx context.Context, id uuid.UUID) (models.Client, error)
	GetDay(ctx context.Context) (int, error)
	FindBestCampaign(ctx context.Context, client models.Client, day int) (store.RankedCampaign, error)
	RecordImpression(ctx context.Context, campaignID, clientID uuid.UUID) (bool, error)
}

// Engine selects and serves ads.
type Engine struct {
	backend Backend
}

// New constructs an Engine over the given backend.
func New(backend Backend) *Engine {
	return &Engine{backend: backend}
}

// Select resolves the client, computes the current day, picks the unique
// winner under the hard eligibility filters and the expected-profit
// ordering, and records a first impression when this client has never seen
// the winner before.
func (e *Engine) Select(ctx context.Context, clientID uuid.UUID) (Ad, error) {
	client, err := e.backend.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Ad{}, ErrClientUnknown
		}
		return Ad{}, fmt.Errorf("load client: %w", err)
	}

	day, err := e.backend.GetDay(ctx)
	if err != nil {
		return Ad{}, fmt.Errorf("read clock: %w", err)
	}

	winner, err := e.backend.FindBestCampaign(ctx, client, day)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return Ad{}, ErrNoAdAvailable
		}
		return Ad{}, fmt.Errorf("rank campaigns: %w", err)
	}

	if !winner.HasImpression {
		ok, err := e.backend.RecordImpression(ctx, winner.CampaignID, clientID)
		if err != nil {
			return Ad{}, fmt.Errorf("record impression: %w", err)
		}
		if !ok {
			// The cap was consumed by a concurrent writer between ranking
			// and recording; the caller should re-query.
			return Ad{}, ErrNoAdAvailable
		}
	}

	return Ad{
		CampaignID:   winner.CampaignID,
		AdvertiserID: winner.AdvertiserID,
		AdTitle:      winner.AdTitle,
		AdText:       winner.AdText,
		AdPhotoURL:   winner.AdPhotoURL,
	}, nil
}
