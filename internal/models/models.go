// Package models defines the entities of the ad-serving core: clients,
// advertisers, ML affinity scores, campaigns, and ad events.
package models

import (
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an entity is absent from the catalog or event log.
var ErrNotFound = errors.New("entity not found")

// Gender is a client's reported gender.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// TargetingGender is a campaign's gender targeting predicate. An empty value
// and TargetingGenderAll both mean "no gender restriction".
type TargetingGender string

const (
	TargetingGenderMale   TargetingGender = "MALE"
	TargetingGenderFemale TargetingGender = "FEMALE"
	TargetingGenderAll    TargetingGender = "ALL"
)

// EventType distinguishes the two kinds of AdEvent.
type EventType string

const (
	EventImpression EventType = "IMPRESSION"
	EventClick      EventType = "CLICK"
)

// Client is an end user the engine may serve ads to.
type Client struct {
	ID       uuid.UUID `json:"id"`
	Login    string    `json:"login"`
	Age      *int      `json:"age,omitempty"`
	Location string    `json:"location,omitempty"`
	Gender   Gender    `json:"gender"`
}

// Advertiser owns zero or more campaigns.
type Advertiser struct {
	ID   uuid.UUID `json:"advertiser_id"`
	Name string    `json:"name"`
}

// MLScore is a predicted affinity score for a (client, advertiser) pair.
// At most one row exists per pair; score is non-negative.
type MLScore struct {
	ClientID     uuid.UUID `json:"client_id"`
	AdvertiserID uuid.UUID `json:"advertiser_id"`
	Score        float64   `json:"score"`
}

// Campaign is a single advertiser-owned ad unit with budget caps, prices, a
// validity window, and optional targeting.
type Campaign struct {
	ID                uuid.UUID       `json:"campaign_id"`
	AdvertiserID      uuid.UUID       `json:"advertiser_id"`
	ImpressionsLimit  int             `json:"impressions_limit"`
	ClicksLimit       int             `json:"clicks_limit"`
	CostPerImpression float64         `json:"cost_per_impression"`
	CostPerClick      float64         `json:"cost_per_click"`
	AdTitle           string          `json:"ad_title"`
	AdText            string          `json:"ad_text"`
	AdPhotoURL        string          `json:"ad_photo_url,omitempty"`
	StartDate         int             `json:"start_date"`
	EndDate           int             `json:"end_date"`
	TargetGender      TargetingGender `json:"target_gender,omitempty"`
	TargetAgeFrom     *int            `json:"target_age_from,omitempty"`
	TargetAgeTo       *int            `json:"target_age_to,omitempty"`
	TargetLocation    string          `json:"target_location,omitempty"`
	IsDeleted         bool            `json:"is_deleted"`
	CreateDate        time.Time       `json:"create_date"`
}

// AdEvent is a single impression or click, unique per (campaign, client, type).
type AdEvent struct {
	ID             int64     `json:"id"`
	CampaignID     uuid.UUID `json:"campaign_id"`
	ClientID       uuid.UUID `json:"client_id"`
	EventType      EventType `json:"event_type"`
	EventDay       int       `json:"event_day"`
	EventTimestamp time.Time `json:"event_timestamp"`
}

// Validate enforces the campaign invariants from the data model: positive
// caps and prices, a non-inverted validity window, non-inverted age
// targeting, and non-empty ad copy.
func (c Campaign) Validate() error {
	if c.ImpressionsLimit <= 0 {
		return errInvariant("impressions_limit must be positive")
	}
	if c.ClicksLimit <= 0 {
		return errInvariant("clicks_limit must be positive")
	}
	if c.CostPerImpression <= 0 {
		return errInvariant("cost_per_impression must be positive")
	}
	if c.CostPerClick <= 0 {
		return errInvariant("cost_per_click must be positive")
	}
	if c.AdTitle == "" {
		return errInvariant("ad_title must not be empty")
	}
	if c.AdText == "" {
		return errInvariant("ad_text must not be empty")
	}
	if c.AdPhotoURL != "" {
		u, err := url.Parse(c.AdPhotoURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errInvariant("ad_photo_url must be a well-formed absolute URL")
		}
	}
	if c.EndDate < c.StartDate {
		return errInvariant("end_date must not precede start_date")
	}
	if c.TargetAgeFrom != nil && c.TargetAgeTo != nil && *c.TargetAgeFrom > *c.TargetAgeTo {
		return errInvariant("target_age_from must not exceed target_age_to")
	}
	return nil
}

// ErrInvariantViolation is the sentinel wrapped by every Campaign validation failure.
var ErrInvariantViolation = errors.New("invariant violation")

func errInvariant(msg string) error {
	return &invariantError{msg: msg}
}

// NewInvariantError builds an error wrapping ErrInvariantViolation for
// callers outside this package with invariants of their own to enforce
// (e.g. the clock's non-negative day).
func NewInvariantError(msg string) error {
	return errInvariant(msg)
}

type invariantError struct{ msg string }

func (e *invariantError) Error() string { return e.msg }
func (e *invariantError) Unwrap() error { return ErrInvariantViolation }
