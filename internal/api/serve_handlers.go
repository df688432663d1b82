package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/campaignserve/adengine/internal/engine"
	"github.com/campaignserve/adengine/internal/middleware"
	"github.com/campaignserve/adengine/internal/models"
	"github.com/campaignserve/adengine/internal/observability"
)

// GetAdHandler handles GET /clients/{id}/ad: the core serve operation. It
// records the first impression atomically on a winning campaign and returns
// 404 for an unknown client or when nothing is eligible right now.
func (s *Server) GetAdHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GetAd")
	defer span.End()
	logger := middleware.LoggerFromRequest(r, s.Logger)
	_, done := s.instrument("ad", "GET")

	clientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ad, err := s.Engine.Select(ctx, clientID)
	if err != nil {
		if errors.Is(err, engine.ErrNoAdAvailable) {
			s.Metrics.IncrementNoAd()
		} else if !errors.Is(err, engine.ErrClientUnknown) {
			logger.Error("select ad", zap.Error(err))
		}
		done("404")
		writeDomainError(w, err)
		return
	}

	s.Metrics.IncrementImpressions("served")
	if s.Analytics != nil {
		if day, err := s.Store.GetDay(ctx); err == nil {
			s.Analytics.RecordEvent(ctx, ad.CampaignID, clientID, models.EventImpression, day)
		}
	}
	if observability.ShouldSample(observability.GetSamplingRate()) {
		logger.Debug("ad served", zap.String("campaign_id", ad.CampaignID.String()), zap.String("client_id", clientID.String()))
	}
	done("200")
	writeJSON(w, http.StatusOK, ad)
}

type clickRequest struct {
	ClientID uuid.UUID `json:"client_id"`
}

// RecordClickHandler handles POST /campaigns/{id}/click: record a click by
// a client against a campaign. 409 when the recorder refuses the write
// (no prior impression, cap exhausted, outside validity, soft-deleted).
func (s *Server) RecordClickHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "RecordClick")
	defer span.End()
	logger := middleware.LoggerFromRequest(r, s.Logger)
	_, done := s.instrument("click", "POST")

	campaignID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ok, err := s.Store.RecordClick(ctx, campaignID, req.ClientID)
	if err != nil {
		logger.Error("record click", zap.Error(err))
		s.Metrics.IncrementEvent("click_error")
		done("500")
		writeDomainError(w, err)
		return
	}
	if !ok {
		s.Metrics.IncrementEvent("click_refused")
		done("409")
		writeError(w, http.StatusConflict, "recorder refused click")
		return
	}

	s.Metrics.IncrementEvent("click")
	if s.Analytics != nil {
		if day, err := s.Store.GetDay(ctx); err == nil {
			s.Analytics.RecordEvent(ctx, campaignID, req.ClientID, models.EventClick, day)
		}
	}
	if observability.ShouldSample(observability.GetSamplingRate()) {
		logger.Debug("click recorded", zap.String("campaign_id", campaignID.String()), zap.String("client_id", req.ClientID.String()))
	}
	done("204")
	w.WriteHeader(http.StatusNoContent)
}
