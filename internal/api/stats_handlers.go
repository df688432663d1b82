package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/campaignserve/adengine/internal/models"
	"github.com/campaignserve/adengine/internal/store"
)

// dailyCounts prefers the ClickHouse mirror for the GROUP BY day access
// pattern of the daily-stats endpoints, degrading to the Postgres read path
// on any mirror error since the mirror is an enrichment, not a source of
// truth.
func (s *Server) dailyCounts(ctx context.Context, campaignID uuid.UUID) ([]store.DailyCount, error) {
	if s.Analytics != nil {
		if dc, err := s.Analytics.DailyCounts(ctx, campaignID); err == nil {
			return dc, nil
		}
	}
	return s.Store.DailyCounts(ctx, campaignID)
}

// CampaignStatsHandler handles GET /campaigns/{id}/stats: totals.
func (s *Server) CampaignStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "CampaignStats")
	defer span.End()
	_, done := s.instrument("campaign-stats", "GET")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	totals, err := s.Store.CampaignTotals(ctx, id)
	if err != nil {
		done("404")
		writeDomainError(w, err)
		return
	}
	s.Metrics.SetSpendTotal(id.String(), totals.SpentTotal)
	done("200")
	writeJSON(w, http.StatusOK, totals)
}

// CampaignDailyStatsHandler handles GET /campaigns/{id}/stats/daily.
func (s *Server) CampaignDailyStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "CampaignDailyStats")
	defer span.End()
	_, done := s.instrument("campaign-stats-daily", "GET")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	c, err := s.Store.GetCampaign(ctx, id)
	if err != nil {
		done("404")
		writeDomainError(w, err)
		return
	}
	if c.IsDeleted {
		done("404")
		writeDomainError(w, models.ErrNotFound)
		return
	}
	counts, err := s.dailyCounts(ctx, id)
	if err != nil {
		done("500")
		writeDomainError(w, err)
		return
	}
	done("200")
	writeJSON(w, http.StatusOK, store.DayStatsFrom(c, counts))
}

// AdvertiserStatsHandler handles GET /advertisers/{id}/stats: totals across
// all of an advertiser's campaigns, including soft-deleted ones.
func (s *Server) AdvertiserStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "AdvertiserStats")
	defer span.End()
	_, done := s.instrument("advertiser-stats", "GET")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	totals, err := s.Store.AdvertiserTotals(ctx, id)
	if err != nil {
		done("500")
		writeDomainError(w, err)
		return
	}
	done("200")
	writeJSON(w, http.StatusOK, totals)
}

// AdvertiserDailyStatsHandler handles GET /advertisers/{id}/stats/daily.
func (s *Server) AdvertiserDailyStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "AdvertiserDailyStats")
	defer span.End()
	_, done := s.instrument("advertiser-stats-daily", "GET")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	daily, err := s.Store.AdvertiserDailyWithSource(ctx, id, s.dailyCounts)
	if err != nil {
		done("500")
		writeDomainError(w, err)
		return
	}
	done("200")
	writeJSON(w, http.StatusOK, daily)
}
