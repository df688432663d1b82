package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/campaignserve/adengine/internal/middleware"
	"github.com/campaignserve/adengine/internal/models"
)

func (s *Server) instrument(endpoint, method string) (time.Time, func(status string)) {
	start := time.Now()
	return start, func(status string) {
		s.Metrics.IncrementRequests(endpoint, method, status)
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	}
}

// UpsertClientsHandler handles POST /clients: idempotent bulk create-or-update by id.
func (s *Server) UpsertClientsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "UpsertClients")
	defer span.End()
	logger := middleware.LoggerFromRequest(r, s.Logger)
	_, done := s.instrument("clients", "POST")

	var clients []models.Client
	if err := json.NewDecoder(r.Body).Decode(&clients); err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	out, err := s.Store.UpsertClients(ctx, clients)
	if err != nil {
		logger.Error("upsert clients", zap.Error(err))
		done("500")
		writeDomainError(w, err)
		return
	}
	if s.Cache != nil {
		for _, c := range out {
			_ = s.Cache.Invalidate(ctx, "client", c.ID)
		}
	}
	done("201")
	writeJSON(w, http.StatusCreated, out)
}

// GetClientHandler handles GET /clients/{id}.
func (s *Server) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GetClient", trace.WithAttributes(attribute.String("http.route", "/clients/{id}")))
	defer span.End()
	_, done := s.instrument("clients", "GET")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var client models.Client
	if s.Cache != nil {
		if found, _ := s.Cache.Get(ctx, "client", id, &client); found {
			done("200")
			writeJSON(w, http.StatusOK, client)
			return
		}
	}

	client, err = s.Store.GetClient(ctx, id)
	if err != nil {
		done("404")
		writeDomainError(w, err)
		return
	}
	if s.Cache != nil {
		_ = s.Cache.Set(ctx, "client", id, client)
	}
	done("200")
	writeJSON(w, http.StatusOK, client)
}

// UpsertAdvertisersHandler handles POST /advertisers: idempotent bulk upsert by id.
func (s *Server) UpsertAdvertisersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "UpsertAdvertisers")
	defer span.End()
	logger := middleware.LoggerFromRequest(r, s.Logger)
	_, done := s.instrument("advertisers", "POST")

	var advertisers []models.Advertiser
	if err := json.NewDecoder(r.Body).Decode(&advertisers); err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	out, err := s.Store.UpsertAdvertisers(ctx, advertisers)
	if err != nil {
		logger.Error("upsert advertisers", zap.Error(err))
		done("500")
		writeDomainError(w, err)
		return
	}
	if s.Cache != nil {
		for _, a := range out {
			_ = s.Cache.Invalidate(ctx, "advertiser", a.ID)
		}
	}
	done("201")
	writeJSON(w, http.StatusCreated, out)
}

// GetAdvertiserHandler handles GET /advertisers/{id}.
func (s *Server) GetAdvertiserHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GetAdvertiser")
	defer span.End()
	_, done := s.instrument("advertisers", "GET")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	advertiser, err := s.Store.GetAdvertiser(ctx, id)
	if err != nil {
		done("404")
		writeDomainError(w, err)
		return
	}
	done("200")
	writeJSON(w, http.StatusOK, advertiser)
}

// UpsertMLScoreHandler handles POST /ml-scores: create or replace the score
// for a (client, advertiser) pair. 404 if either foreign key is missing.
func (s *Server) UpsertMLScoreHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "UpsertMLScore")
	defer span.End()
	_, done := s.instrument("ml-scores", "POST")

	var score models.MLScore
	if err := json.NewDecoder(r.Body).Decode(&score); err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.Store.UpsertMLScore(ctx, score); err != nil {
		done("404")
		writeDomainError(w, err)
		return
	}
	done("201")
	writeJSON(w, http.StatusCreated, score)
}

// CreateCampaignHandler handles POST /campaigns.
func (s *Server) CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "CreateCampaign")
	defer span.End()
	_, done := s.instrument("campaigns", "POST")

	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	out, err := s.Store.CreateCampaign(ctx, c)
	if err != nil {
		done("422")
		writeDomainError(w, err)
		return
	}
	done("201")
	writeJSON(w, http.StatusCreated, out)
}

// GetCampaignHandler handles GET /campaigns/{id}.
func (s *Server) GetCampaignHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GetCampaign")
	defer span.End()
	_, done := s.instrument("campaigns", "GET")

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
	done("200")
	writeJSON(w, http.StatusOK, c)
}

// UpdateCampaignHandler handles PUT /campaigns/{id}.
func (s *Server) UpdateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "UpdateCampaign")
	defer span.End()
	_, done := s.instrument("campaigns", "PUT")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var c models.Campaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c.ID = id

	out, err := s.Store.UpdateCampaign(ctx, c)
	if err != nil {
		done("404")
		writeDomainError(w, err)
		return
	}
	if s.Cache != nil {
		_ = s.Cache.Invalidate(ctx, "campaign", id)
	}
	done("200")
	writeJSON(w, http.StatusOK, out)
}

// DeleteCampaignHandler handles DELETE /campaigns/{id}: soft-delete.
func (s *Server) DeleteCampaignHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "DeleteCampaign")
	defer span.End()
	_, done := s.instrument("campaigns", "DELETE")

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.Store.DeleteCampaign(ctx, id); err != nil {
		done("404")
		writeDomainError(w, err)
		return
	}
	if s.Cache != nil {
		_ = s.Cache.Invalidate(ctx, "campaign", id)
	}
	done("204")
	w.WriteHeader(http.StatusNoContent)
}

// ListCampaignsHandler handles GET /advertisers/{id}/campaigns?page=&size=.
func (s *Server) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "ListCampaigns")
	defer span.End()
	_, done := s.instrument("campaigns", "GET")

	advertiserID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if _, err := s.Store.GetAdvertiser(ctx, advertiserID); err != nil {
		done("404")
		writeDomainError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	list, err := s.Store.ListCampaigns(ctx, advertiserID, page, size)
	if err != nil {
		done("500")
		writeDomainError(w, err)
		return
	}
	done("200")
	writeJSON(w, http.StatusOK, list)
}
