package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/campaignserve/adengine/internal/middleware"
)

type dayBody struct {
	Day int `json:"day"`
}

// GetDayHandler handles GET /clock: the current virtual day.
func (s *Server) GetDayHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GetDay")
	defer span.End()
	_, done := s.instrument("clock", "GET")

	day, err := s.Store.GetDay(ctx)
	if err != nil {
		done("500")
		writeDomainError(w, err)
		return
	}
	done("200")
	writeJSON(w, http.StatusOK, dayBody{Day: day})
}

// SetDayHandler handles POST /clock: operator control over the virtual clock.
func (s *Server) SetDayHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "SetDay")
	defer span.End()
	logger := middleware.LoggerFromRequest(r, s.Logger)
	_, done := s.instrument("clock", "POST")

	var body dayBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		done("400")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := s.Store.SetDay(ctx, body.Day); err != nil {
		logger.Error("set day", zap.Error(err))
		done("422")
		writeDomainError(w, err)
		return
	}
	done("200")
	writeJSON(w, http.StatusOK, body)
}
