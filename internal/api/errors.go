package api

import (
	"errors"
	"net/http"

	"github.com/campaignserve/adengine/internal/engine"
	"github.com/campaignserve/adengine/internal/models"
	"github.com/campaignserve/adengine/internal/store"
)

// writeDomainError maps a core error to an HTTP status code. NotFound and
// InvariantViolation are sentinel-wrapped by models; ErrConflict comes from
// store; ErrClientUnknown/ErrNoAdAvailable come from engine. Anything else
// is treated as transient and surfaced as 500, unchanged.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, engine.ErrClientUnknown):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvariantViolation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, engine.ErrNoAdAvailable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
