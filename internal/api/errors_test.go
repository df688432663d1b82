package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campaignserve/adengine/internal/engine"
	"github.com/campaignserve/adengine/internal/models"
	"github.com/campaignserve/adengine/internal/store"
)

func TestWriteDomainErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"client unknown", engine.ErrClientUnknown, http.StatusNotFound},
		{"no ad available", engine.ErrNoAdAvailable, http.StatusNotFound},
		{"invariant violation", models.NewInvariantError("end_date must not precede start_date"), http.StatusUnprocessableEntity},
		{"conflict", store.ErrConflict, http.StatusConflict},
		{"transient", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeDomainError(w, tc.err)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestWriteDomainErrorMapsWrappedSentinels(t *testing.T) {
	w := httptest.NewRecorder()
	writeDomainError(w, errors.Join(errors.New("load client"), models.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
