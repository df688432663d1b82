package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/campaignserve/adengine/internal/config"
	"github.com/campaignserve/adengine/internal/observability"
)

func testServer() *Server {
	return NewServer(zap.NewNop(), nil, nil, nil, nil, observability.NewNoOpRegistry(), config.Config{})
}

func TestHealthHandler(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.HealthHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func withIDVar(r *http.Request, id string) *http.Request {
	return mux.SetURLVars(r, map[string]string{"id": id})
}

func TestGetClientHandlerInvalidID(t *testing.T) {
	s := testServer()
	req := withIDVar(httptest.NewRequest(http.MethodGet, "/clients/not-a-uuid", nil), "not-a-uuid")
	w := httptest.NewRecorder()

	s.GetClientHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCampaignHandlerInvalidID(t *testing.T) {
	s := testServer()
	req := withIDVar(httptest.NewRequest(http.MethodGet, "/campaigns/not-a-uuid", nil), "not-a-uuid")
	w := httptest.NewRecorder()

	s.GetCampaignHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAdHandlerInvalidID(t *testing.T) {
	s := testServer()
	req := withIDVar(httptest.NewRequest(http.MethodGet, "/clients/not-a-uuid/ad", nil), "not-a-uuid")
	w := httptest.NewRecorder()

	s.GetAdHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordClickHandlerInvalidID(t *testing.T) {
	s := testServer()
	req := withIDVar(httptest.NewRequest(http.MethodPost, "/campaigns/not-a-uuid/click", nil), "not-a-uuid")
	w := httptest.NewRecorder()

	s.RecordClickHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetDayHandlerInvalidJSON(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodPost, "/clock", strings.NewReader("not json"))
	w := httptest.NewRecorder()

	s.SetDayHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
