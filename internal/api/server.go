package api

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/campaignserve/adengine/internal/analytics"
	"github.com/campaignserve/adengine/internal/cache"
	"github.com/campaignserve/adengine/internal/config"
	"github.com/campaignserve/adengine/internal/engine"
	"github.com/campaignserve/adengine/internal/observability"
	"github.com/campaignserve/adengine/internal/store"
)

var tracer = otel.Tracer("adserve")

// Server groups the dependencies HTTP handlers need: the catalog/event-log
// store, the serve engine, the read-through cache, the ClickHouse mirror,
// metrics, and config. Handlers decode, call one of these, and encode; all
// domain logic lives in store/engine/cache, not here.
type Server struct {
	Logger    *zap.Logger
	Store     *store.Postgres
	Cache     *cache.Cache
	Analytics *analytics.Mirror
	Engine    *engine.Engine
	Metrics   observability.MetricsRegistry
	Config    config.Config
}

// NewServer constructs a Server. Cache and Analytics may be nil; both are
// best-effort enrichments and every call site degrades gracefully without them.
func NewServer(logger *zap.Logger, st *store.Postgres, c *cache.Cache, an *analytics.Mirror, eng *engine.Engine, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	return &Server{
		Logger:    logger,
		Store:     st,
		Cache:     c,
		Analytics: an,
		Engine:    eng,
		Metrics:   metrics,
		Config:    cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
