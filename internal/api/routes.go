package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/middleware"
	"github.com/pinkertons/activity-ledger/internal/store"
)

// SetupRoutes serves the read-only endpoints behind the dashboard charts.
func SetupRoutes(s *store.Store, corsOrigins []string, log *logger.Logger) http.Handler {
	h := &Handler{store: s, log: log.With("component", "API")}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(h.log))
	r.Use(middleware.CORSMiddleware(corsOrigins))

	r.Get("/", RootHandler)
	r.Get("/activities", h.ActivitiesHandler)
	r.Get("/locations", h.LocationsHandler)

	return r
}
