package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pinkertons/activity-ledger/internal/logger"
	"github.com/pinkertons/activity-ledger/internal/store"
)

type Handler struct {
	store *store.Store
	log   *logger.Logger
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

// ActivitiesHandler lists activities, optionally filtered by
// ?operative=&mode=&from=YYYY-MM-DD&to=YYYY-MM-DD&limit=.
func (h *Handler) ActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ActivityFilter{
		Operative: q.Get("operative"),
		Mode:      q.Get("mode"),
	}

	var err error
	if filter.From, err = dateParam(q.Get("from")); err != nil {
		http.Error(w, "Invalid from date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if filter.To, err = dateParam(q.Get("to")); err != nil {
		http.Error(w, "Invalid to date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}

	activities, err := h.store.ListActivities(r.Context(), filter)
	if err != nil {
		h.log.Error("list activities", "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if activities == nil {
		activities = []store.Activity{}
	}
	writeJSON(w, activities)
}

// LocationsHandler lists every location with its activity count.
func (h *Handler) LocationsHandler(w http.ResponseWriter, r *http.Request) {
	locations, err := h.store.LocationFrequency(r.Context())
	if err != nil {
		h.log.Error("location frequency", "error", err)
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if locations == nil {
		locations = []store.LocationCount{}
	}
	writeJSON(w, locations)
}

func dateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
