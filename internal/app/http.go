package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"travel-price-watch/internal/observability"
	"travel-price-watch/internal/scheduler"
)

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status  string           `json:"status"`
	Uptime  string           `json:"uptime"`
	Started time.Time        `json:"started"`
	Runs    scheduler.Status `json:"runs"`
}

// NewHandler returns the HTTP surface of the long-running server:
// GET /health, GET /metrics, GET /status and POST /run.
func NewHandler(sched *scheduler.Scheduler, gatherer prometheus.Gatherer, started time.Time) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("GET /metrics", observability.Handler(gatherer))

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatusResponse{
			Status:  "running",
			Uptime:  time.Since(started).Round(time.Second).String(),
			Started: started,
			Runs:    sched.Status(),
		})
	})

	mux.HandleFunc("POST /run", func(w http.ResponseWriter, r *http.Request) {
		summary, err := sched.RunNow(r.Context())
		switch {
		case r.Context().Err() != nil:
			// Client went away; the run continues in the background.
			return
		case errors.Is(err, scheduler.ErrRunInProgress):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusOK, summary)
		}
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
