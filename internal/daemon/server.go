package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// routes builds the daemon's HTTP mux: the published site at /, health at
// /healthz, Prometheus at /metrics, and recent build runs at /api/runs.
func (d *Daemon) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(d.opts.Output)))
	mux.Handle("/metrics", d.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/runs", d.handleRuns)
	return mux
}

type runResponse struct {
	ID        string `json:"id"`
	StartedAt string `json:"started_at"`
	Duration  string `json:"duration"`
	Published int    `json:"published"`
	Failed    int    `json:"failed"`
}

func (d *Daemon) handleRuns(w http.ResponseWriter, r *http.Request) {
	if d.opts.Store == nil {
		http.Error(w, "build history not enabled", http.StatusNotFound)
		return
	}

	runs, err := d.opts.Store.Runs(r.Context(), 20)
	if err != nil {
		slog.Error("Failed to query runs", logfields.Error(err))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, runResponse{
			ID:        run.ID,
			StartedAt: run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Duration:  run.Duration.String(),
			Published: run.Published,
			Failed:    run.Failed,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode runs response", logfields.Error(err))
	}
}
