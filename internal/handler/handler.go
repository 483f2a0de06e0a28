package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/rpromhub/rpromhub/internal/collector"
	"github.com/rpromhub/rpromhub/internal/store"
	"github.com/rpromhub/rpromhub/internal/target"
)

// Collector runs one collection cycle.
type Collector interface {
	Collect(ctx context.Context, targets []target.Target) collector.Report
}

// Targets supplies the current target snapshot.
type Targets interface {
	Targets() []target.Target
}

// Handler serves the exposition endpoint. Every request, whatever its path or
// method, runs a full collection cycle before rendering the store.
type Handler struct {
	targets   Targets
	collector Collector
	store     *store.Store
}

// New creates a Handler that collects reg's targets through c and renders st.
func New(reg Targets, c Collector, st *store.Store) *Handler {
	return &Handler{targets: reg, collector: c, store: st}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rep := h.collector.Collect(r.Context(), h.targets.Targets())
	slog.Debug("handler: scrape collected",
		"remote", r.RemoteAddr,
		"targets", rep.Targets,
		"failed", rep.Failed,
		"duration", rep.Duration,
	)

	var buf bytes.Buffer
	if err := h.store.Render(&buf); err != nil {
		slog.Error("handler: render failed", "err", err)
		http.Error(w, "render metrics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", string(store.Format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}
