package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Dosada05/fjj-brasileirao/syncer"
)

// Pinger - то, что нужно health-check от пула соединений.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Syncer interface {
	SyncOnce(ctx context.Context) (syncer.Report, error)
}

type SystemHandler struct {
	db           Pinger
	syncer       Syncer
	remoteActive bool
}

func NewSystemHandler(db Pinger, s Syncer, remoteActive bool) *SystemHandler {
	return &SystemHandler{db: db, syncer: s, remoteActive: remoteActive}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		logError(r, "health check: database unreachable", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	response := jsonResponse{
		"status":       status,
		"remote_store": h.remoteActive,
	}
	if err := writeJSON(w, code, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Sync runs one reconciliation pass on demand.
func (h *SystemHandler) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.syncer.SyncOnce(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sync": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
