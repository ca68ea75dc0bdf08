package handlers

import (
	"net/http"

	"github.com/Dosada05/fjj-brasileirao/services"
)

type HistoryHandler struct {
	historyService services.HistoryService
}

func NewHistoryHandler(hs services.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: hs}
}

func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.historyService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
