package handlers

import (
	"net/http"

	"github.com/Dosada05/fjj-brasileirao/ledger"
	"github.com/Dosada05/fjj-brasileirao/services"
)

type TransferHandler struct {
	transferService services.TransferService
}

func NewTransferHandler(ts services.TransferService) *TransferHandler {
	return &TransferHandler{transferService: ts}
}

func (h *TransferHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := h.transferService.List(r.Context(), nil)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"transfers": transfers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var input ledger.TransferRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	transfer, err := h.transferService.Transfer(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"transfer": transfer}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TransferHandler) SignExternal(w http.ResponseWriter, r *http.Request) {
	var input services.SignExternalInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	transfer, player, err := h.transferService.SignExternal(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	response := jsonResponse{
		"transfer": transfer,
		"player":   player,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
