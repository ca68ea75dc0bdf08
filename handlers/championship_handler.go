package handlers

import (
	"net/http"

	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/Dosada05/fjj-brasileirao/services"
)

type ChampionshipHandler struct {
	championshipService services.ChampionshipService
	matchService        services.MatchService
}

func NewChampionshipHandler(cs services.ChampionshipService, ms services.MatchService) *ChampionshipHandler {
	return &ChampionshipHandler{
		championshipService: cs,
		matchService:        ms,
	}
}

func (h *ChampionshipHandler) writeChampionship(w http.ResponseWriter, r *http.Request, status int, c *models.Championship) {
	if err := writeJSON(w, status, jsonResponse{"championship": c}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ChampionshipHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	c, err := h.championshipService.Current(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeChampionship(w, r, http.StatusOK, c)
}

func (h *ChampionshipHandler) CreateChampionship(w http.ResponseWriter, r *http.Request) {
	var input services.CreateChampionshipInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	c, err := h.championshipService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeChampionship(w, r, http.StatusCreated, c)
}

func (h *ChampionshipHandler) ResetChampionship(w http.ResponseWriter, r *http.Request) {
	if err := h.championshipService.Reset(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChampionshipHandler) AddTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	c, err := h.championshipService.AddTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeChampionship(w, r, http.StatusOK, c)
}

func (h *ChampionshipHandler) RemoveTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	c, err := h.championshipService.RemoveTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeChampionship(w, r, http.StatusOK, c)
}

func (h *ChampionshipHandler) Start(w http.ResponseWriter, r *http.Request) {
	c, err := h.championshipService.Start(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeChampionship(w, r, http.StatusOK, c)
}

func (h *ChampionshipHandler) Advance(w http.ResponseWriter, r *http.Request) {
	c, err := h.championshipService.Advance(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeChampionship(w, r, http.StatusOK, c)
}

func (h *ChampionshipHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var input services.FinalizeChampionshipInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	c, err := h.championshipService.Finalize(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeChampionship(w, r, http.StatusOK, c)
}

func (h *ChampionshipHandler) Standings(w http.ResponseWriter, r *http.Request) {
	table, err := h.championshipService.Standings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches отдаёт матчи текущего чемпионата, ?stage= фильтрует по стадии.
func (h *ChampionshipHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var stage *models.MatchStage
	if raw := r.URL.Query().Get("stage"); raw != "" {
		s := models.MatchStage(raw)
		stage = &s
	}

	matches, err := h.matchService.List(r.Context(), stage)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
