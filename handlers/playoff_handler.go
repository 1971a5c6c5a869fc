package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/stage-engine/services"
)

type PlayoffHandler struct {
	playoffService services.PlayoffService
	logger         *slog.Logger
}

func NewPlayoffHandler(ps services.PlayoffService, logger *slog.Logger) *PlayoffHandler {
	return &PlayoffHandler{playoffService: ps, logger: logger}
}

type seedPlayoffsRequest struct {
	GroupsStageID string `json:"groups_stage_id"`
}

// SeedHandler handles POST /tournaments/{tournamentID}/stages/{stageID}/seed,
// where stageID is the playoffs stage and the body names the groups stage.
func (h *PlayoffHandler) SeedHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, playoffsStageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input seedPlayoffsRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.GroupsStageID == "" {
		badRequestResponse(w, r, errors.New("groups_stage_id is required"))
		return
	}

	result, err := h.playoffService.SeedPlayoffs(r.Context(), tournamentID, input.GroupsStageID, playoffsStageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"playoffs": result}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// GetHandler handles GET /tournaments/{tournamentID}/stages/{stageID}/playoffs
func (h *PlayoffHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, playoffsStageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.playoffService.GetPlayoffs(r.Context(), tournamentID, playoffsStageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"playoffs": view}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
