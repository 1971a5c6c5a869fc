package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/stage-engine/services"
)

type MatchHandler struct {
	scheduleService services.ScheduleService
	logger          *slog.Logger
}

func NewMatchHandler(ss services.ScheduleService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{scheduleService: ss, logger: logger}
}

type recordResultRequest struct {
	Team1Score *int `json:"team1_score"`
	Team2Score *int `json:"team2_score"`
}

// RecordResultHandler handles POST /tournaments/{tournamentID}/matches/{matchID}/result
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input recordResultRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Team1Score == nil || input.Team2Score == nil {
		badRequestResponse(w, r, errors.New("team1_score and team2_score are required"))
		return
	}

	match, err := h.scheduleService.RecordResult(r.Context(), tournamentID, matchID, *input.Team1Score, *input.Team2Score)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
