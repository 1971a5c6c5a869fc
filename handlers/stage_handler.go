package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/stage-engine/services"
)

// StageHandler serves the group stage lifecycle: initialization, the live
// draw, matchday generation and standings.
type StageHandler struct {
	groupService     services.GroupStageService
	scheduleService  services.ScheduleService
	standingsService services.StandingsService
	logger           *slog.Logger
}

func NewStageHandler(gs services.GroupStageService, ss services.ScheduleService, st services.StandingsService, logger *slog.Logger) *StageHandler {
	return &StageHandler{
		groupService:     gs,
		scheduleService:  ss,
		standingsService: st,
		logger:           logger,
	}
}

func stageParams(r *http.Request) (string, string, error) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		return "", "", err
	}
	stageID, err := getIDFromURL(r, "stageID")
	if err != nil {
		return "", "", err
	}
	return tournamentID, stageID, nil
}

// InitializeGroupsHandler handles POST /tournaments/{tournamentID}/stages/{stageID}/groups
func (h *StageHandler) InitializeGroupsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, stageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.groupService.InitializeGroups(r.Context(), tournamentID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"groups": state}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// GetGroupsHandler handles GET /tournaments/{tournamentID}/stages/{stageID}/groups
func (h *StageHandler) GetGroupsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, stageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.groupService.GetGroups(r.Context(), tournamentID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": state}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// RevealNextHandler handles POST /tournaments/{tournamentID}/stages/{stageID}/draw/reveal
func (h *StageHandler) RevealNextHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, stageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reveal, state, err := h.groupService.RevealNext(r.Context(), tournamentID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reveal": reveal, "groups": state}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// GenerateMatchdayHandler handles POST /tournaments/{tournamentID}/stages/{stageID}/matchdays/{matchday}
func (h *StageHandler) GenerateMatchdayHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, stageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchday, err := getIntFromURL(r, "matchday")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.scheduleService.GenerateMatchday(r.Context(), tournamentID, stageID, matchday)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matchday": matchday, "matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// GenerateAllMatchdaysHandler handles POST /tournaments/{tournamentID}/stages/{stageID}/matchdays
func (h *StageHandler) GenerateAllMatchdaysHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, stageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcomes, err := h.scheduleService.GenerateAllMatchdays(r.Context(), tournamentID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matchdays": outcomes}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// ListMatchesHandler handles GET /tournaments/{tournamentID}/stages/{stageID}/matches?matchday=N
func (h *StageHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, stageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var matchday *int
	if raw := r.URL.Query().Get("matchday"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequestResponse(w, r, fmt.Errorf("invalid matchday query parameter: %q", raw))
			return
		}
		matchday = &n
	}

	matches, err := h.scheduleService.ListMatches(r.Context(), tournamentID, stageID, matchday)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// StandingsHandler handles GET /tournaments/{tournamentID}/stages/{stageID}/standings
func (h *StageHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, stageID, err := stageParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.GetStandings(r.Context(), tournamentID, stageID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
