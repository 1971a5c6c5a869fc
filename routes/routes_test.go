package routes

import (
	"bytes"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/stage-engine/brackets"
	"github.com/Dosada05/stage-engine/handlers"
	"github.com/Dosada05/stage-engine/repositories"
	"github.com/Dosada05/stage-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "routes-secret"

func newRouter(t *testing.T, metricsEnabled bool) *chi.Mux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore()
	hub := brackets.NewHub(logger)

	tournaments := services.NewTournamentService(store, logger)
	groups := services.NewGroupStageService(store, hub, logger, rand.New(rand.NewSource(1)))
	schedule := services.NewScheduleService(store, hub, logger)
	standings := services.NewStandingsService(store, logger)
	playoffs := services.NewPlayoffService(store, nil, nil, hub, logger)

	router := chi.NewRouter()
	SetupRoutes(router,
		Options{JWTSecret: secret, AllowedOrigins: []string{"*"}, MetricsEnabled: metricsEnabled},
		handlers.NewTournamentHandler(tournaments, logger),
		handlers.NewStageHandler(groups, schedule, standings, logger),
		handlers.NewMatchHandler(schedule, logger),
		handlers.NewPlayoffHandler(playoffs, logger),
		handlers.NewWebSocketHandler(hub, tournaments, []string{"*"}, logger),
	)
	return router
}

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "op-7", "role": role}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func request(router http.Handler, method, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// region SetupRoutes

func TestSetupRoutes_WritesRequireOperator(t *testing.T) {
	router := newRouter(t, false)

	writes := []string{
		"/tournaments",
		"/tournaments/t1/registration/close",
		"/tournaments/t1/matches/m1/result",
		"/tournaments/t1/stages/gs/groups",
		"/tournaments/t1/stages/gs/draw/reveal",
		"/tournaments/t1/stages/gs/matchdays",
		"/tournaments/t1/stages/gs/matchdays/1",
		"/tournaments/t1/stages/po/seed",
	}
	for _, path := range writes {
		assert.Equal(t, http.StatusUnauthorized, request(router, http.MethodPost, path, "", "{}").Code, path)
		assert.Equal(t, http.StatusForbidden, request(router, http.MethodPost, path, token(t, "player"), "{}").Code, path)
	}

	rec := request(router, http.MethodPost, "/tournaments/t1/stages/gs/matchdays/1", token(t, "organizer"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupRoutes_ReadsArePublic(t *testing.T) {
	router := newRouter(t, false)

	reads := []string{
		"/tournaments/t1",
		"/tournaments/t1/stages/gs/groups",
		"/tournaments/t1/stages/gs/matches",
		"/tournaments/t1/stages/gs/standings",
		"/tournaments/t1/stages/po/playoffs",
	}
	for _, path := range reads {
		assert.Equal(t, http.StatusNotFound, request(router, http.MethodGet, path, "", "").Code, path)
	}

	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusNotFound, request(router, http.MethodGet, "/ws/tournaments/t1", "", "").Code)
}

func TestSetupRoutes_CreateWithToken(t *testing.T) {
	router := newRouter(t, false)
	body := `{"name":"Cup","team_ids":["a","b"],"stages":[{"id":"gs","name":"Groups","type":"groups_round_robin","order":1,
		"groups":{"group_count":1,"teams_per_group":2,"teams_advance_per_group":1,"match_format":"bo1","points_per_win":3}}]}`

	rec := request(router, http.MethodPost, "/tournaments", token(t, "admin"), body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSetupRoutes_Metrics(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, request(newRouter(t, false), http.MethodGet, "/metrics", "", "").Code)

	rec := request(newRouter(t, true), http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stage_engine_")
}

// endregion
