package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/stage-engine/handlers"
	"github.com/Dosada05/stage-engine/metrics"
	"github.com/Dosada05/stage-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const requestTimeout = 30 * time.Second

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	MetricsEnabled bool
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	stageHandler *handlers.StageHandler,
	matchHandler *handlers.MatchHandler,
	playoffHandler *handlers.PlayoffHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handlers.RetryHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if opts.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	// Websocket connections must not be cut by the request timeout.
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	operatorOnly := []func(http.Handler) http.Handler{
		middleware.Authenticate(opts.JWTSecret),
		middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin),
	}

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(requestTimeout))

		r.Route("/tournaments", func(r chi.Router) {
			r.With(operatorOnly...).Post("/", tournamentHandler.CreateHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetByIDHandler)

				r.Group(func(r chi.Router) {
					r.Use(operatorOnly...)
					r.Post("/registration/close", tournamentHandler.CloseRegistrationHandler)
					r.Post("/matches/{matchID}/result", matchHandler.RecordResultHandler)
				})

				r.Route("/stages/{stageID}", func(r chi.Router) {
					r.Get("/groups", stageHandler.GetGroupsHandler)
					r.Get("/matches", stageHandler.ListMatchesHandler)
					r.Get("/standings", stageHandler.StandingsHandler)
					r.Get("/playoffs", playoffHandler.GetHandler)

					r.Group(func(r chi.Router) {
						r.Use(operatorOnly...)
						r.Post("/groups", stageHandler.InitializeGroupsHandler)
						r.Post("/draw/reveal", stageHandler.RevealNextHandler)
						r.Post("/matchdays", stageHandler.GenerateAllMatchdaysHandler)
						r.Post("/matchdays/{matchday}", stageHandler.GenerateMatchdayHandler)
						r.Post("/seed", playoffHandler.SeedHandler)
					})
				})
			})
		})
	})
}
