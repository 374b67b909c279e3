package routes

import (
	"github.com/cardhouse/tournament-engine/handlers"
	"github.com/cardhouse/tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/tournaments", func(r chi.Router) {
		// Public read surface.
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/standings", matchHandler.StandingsHandler)

		// Mutations require an authenticated principal; per-tournament
		// authorization (organizer, match participant) lives in the services.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", tournamentHandler.CreateHandler)
			r.Post("/{tournamentID}/join", tournamentHandler.JoinHandler)
			r.Delete("/{tournamentID}/leave", tournamentHandler.LeaveHandler)
			r.Delete("/{tournamentID}/players/{participantID}", tournamentHandler.LeaveHandler)
			r.Post("/{tournamentID}/start", tournamentHandler.StartHandler)
			r.Put("/{tournamentID}/banner", tournamentHandler.UpdateBannerHandler)
			r.Post("/{tournamentID}/rounds/{round}/matches/{matchIndex}/result", matchHandler.ReportResultHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
