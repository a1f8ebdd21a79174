package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/score-control/handlers"
)

// SetupRoutes mounts the full REST and WebSocket surface on the router.
func SetupRoutes(
	router *chi.Mux,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	// Wide-open CORS: the operator panel and the overlay are served from
	// arbitrary hosts on a trusted LAN.
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/", handlers.InfoHandler)

	router.Route("/api/match/{matchID}", func(r chi.Router) {
		r.Get("/state", matchHandler.StateHandler)
		r.Post("/setup", matchHandler.SetupHandler)
		r.Post("/score", matchHandler.ScoreHandler)
		r.Post("/match-score", matchHandler.MatchScoreHandler)
		r.Post("/period/set", matchHandler.PeriodSetHandler)
		r.Post("/timer/start", matchHandler.TimerStartHandler)
		r.Post("/timer/stop", matchHandler.TimerStopHandler)
		r.Post("/timer/set", matchHandler.TimerSetHandler)
		r.Post("/players/assign", matchHandler.AssignPlayerHandler)
		r.Post("/reset", matchHandler.ResetHandler)
	})

	router.Get("/ws/match/{matchID}", webSocketHandler.ServeWS)
}
