package routes

import (
	"github.com/Dosada05/elo-ledger/handlers"
	"github.com/Dosada05/elo-ledger/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Group     *handlers.GroupHandler
	Season    *handlers.SeasonHandler
	Match     *handlers.MatchHandler
	Rating    *handlers.RatingHandler
	WebSocket *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	// Live updates: one room per group, push-only.
	router.Get("/ws/groups/{groupID}", h.WebSocket.ServeGroup)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(jwtSecret)))

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", h.Group.Create)
			r.Get("/", h.Group.ListMine)
			r.Get("/{groupID}", h.Group.Get)
			r.Post("/{groupID}/members", h.Group.AddMember)
			r.Put("/{groupID}/logo", h.Group.UploadLogo)

			r.Post("/{groupID}/seasons", h.Season.Create)
			r.Get("/{groupID}/seasons", h.Season.List)
		})

		r.Route("/seasons/{seasonID}", func(r chi.Router) {
			r.Get("/", h.Season.Get)
			r.Get("/leaderboard", h.Rating.Leaderboard)
			r.Get("/overview", h.Rating.Overview)
			r.Get("/matches", h.Match.ListBySeason)
			r.Get("/participants/{participantID}/history", h.Rating.History)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Post("/", h.Match.Apply)
			r.Get("/{matchID}", h.Match.Get)
			r.Delete("/{matchID}", h.Match.Reverse)
		})
	})

	return router
}
