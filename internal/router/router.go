package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-family-journey/internal/api/family"
	"github.com/FACorreiaa/go-family-journey/internal/api/journey"
)

// Config contains dependencies needed for the router setup
type Config struct {
	FamilyHandler          family.Handler
	JourneyHandler         journey.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Public auth routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.FamilyHandler.Register)
			r.Post("/auth/login", cfg.FamilyHandler.Login)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Get("/family", cfg.FamilyHandler.GetFamily)
			r.Put("/family", cfg.FamilyHandler.UpdateFamily)

			r.Post("/chat/message", cfg.JourneyHandler.SendMessage)
			r.Post("/chat/end-session", cfg.JourneyHandler.EndSession)

			r.Get("/routes/progress", cfg.JourneyHandler.GetProgress)
			r.Get("/routes/next", cfg.JourneyHandler.GetNextPOI)
			r.Post("/routes/advance", cfg.JourneyHandler.AdvanceRoute)
			r.Get("/routes/overview", cfg.JourneyHandler.GetRouteOverview)
		})
	})

	return r
}
