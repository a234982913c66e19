package server

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	// Use environment variable for allowed origins
	allowedOrigins := []string{"http://localhost:8081"}
	if prodOrigin := os.Getenv("FRONTEND_URL"); prodOrigin != "" {
		allowedOrigins = append(allowedOrigins, prodOrigin)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.healthCheck)

	// Session endpoints need no access token.
	r.Post("/login", s.login)
	r.Post("/refresh", s.refresh)
	r.Post("/logout", s.logout)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/{provider}/callback", s.getAuthCallbackFunction)
		r.Get("/{provider}", s.beginAuthProviderCallback)
		r.Get("/logout/{provider}", s.logOutFunction)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", s.register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Get("/users/me", s.getCurrentUser)
			r.Get("/users/{id}", s.getUser)
			r.Patch("/users/{id}", s.updateUser)
			r.Delete("/users/{id}", s.deleteUser)

			r.Get("/users/{id}/habits", s.getUserHabits)
			r.Post("/users/{id}/habits", s.createHabit)
			r.Get("/users/{id}/logs/range", s.getUserLogsRange)

			r.Get("/habit-templates", s.getTemplates)
			r.Get("/habit-templates/{id}", s.getTemplate)

			r.Get("/categories/me", s.getMyCategories)
			r.Post("/categories", s.createCategory)

			r.Get("/user-habits/{id}", s.getHabit)
			r.Patch("/user-habits/{id}", s.updateHabit)
			r.Patch("/user-habits/{id}/archive", s.archiveHabit)
			r.Delete("/user-habits/{id}", s.deleteHabit)

			r.Get("/user-habits/{id}/logs", s.getHabitLogs)
			r.Get("/user-habits/{id}/logs/today", s.getHabitLogsToday)
			r.Post("/user-habits/{id}/logs", s.createHabitLog)
			r.Patch("/habit-logs/{id}", s.updateHabitLog)
			r.Delete("/habit-logs/{id}", s.deleteHabitLog)
		})
	})
	return r
}
