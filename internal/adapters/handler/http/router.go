package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/doable/api/internal/core/ports"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Todos     *TodoHandler
	Health    *HealthHandler
	Users     ports.UserRepository
	JWTSecret string
	Audit     *zap.SugaredLogger
}

func NewHandler(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	authenticated := Authenticator(deps.JWTSecret, deps.Users, deps.Audit)

	r.Route("/api", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", deps.Health.Check)
			r.Get("/detailed", deps.Health.Detailed)
			r.Get("/ready", deps.Health.Ready)
			r.Get("/live", deps.Health.Live)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.Auth.Register)
			r.Post("/login", deps.Auth.Login)
			r.Post("/verify-email", deps.Auth.VerifyEmail)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Get("/logout", deps.Auth.Logout)
				r.Get("/me", deps.Auth.Me)
			})
		})

		r.Route("/todos", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", deps.Todos.List)
			r.Post("/", deps.Todos.Create)
			r.Get("/counts", deps.Todos.Counts)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.Todos.Get)
				r.Put("/", deps.Todos.Update)
				r.Delete("/", deps.Todos.Delete)
				r.Patch("/toggle", deps.Todos.ToggleComplete)
				r.Patch("/pin", deps.Todos.TogglePin)
				r.Patch("/status", deps.Todos.UpdateStatus)
			})
		})
	})

	return r
}
