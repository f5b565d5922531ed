package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"setquiz/internal/app"
	"setquiz/internal/auth"
)

// NewRouter exposes the question bank over JSON/HTTP.
func NewRouter(bank *app.QuestionBank, authSvc *auth.Service, origins []string) http.Handler {
	h := &Handler{bank: bank}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/questions", h.ListQuestions)
	r.Get("/questions/{id}", h.GetQuestion)
	r.Post("/verify", h.Verify)
	r.Post("/hint", h.Hint)
	r.Post("/explanation", h.Explain)
	r.With(authSvc.RequireRole(auth.RoleAdmin)).Post("/questions/batch", h.AddQuestions)
	return r
}
