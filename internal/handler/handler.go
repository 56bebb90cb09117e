// Package handler exposes the JSON API over chi.
package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/quizforge/internal/auth"
	"github.com/pavelanni/quizforge/internal/genai"
	"github.com/pavelanni/quizforge/internal/model"
	"github.com/pavelanni/quizforge/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	genai    *genai.Client
	auth     *auth.Manager
	validate *validator.Validate
}

// New creates a new Handler.
func New(s *store.Store, g *genai.Client, a *auth.Manager) *Handler {
	return &Handler{
		store:    s,
		genai:    g,
		auth:     a,
		validate: validator.New(),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		// Quiz taking needs no account.
		r.Get("/quizzes/demo", h.handleDemoQuiz)
		r.Get("/quizzes/{id}/public", h.handlePublicQuiz)
		r.Post("/quizzes/{id}/submit", h.handleSubmitQuiz)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Require(model.UserRoleTeacher))
			r.Post("/quizzes/generate", h.handleGenerateQuiz)
			r.Post("/quizzes/manual", h.handleManualQuiz)
			r.Post("/quizzes/upload", h.handleUploadQuiz)
			r.Get("/quizzes", h.handleListQuizzes)
			r.Get("/quizzes/{id}/details", h.handleQuizDetails)
			r.Post("/quizzes/{id}/publish", h.handlePublishQuiz)
			r.Delete("/quizzes/{id}", h.handleDeleteQuiz)
			r.Get("/dashboard/stats", h.handleTeacherStats)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Require(model.UserRoleStudent))
			r.Post("/notes", h.handleCreateNote)
			r.Get("/notes", h.handleListNotes)
			r.Get("/notes/{id}", h.handleGetNote)
			r.Get("/student/stats", h.handleStudentStats)
			r.Get("/student/quiz-history", h.handleQuizHistory)
		})
	})
}
