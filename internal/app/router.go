package app

import (
	"net/http"
	"time"

	"gedquiz/internal/app/observability"
	"gedquiz/internal/auth"
	"gedquiz/internal/progress"
	"gedquiz/internal/question"
	"gedquiz/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Dependencies are the services the router exposes. They are built by the
// caller so background jobs can share them.
type Dependencies struct {
	Questions *question.Store
	Progress  *progress.Store
	Sessions  *session.Service
	Verifier  *auth.Verifier
	Collector *observability.Collector
	Limiter   *RateLimiter
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	authHandler := auth.NewHandler(deps.Verifier)
	questionHandler := question.NewHandler(deps.Questions)
	progressHandler := progress.NewHandler(deps.Progress)
	sessionHandler := session.NewHandler(deps.Sessions)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(60, time.Minute)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	if deps.Collector != nil {
		r.Handle("/metrics", deps.Collector.MetricsHandler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(authHandler.Authenticate)
		if deps.Collector != nil {
			api.Use(deps.Collector.Middleware)
		}

		api.Get("/subjects/{subject}/exams", questionHandler.ListExams)
		api.Get("/questions/search", questionHandler.Search)
		api.Get("/questions/{id}/card", sessionHandler.QuestionCard)

		api.Post("/sessions", sessionHandler.Start)
		api.Route("/sessions/{id}", func(s chi.Router) {
			s.Get("/", sessionHandler.Get)
			s.Delete("/", sessionHandler.Quit)
			s.Put("/answers/{questionID}", sessionHandler.SelectAnswer)
			s.Post("/confirm", sessionHandler.Confirm)
			s.With(RateLimitMiddleware(limiter)).Post("/next", sessionHandler.Next)
			s.Post("/prev", sessionHandler.Prev)
			s.Post("/submit", sessionHandler.Submit)
			s.Post("/early-result", sessionHandler.EarlyResult)
			s.Get("/result", sessionHandler.Result)
			s.Put("/bookmarks/{questionID}", sessionHandler.PutBookmark)
			s.Delete("/bookmarks/{questionID}", sessionHandler.DeleteBookmark)
		})

		api.Group(func(secure chi.Router) {
			secure.Use(authHandler.RequireAuth)
			secure.Get("/auth/me", authHandler.Me)
			secure.Get("/me/history", progressHandler.History)
			secure.Get("/me/bookmarks", progressHandler.Bookmarks)
			secure.Put("/me/bookmarks/{questionID}", progressHandler.PutBookmark)
			secure.Delete("/me/bookmarks/{questionID}", progressHandler.DeleteBookmark)
			secure.Get("/me/stats", progressHandler.Stats)
			secure.Delete("/me/data", progressHandler.DeleteData)
		})
	})

	return r
}
