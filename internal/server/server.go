// Package server exposes the catalog, session engine, rest timer and stats
// over the HTTP API the mobile client talks to.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/resttimer"
	"github.com/meltforce/ironlog/internal/session"
	"github.com/meltforce/ironlog/internal/stats"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	catalog *catalog.Catalog
	engine  *session.Engine
	timer   *resttimer.Service
	stats   *stats.Aggregator
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a Server with all routes configured.
func New(cat *catalog.Catalog, eng *session.Engine, timer *resttimer.Service, agg *stats.Aggregator, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		catalog: cat,
		engine:  eng,
		timer:   timer,
		stats:   agg,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Read endpoints
		r.Get("/plan", s.handleGetPlan)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/today", s.handleToday)
		r.Get("/workouts/export", s.handleExport)
		r.Get("/history", s.handleHistory)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/records", s.handleRecords)
		r.Get("/stats/suggestion", s.handleSuggestion)
		r.Get("/session", s.handleGetSession)
		r.Get("/timer", s.handleGetTimer)

		// Mutations (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))

			r.Post("/workouts", s.handleSaveWorkout)
			r.Delete("/workouts/{id}", s.handleDeleteWorkout)
			r.Post("/workouts/{id}/convert", s.handleConvertWorkout)
			r.Post("/workouts/{id}/duplicate", s.handleDuplicateWorkout)
			r.Post("/workouts/import", s.handleImport)

			r.Post("/session/start", s.handleStartWorkout)
			r.Post("/session/warmup/complete", s.handleCompleteWarmup)
			r.Post("/session/exercises/{id}/sets/{index}", s.handleCompleteSet)
			r.Post("/session/exercises/{id}/complete", s.handleCompleteExercise)
			r.Post("/session/exercises/{id}/skip", s.handleSkipExercise)
			r.Patch("/session/exercises/{id}", s.handleUpdateExercise)
			r.Post("/session/abdominal/complete", s.handleCompleteAbdominal)
			r.Post("/session/aerobic/complete", s.handleCompleteAerobic)
			r.Post("/session/aerobic/skip", s.handleSkipAerobic)
			r.Post("/session/apply-changes", s.handleApplyChanges)
			r.Post("/session/finish", s.handleFinishWorkout)
			r.Delete("/session", s.handleCancelWorkout)

			r.Post("/timer/start", s.handleStartTimer)
			r.Post("/timer/pause", s.handlePauseTimer)
			r.Post("/timer/resume", s.handleResumeTimer)
			r.Delete("/timer", s.handleCancelTimer)
		})
	})
}
