// Package server exposes the local HTTP API that a frontend or CLI
// drives. It is unauthenticated by design; it binds to loopback or a
// tailnet, never the open internet.
package server

import (
	"log/slog"
	"net/http"

	"github.com/FloScythe/fitness-rpg/internal/auth"
	"github.com/FloScythe/fitness-rpg/internal/session"
	"github.com/FloScythe/fitness-rpg/internal/store"
	"github.com/FloScythe/fitness-rpg/internal/syncer"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store   *store.Store
	machine *session.Machine
	syncMgr *syncer.Manager
	authSes *auth.Session
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(st *store.Store, machine *session.Machine, syncMgr *syncer.Manager, authSes *auth.Session, log *slog.Logger) *Server {
	s := &Server{
		store:   st,
		machine: machine,
		syncMgr: syncMgr,
		authSes: authSes,
		log:     log,
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
		r.Get("/profile", s.handleProfile)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}/record", s.handleExerciseRecord)

		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)

		r.Get("/session", s.handleSessionCurrent)
		r.Post("/session/start", s.handleSessionStart)
		r.Post("/session/exercises", s.handleSessionAddExercise)
		r.Post("/session/sets", s.handleSessionAddSet)
		r.Post("/session/complete", s.handleSessionComplete)
		r.Post("/session/cancel", s.handleSessionCancel)

		r.Put("/sets/{id}", s.handleEditSet)

		r.Post("/sync", s.handleSyncNow)
		r.Get("/sync/status", s.handleSyncStatus)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/logout", s.handleLogout)

		r.Get("/coach/progression", s.handleProgression)
		r.Get("/coach/rest", s.handleRest)
		r.Get("/coach/deload", s.handleDeload)
	})
}
