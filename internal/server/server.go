// Package server provides the HTTP server for IsharaVaani.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/isharavaani/internal/assist"
	"github.com/ayusman/isharavaani/internal/server/api"
	"github.com/ayusman/isharavaani/internal/session"
	"github.com/ayusman/isharavaani/internal/store"
)

// Desktop is the desktop capture app the /api/capture routes drive.
type Desktop interface {
	StartRecording() error
	StopRecording() error
	Reset() error
	Speak() error
	Snapshot() session.Snapshot
	LatestJPEG() []byte
}

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Assistant assist.Assistant
	// Session is the template for sessions opened over the websocket.
	// Its Interpreter must be set for /api/session/ws to be served.
	Session session.Config
	Desktop Desktop
	Logger  logrus.FieldLogger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	router chi.Router
	log    logrus.FieldLogger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		log:    log.WithField("component", "server"),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.config.Session.Interpreter != nil {
		r.Get("/api/session/ws", newSessionHandler(s.config.Session, s.config.Store, s.log).ServeHTTP)
	}

	if s.config.Assistant != nil {
		h := api.NewAssistantHandler(s.config.Assistant, s.log)
		r.Post("/api/instructions", h.Instructions)
		r.Post("/api/translations", h.Translate)
	}

	if s.config.Store != nil {
		modules := api.NewModulesHandler(s.config.Store)
		r.Get("/api/modules", modules.List)
		r.Get("/api/modules/{id}", modules.Get)
		r.Put("/api/modules/{id}/progress", modules.UpdateProgress)
		r.Post("/api/modules/{id}/unlock", modules.Unlock)
		r.Get("/api/dashboard", modules.Dashboard)

		favorites := api.NewFavoritesHandler(s.config.Store)
		r.Get("/api/favorites", favorites.List)
		r.Get("/api/favorites/{id}", favorites.Get)
		r.Post("/api/favorites", favorites.Create)
		r.Delete("/api/favorites/{id}", favorites.Delete)

		settings := api.NewSettingsHandler(s.config.Store, s.config.Session.Language)
		r.Get("/api/settings", settings.Get)
		r.Put("/api/settings", settings.Update)
	}

	if s.config.Desktop != nil {
		c := &captureHandler{desktop: s.config.Desktop}
		r.Get("/api/capture", c.state)
		r.Post("/api/capture/start", c.command(s.config.Desktop.StartRecording))
		r.Post("/api/capture/stop", c.command(s.config.Desktop.StopRecording))
		r.Post("/api/capture/reset", c.command(s.config.Desktop.Reset))
		r.Post("/api/capture/speak", c.command(s.config.Desktop.Speak))
		r.Get("/api/stream", NewStreamHandler(s.config.Desktop).ServeHTTP)
	}

	r.NotFound(s.handleNotFound)
	if s.config.StaticDir != "" {
		static := http.FileServer(http.Dir(s.config.StaticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				s.handleNotFound(w, r)
				return
			}
			static.ServeHTTP(w, r)
		})
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.start).String(),
		"desktop": s.config.Desktop != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
