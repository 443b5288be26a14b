// Package server provides the HTTP API and its handlers.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/auth"
	"github.com/bryan-buckman/donorhub/internal/database"
	"github.com/bryan-buckman/donorhub/internal/events"
	"github.com/bryan-buckman/donorhub/internal/forms"
	"github.com/bryan-buckman/donorhub/internal/ingest"
	"github.com/bryan-buckman/donorhub/internal/relay"
)

// Deps are the collaborators a Server needs. Fetcher and Poller may be nil
// when source ingestion is disabled; Relay may be disabled.
type Deps struct {
	Store    database.Store
	Verifier *auth.Verifier
	Relay    *relay.Client
	Events   events.Publisher
	Fetcher  *ingest.Fetcher
	Poller   *ingest.Poller
	Location *time.Location
	Now      func() time.Time
}

// Server is the main HTTP server.
type Server struct {
	db        database.Store
	verifier  *auth.Verifier
	relay     *relay.Client
	events    events.Publisher
	fetcher   *ingest.Fetcher
	poller    *ingest.Poller
	validator *forms.Validator
	loc       *time.Location
	clock     func() time.Time
	router    chi.Router
}

// New creates a new server.
func New(d Deps) *Server {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	clock := d.Now
	if clock == nil {
		clock = time.Now
	}
	pub := d.Events
	if pub == nil {
		pub = events.Noop{}
	}
	s := &Server{
		db:        d.Store,
		verifier:  d.Verifier,
		relay:     d.Relay,
		events:    pub,
		fetcher:   d.Fetcher,
		poller:    d.Poller,
		validator: forms.New(loc, forms.WithClock(clock)),
		loc:       loc,
		clock:     clock,
	}
	s.setupRoutes()
	return s
}

// now is the current time in the catalog's zone.
func (s *Server) now() time.Time {
	return s.clock().In(s.loc)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.verifier.Authenticate)

		r.Get("/camps", s.handleListCamps)
		r.Get("/camps/{campID}", s.handleGetCamp)
		r.Post("/camps/{campID}/appointments", s.handleScheduleDonation)
		r.Get("/urgent", s.handleListUrgent)
		r.Get("/urgent/{requestID}", s.handleGetUrgent)
		r.Get("/cities", s.handleCities)
		r.Get("/blood-types", s.handleBloodTypes)
		r.Post("/donors", s.handleRegisterDonor)
		r.Get("/me", s.handleMe)
		r.Get("/me/profile", s.handleProfile)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))

			r.Post("/camps", s.handleCreateCamp)
			r.Put("/camps/{campID}", s.handleUpdateCamp)
			r.Delete("/camps/{campID}", s.handleDeleteCamp)
			r.Get("/camps/{campID}/appointments", s.handleCampAppointments)

			r.Post("/urgent", s.handleCreateUrgent)
			r.Post("/urgent/import", s.handleImportUrgent)
			r.Put("/urgent/{requestID}", s.handleUpdateUrgent)
			r.Delete("/urgent/{requestID}", s.handleDeleteUrgent)

			r.Get("/sources", s.handleListSources)
			r.Post("/sources", s.handleCreateSource)
			r.Delete("/sources/{sourceID}", s.handleDeleteSource)
			r.Post("/sources/import-opml", s.handleImportOPML)
			r.Get("/sources/export-opml", s.handleExportOPML)
			r.Post("/refresh", s.handleRefresh)

			r.Get("/settings", s.handleGetSettings)
			r.Post("/settings", s.handleSaveSettings)
		})
	})

	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts the poller and serves on addr until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	if s.poller != nil {
		s.poller.Start()
		defer s.poller.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("database", s.db.DatabaseType()).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"database": s.db.DatabaseType(),
	})
}
