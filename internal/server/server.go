package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/mmcdole/lunastream/internal/auth"
	"github.com/mmcdole/lunastream/internal/config"
	"github.com/mmcdole/lunastream/internal/domain"
	"github.com/mmcdole/lunastream/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Metadata is the detail lookup surface of the metadata client
type Metadata interface {
	MovieDetails(ctx context.Context, id int) (*domain.MovieDetails, error)
	TVDetails(ctx context.Context, id int) (*domain.TVDetails, error)
	Credits(ctx context.Context, mediaType domain.MediaType, id int) (*domain.Credits, error)
	Season(ctx context.Context, tvID, seasonNumber int) (*domain.Season, error)
	EpisodeDetails(ctx context.Context, tvID, seasonNumber, episodeNumber int) (*domain.Episode, error)
	NowPlayingMovies(ctx context.Context, page int) (*domain.Page[domain.Movie], error)
	OnTheAirTV(ctx context.Context, page int) (*domain.Page[domain.TVShow], error)
	ClearCache()
}

// Deps are the services behind the HTTP API
type Deps struct {
	Metadata        Metadata
	Profile         *service.ProfileService
	Recommendations *service.RecommendationService
	Search          *service.SearchService
	Genres          *service.GenreService
	Issuer          *auth.Issuer
	Credentials     auth.Credentials
}

// Server serves the public JSON API and the admin panel
type Server struct {
	cfg    config.ServerConfig
	deps   Deps
	logger *slog.Logger
	router chi.Router
	http   *http.Server
}

// New builds the router and the underlying http.Server
func New(cfg config.ServerConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	requireAdmin := auth.RequireAdmin(s.deps.Issuer, s.writeError)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", s.handlePing)

		r.Get("/recommendations", s.handleRecommendations)
		r.Get("/recommendations/{type}/{id}", s.handleItemRecommendations)

		r.Get("/search", s.handleSearch)
		r.Get("/search/episodes", s.handleSearchEpisodes)
		r.Get("/genres", s.handleGenres)
		r.Get("/now-playing", s.handleNowPlaying)

		r.Route("/profile", func(r chi.Router) {
			r.Delete("/", s.handleClearProfile)
			r.Get("/preferences", s.handleGetPreferences)
			r.Patch("/preferences", s.handleUpdatePreferences)
			r.Get("/stats", s.handleGetStats)
			r.Patch("/stats", s.handleUpdateStats)
			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleAddSession)
			r.Patch("/sessions/{id}", s.handleUpdateSession)
			r.Get("/history", s.handleHistory)
			r.Get("/genres", s.handleProfileGenres)
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/data", s.handleAdminData)
				r.Post("/cache/clear", s.handleClearCaches)
			})
		})

		r.Get("/tv/{id}/season/{season}", s.handleSeason)
		r.Get("/tv/{id}/season/{season}/episode/{episode}", s.handleEpisode)
		r.Get("/{type}/{id}", s.handleDetails)
		r.Get("/{type}/{id}/credits", s.handleCredits)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeErrorCode(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found")
		})
	})

	if s.cfg.AdminDir != "" {
		r.With(requireAdmin).Handle("/admin", http.RedirectHandler("/admin/", http.StatusMovedPermanently))
		r.With(requireAdmin).Handle("/admin/*", http.StripPrefix("/admin", spaHandler(s.cfg.AdminDir)))
	}
	if s.cfg.PublicDir != "" {
		r.NotFound(spaHandler(s.cfg.PublicDir).ServeHTTP)
	}

	return r
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}
