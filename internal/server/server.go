// Package server is the composition root: it opens the database, seeds it,
// builds every service and handler, and mounts them on a chi router.
//
// Route map (admin routes run behind auth.RequireAuth; unknown routes and
// methods get the JSON error envelope):
//
//	GET    /healthz
//	GET    /uploads/*
//	POST   /api/login, /api/logout        GET /api/user
//	GET    /api/profile                   POST|PATCH /api/profile[/{id}]      (admin)
//	GET    /api/resume                    POST|PATCH|DELETE /api/resume[/{id}] (admin)
//	CRUD   /api/{skills,projects,experiences,socials,blog}
//	GET    /api/blog/slug/{slug}
//	GET    /api/blog/{id}/comments        POST /api/blog/{id}/comments
//	DELETE /api/blog/comments/{id}        (admin)
//	GET    /api/blog/{id}/engagement      POST /api/blog/{id}/engagement
//	GET    /api/engagement/me
//	POST   /api/contact, /api/feedback    GET|DELETE (admin)
//	POST   /api/track-visitor             GET /api/visitor-stats
//	GET    /api/stats                     (admin)
//	POST   /api/ai/chat                   POST /api/ai/generate-blog, /api/content-recommendations (admin)
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/portfolio/internal/ai"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/cache"
	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/handler"
	"github.com/sakif/portfolio/internal/middleware"
	"github.com/sakif/portfolio/internal/model"
	sqliteRepo "github.com/sakif/portfolio/internal/repository/sqlite"
	"github.com/sakif/portfolio/internal/seed"
	"github.com/sakif/portfolio/internal/service"
)

// uploadDirs are created under UPLOADS_DIR at startup.
var uploadDirs = []string{"profile", "projects", "resume"}

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	tokens    *auth.TokenService
	passwords *auth.PasswordService
	completer ai.Completer
}

// Option customises a Server before it is wired.
type Option func(*Server)

// WithCompleter replaces the OpenAI client, e.g. with a fake in tests.
func WithCompleter(c ai.Completer) Option {
	return func(s *Server) { s.completer = c }
}

// WithPasswords replaces the password hasher (tests use a low bcrypt cost).
func WithPasswords(p *auth.PasswordService) Option {
	return func(s *Server) { s.passwords = p }
}

// New opens and seeds the database and builds the router. The caller owns
// the returned Server and must call Close (Start does so on exit).
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	for _, dir := range uploadDirs {
		if err := os.MkdirAll(filepath.Join(cfg.UploadsDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating uploads directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.passwords == nil {
		s.passwords = auth.NewPasswordService()
	}
	if s.completer == nil {
		s.completer = ai.NewClient(ai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			MaxConcurrency: cfg.AIMaxConcurrency,
		})
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, AI endpoints will fail")
	}

	if err := s.setup(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// setup seeds the database and mounts every route.
func (s *Server) setup(ctx context.Context) error {
	c := cache.New(s.config.CacheTTL)

	authSvc := service.NewAuthService(s.db, s.db, s.tokens, s.passwords, s.config.SessionTTL, s.logger)
	authSvc.PurgeExpiredSessions(ctx)

	doc, err := seed.Default()
	if err != nil {
		return fmt.Errorf("loading seed data: %w", err)
	}
	var admin seed.Admin
	if s.config.BootstrapAdmin() {
		admin = seed.Admin{Username: s.config.AdminUsername, Password: s.config.AdminPassword}
	}
	if err := seed.New(s.db, authSvc, s.logger).Run(ctx, doc, admin); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	skills := service.NewSkillService(s.db, c, s.logger)
	projects := service.NewProjectService(s.db, c, s.logger)
	experiences := service.NewExperienceService(s.db, c, s.logger)
	socials := service.NewSocialService(s.db, c, s.logger)
	blog := service.NewBlogService(s.db, c, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, s.config.SessionTTL, s.config.CookieSecure, s.logger)
	profileHandler := handler.NewProfileHandler(service.NewProfileService(s.db, s.db, c, s.logger), s.logger)
	messageHandler := handler.NewMessageHandler(service.NewMessageService(s.db, s.db, s.logger), s.logger)
	blogHandler := handler.NewBlogHandler(blog, s.logger)
	visitorHandler := handler.NewVisitorHandler(
		service.NewVisitorService(s.db, s.logger),
		service.NewEngagementService(s.db, s.db, s.logger),
		s.config.CookieSecure,
		s.logger,
	)
	statsHandler := handler.NewStatsHandler(service.NewStatsService(s.db, s.db, s.db), s.db, s.logger)
	aiHandler := handler.NewAIHandler(service.NewAIService(s.completer, s.db, s.db, s.db, s.logger), s.logger)

	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.NotFound(handler.NotFound(s.logger))
	r.MethodNotAllowed(handler.MethodNotAllowed(s.logger))

	requireAuth := auth.RequireAuth(handler.Unauthorized(s.logger))

	r.Get("/healthz", statsHandler.HandleHealth)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(noListing{http.Dir(s.config.UploadsDir)})))

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.LoadUser(s.tokens, s.db, s.logger))

		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/user", authHandler.HandleUser)

		r.Get("/profile", profileHandler.HandleGetProfile)
		r.Get("/resume", profileHandler.HandleGetResume)

		mountCollection(r, requireAuth, "/skills", handler.NewCollectionHandler[model.Skill, service.SkillInput]("skill", skills, s.logger))
		mountCollection(r, requireAuth, "/projects", handler.NewCollectionHandler[model.Project, service.ProjectInput]("project", projects, s.logger))
		mountCollection(r, requireAuth, "/experiences", handler.NewCollectionHandler[model.Experience, service.ExperienceInput]("experience", experiences, s.logger))
		mountCollection(r, requireAuth, "/socials", handler.NewCollectionHandler[model.Social, service.SocialInput]("social link", socials, s.logger))
		mountCollection(r, requireAuth, "/blog", handler.NewCollectionHandler[model.BlogPost, service.BlogPostInput]("blog post", blog, s.logger))

		r.Get("/blog/slug/{slug}", blogHandler.HandleGetBySlug)
		r.Get("/blog/{id}/comments", blogHandler.HandleListComments)
		r.Post("/blog/{id}/comments", blogHandler.HandleCreateComment)
		r.Get("/blog/{id}/engagement", visitorHandler.HandlePostEngagement)
		r.Post("/blog/{id}/engagement", visitorHandler.HandleRecordEngagement)
		r.Get("/engagement/me", visitorHandler.HandleMyEngagement)

		r.Post("/contact", messageHandler.HandleCreateContact)
		r.Post("/feedback", messageHandler.HandleCreateFeedback)

		r.Post("/track-visitor", visitorHandler.HandleTrack)
		r.Get("/visitor-stats", visitorHandler.HandleStats)

		r.Post("/ai/chat", aiHandler.HandleChat)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/profile", profileHandler.HandleSaveProfile)
			r.Patch("/profile", profileHandler.HandleSaveProfile)
			r.Patch("/profile/{id}", profileHandler.HandleSaveProfile)

			r.Post("/resume", profileHandler.HandleSaveResume)
			r.Patch("/resume/{id}", profileHandler.HandleSaveResume)
			r.Delete("/resume/{id}", profileHandler.HandleDeleteResume)

			r.Delete("/blog/comments/{id}", blogHandler.HandleDeleteComment)

			r.Get("/contact", messageHandler.HandleListContacts)
			r.Delete("/contact/{id}", messageHandler.HandleDeleteContact)
			r.Get("/feedback", messageHandler.HandleListFeedback)

			r.Get("/stats", statsHandler.HandleStats)

			r.Post("/ai/generate-blog", aiHandler.HandleGenerateBlog)
			r.Post("/content-recommendations", aiHandler.HandleRecommend)
		})
	})

	return nil
}

// mountCollection registers the five CRUD routes of one collection. Reads
// are public; writes need a session.
func mountCollection[T, In any](r chi.Router, requireAuth func(http.Handler) http.Handler, path string, h *handler.CollectionHandler[T, In]) {
	r.Get(path, h.HandleList)
	r.Get(path+"/{id}", h.HandleGet)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post(path, h.HandleCreate)
		r.Patch(path+"/{id}", h.HandleUpdate)
		r.Delete(path+"/{id}", h.HandleDelete)
	})
}

// noListing serves files but answers 404 for directories.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// AI generation can take well over a minute.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DatabaseURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
