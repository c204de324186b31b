// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
//   - Which URL patterns map to which handler functions
//   - What middleware runs on which routes
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config and creates the logger; New() assembles everything:
//
//	DocumentStore (jsonfile or sqlite) → repositories → services → handlers
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"io"
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

	"github.com/mkowalczyk/dsn-service/internal/auth"
	"github.com/mkowalczyk/dsn-service/internal/config"
	"github.com/mkowalczyk/dsn-service/internal/handler"
	"github.com/mkowalczyk/dsn-service/internal/middleware"
	"github.com/mkowalczyk/dsn-service/internal/repository/docstore"
	"github.com/mkowalczyk/dsn-service/internal/search"
	"github.com/mkowalczyk/dsn-service/internal/service"
	"github.com/mkowalczyk/dsn-service/internal/sms"
	"github.com/mkowalczyk/dsn-service/internal/store"
	"github.com/mkowalczyk/dsn-service/internal/store/jsonfile"
	"github.com/mkowalczyk/dsn-service/internal/store/sqlite"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// With the sqlite driver the Server owns a database connection, kept in
// storeCloser; graceful shutdown closes it after in-flight requests drain.
// The jsonfile driver has nothing to close.
type Server struct {
	router      *chi.Mux
	config      config.Config
	logger      *slog.Logger
	storeCloser io.Closer
}

// New assembles the entire dependency chain and returns a ready Server.
//
// Each layer only receives what it needs:
// - Services get repository interfaces (not the concrete store)
// - Handlers get services (not repositories or the store)
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	docs, err := s.openStore()
	if err != nil {
		return nil, err
	}

	if err := s.setupRoutes(docs); err != nil {
		if s.storeCloser != nil {
			s.storeCloser.Close()
		}
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openStore selects the persistence backend from STORE_DRIVER.
//
// "jsonfile" (default): one pretty-printed JSON file per collection, seeded
// with empty documents on first start. "sqlite": one row per collection in
// an embedded database.
func (s *Server) openStore() (store.DocumentStore, error) {
	switch s.config.StoreDriver {
	case "", "jsonfile":
		js, err := jsonfile.New(s.config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening jsonfile store: %w", err)
		}
		if err := docstore.SeedAll(context.Background(), js); err != nil {
			return nil, fmt.Errorf("seeding collections: %w", err)
		}
		return js, nil

	case "sqlite":
		if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		db, err := sqlite.New(filepath.Join(s.config.DataDir, "dsn.db"))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		s.storeCloser = db
		return db, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want jsonfile or sqlite)", s.config.StoreDriver)
	}
}

// setupRoutes wires repositories, services, handlers and middleware.
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info
// 5. CORS — the session cookie requires AllowCredentials
func (s *Server) setupRoutes(docs store.DocumentStore) error {
	cfg := s.config

	// === Sessions ===
	secret := cfg.SessionSecret
	if secret == "" {
		// Keep local development frictionless, but make it loud.
		s.logger.Warn("SESSION_SECRET not set — using an insecure development secret")
		secret = "insecure-dev-secret-change-me"
	}
	sessions, err := auth.NewSessionService(secret)
	if err != nil {
		return fmt.Errorf("creating session service: %w", err)
	}

	// === Repositories over the document store ===
	users := docstore.NewUsers(docs)
	posts := docstore.NewPosts(docs)
	messages := docstore.NewMessages(docs)
	subscribers := docstore.NewSubscribers(docs)

	// === Social providers ===
	google := auth.NewGoogleProvider(cfg.GoogleClientID)
	microsoft := auth.NewMicrosoftProvider()

	callbackURL := cfg.GitHubCallbackURL
	if callbackURL == "" {
		callbackURL = cfg.PublicURL + "/auth/github/callback"
	}
	github := auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, callbackURL)

	// === SMS sender ===
	var sender sms.Sender
	if cfg.TwilioSID != "" && cfg.TwilioToken != "" && cfg.TwilioFrom != "" {
		sender = sms.NewTwilioSender(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
	} else {
		s.logger.Warn("Twilio not configured — SMS broadcasts will be logged, not sent")
		sender = sms.NewLogSender(s.logger)
	}

	// === Services ===
	passwords := auth.NewPasswordService()
	identityService := service.NewIdentityService(users, passwords, s.logger)
	feedService := service.NewFeedService(posts, s.logger)
	messageService := service.NewMessageService(messages, s.logger)
	subscriberService := service.NewSubscriberService(subscribers, sender, s.logger)
	fileService, err := service.NewFileService(cfg.UploadsDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating file service: %w", err)
	}
	searchClient := search.New(&http.Client{Timeout: 10 * time.Second}, cfg.BingAPIKey, cfg.YouTubeAPIKey, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(identityService, sessions, google, microsoft, github, s.logger)
	feedHandler := handler.NewFeedHandler(feedService, identityService, s.logger)
	messageHandler := handler.NewMessageHandler(messageService, s.logger)
	subscriberHandler := handler.NewSubscriberHandler(subscriberService, s.logger)
	fileHandler := handler.NewFileHandler(fileService, s.logger)
	searchHandler := handler.NewSearchHandler(searchClient, s.logger)
	systemHandler := handler.NewSystemHandler(cfg.PublicURL, cfg.GoogleClientID, cfg.MicrosoftClientID, github.Configured())

	// === Global middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.New(cfg.Cors).Handler)

	// === Service endpoints ===
	s.router.Get("/healthz", systemHandler.HandleHealth)

	// === GitHub OAuth (browser redirect flow, outside /api) ===
	s.router.Get("/auth/github", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/config", systemHandler.HandleConfig)
		r.Get("/info", systemHandler.HandleInfo)

		// Auth entry points — no session required, they create one
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/google", authHandler.HandleGoogle)
		r.Post("/auth/microsoft", authHandler.HandleMicrosoft)

		// Public reads. OptionalAuth binds the viewer when a session exists
		// so the feed can carry the per-viewer `liked` flag.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(sessions))

			r.Get("/me", authHandler.HandleMe)
			r.Get("/user", authHandler.HandleUser)
			r.Get("/users", authHandler.HandleUsers)
			r.Get("/informations", feedHandler.HandleList)
			r.Get("/informations/{id}", feedHandler.HandleGet)
			r.Get("/author/{username}", feedHandler.HandleByAuthor)
		})

		// Search proxies — public, the server holds the API keys
		r.Get("/search", searchHandler.HandleSearch)
		r.Get("/archive", searchHandler.HandleArchive)
		r.Get("/youtube", searchHandler.HandleYouTube)

		// Everything below requires a valid session
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(sessions))

			r.Get("/my-informations", feedHandler.HandleMine)
			r.Post("/informations", feedHandler.HandleCreate)
			r.Put("/informations/{id}", feedHandler.HandleUpdate)
			r.Delete("/informations/{id}", feedHandler.HandleDelete)
			r.Post("/informations/{id}/like", feedHandler.HandleLike)
			r.Post("/informations/{id}/reply", feedHandler.HandleReply)

			r.Post("/messages/send", messageHandler.HandleSend)
			r.Get("/messages/conversations", messageHandler.HandleConversations)
			r.Get("/messages/{username}", messageHandler.HandleThread)

			r.Post("/subscribe", subscriberHandler.HandleSubscribe)
			r.Get("/subscribers", subscriberHandler.HandleList)
			r.Post("/sms/send", subscriberHandler.HandleBroadcast)

			r.Post("/files/upload", fileHandler.HandleUpload)
			r.Get("/files", fileHandler.HandleList)
			r.Delete("/files/{filename}", fileHandler.HandleDelete)

			r.Post("/ai/search", searchHandler.HandleAISearch)
		})
	})

	// === Uploaded files ===
	// GET /uploads/{username}/{file} serves straight from the uploads root.
	uploadsServer := http.FileServer(http.Dir(fileService.Root()))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", uploadsServer))

	// === Static frontend ===
	// Everything else falls through to the static directory.
	staticServer := http.FileServer(http.Dir(cfg.StaticDir))
	s.router.Handle("/*", staticServer)

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store (sqlite: flushes WAL, releases the file lock)
func (s *Server) Start() error {
	if s.storeCloser != nil {
		defer s.storeCloser.Close()
	}

	srv := &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("port", s.config.Port),
			slog.String("url", "http://localhost:"+s.config.Port),
			slog.String("store", s.config.StoreDriver),
			slog.String("dataDir", s.config.DataDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
