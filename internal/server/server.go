// Package server wires the HTTP router, the dependency graph, and the
// process lifecycle.
//
// This is the composition root: main.go hands over a Config and a logger,
// and everything else — database, repositories, services, handlers — is
// assembled here in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/game-exchange/internal/auth"
	"github.com/sakif/game-exchange/internal/config"
	"github.com/sakif/game-exchange/internal/handler"
	"github.com/sakif/game-exchange/internal/middleware"
	"github.com/sakif/game-exchange/internal/notify"
	sqliteRepo "github.com/sakif/game-exchange/internal/repository/sqlite"
	"github.com/sakif/game-exchange/internal/service"
)

// Server owns the router, the database handle, and the notification
// dispatcher. All three are created in New and torn down during graceful
// shutdown in Start.
type Server struct {
	router     *chi.Mux
	config     config.Config
	logger     *slog.Logger
	db         *sqliteRepo.DB
	dispatcher *notify.Dispatcher
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs; the handlers never touch the
// database, the services never see HTTP.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	dispatcher := notify.NewDispatcher(notify.NewLogSink(logger), cfg.NotifyBuffer, logger)

	s := &Server{
		router:     chi.NewRouter(),
		config:     cfg,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
	}
	s.setupRoutes()

	return s, nil
}

// setupRoutes configures middleware, builds the services, and binds every
// route.
//
// ROUTE STRUCTURE:
//
//	POST   /user                → register (public)
//	PUT    /user                → login (public)
//	PATCH  /user                → update own profile / password
//	POST   /game                → create game
//	GET    /game/{id}           → read game
//	PUT    /game/{id}           → replace game (owner)
//	PATCH  /game/{id}           → partial update (owner)
//	DELETE /game/{id}           → delete game (owner)
//	POST   /exchange/{gameID}   → offer game (owner)
//	GET    /exchange/{gameID}   → view offer (offeror/offeree)
//	DELETE /exchange/{gameID}   → cancel offer (owner)
//	POST   /receive/{gameID}    → accept offer (offeree)
func (s *Server) setupRoutes() {
	// Global middleware, in order: request id → real ip → panic recovery
	// → request logging.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// The per-table stores share s.db's connection pool; the services
	// receive the repository interfaces, not the concrete types.
	passwords := auth.NewPasswordService(s.config.BcryptCost)
	resolver := auth.NewSessionResolver(s.db.Sessions)
	guard := service.NewOwnershipGuard(s.db.Games)

	authService := service.NewAuthService(s.db.Users, s.db.Sessions, passwords, s.dispatcher, s.logger)
	gameService := service.NewGameService(s.db.Games, guard, s.logger)
	exchangeService := service.NewExchangeService(s.db.Games, s.db.Users, s.db.Exchanges, guard, s.dispatcher, s.logger)

	userHandler := handler.NewUserHandler(authService, s.logger)
	gameHandler := handler.NewGameHandler(gameService, s.logger)
	exchangeHandler := handler.NewExchangeHandler(exchangeService, s.logger)

	// Public account routes.
	s.router.Post("/user", userHandler.HandleRegister)
	s.router.Put("/user", userHandler.HandleLogin)

	// Everything else requires a resolvable bearer token.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(resolver))

		r.Patch("/user", userHandler.HandleUpdate)

		r.Post("/game", gameHandler.HandleCreate)
		r.Get("/game/{id}", gameHandler.HandleGet)
		r.Put("/game/{id}", gameHandler.HandleUpdate)
		r.Patch("/game/{id}", gameHandler.HandlePatch)
		r.Delete("/game/{id}", gameHandler.HandleDelete)

		r.Post("/exchange/{gameID}", exchangeHandler.HandleCreate)
		r.Get("/exchange/{gameID}", exchangeHandler.HandleGet)
		r.Delete("/exchange/{gameID}", exchangeHandler.HandleDelete)

		r.Post("/receive/{gameID}", exchangeHandler.HandleReceive)
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, let in-flight requests finish,
// flush the notification queue, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	s.dispatcher.Start()
	defer s.dispatcher.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
