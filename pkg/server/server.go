package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jobradar/core/internal/config"
	"github.com/jobradar/core/pkg/database"
	"github.com/jobradar/core/pkg/database/pool"
	"github.com/jobradar/core/pkg/handlers/health"
	"github.com/jobradar/core/pkg/handlers/sources"
	"github.com/jobradar/core/pkg/logger"
	"github.com/jobradar/core/pkg/middleware"
)

// Server represents the ops API server
type Server struct {
	router   *http.ServeMux
	port     string
	logger   *logger.Logger
	dbPool   *pgxpool.Pool
	store    *database.Store
	handlers struct {
		health  *health.Handler
		sources *sources.Handler
	}
}

// New creates a new server instance
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPool, err := pool.New(context.Background(), cfg.DatabaseURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := testDatabaseConnection(dbPool, log); err != nil {
		dbPool.Close()
		return nil, err
	}

	store := database.New(dbPool)

	server := &Server{
		router: http.NewServeMux(),
		port:   port,
		logger: log,
		dbPool: dbPool,
		store:  store,
	}

	server.handlers.health = health.NewHandler(log)
	server.handlers.sources = sources.NewHandler(store, log)

	server.setupRoutes()

	log.Info().
		Str("action", "db_connected").
		Msg("Database connection pool established")

	return server, nil
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", middleware.CORS(s.handlers.health.HealthCheck))

	// Simple root endpoint
	s.router.HandleFunc("/", middleware.CORS(func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintf(w, "Jobradar Ops API - OK (Database Connected)"); err != nil {
			http.Error(w, "Failed to write response", http.StatusInternalServerError)
		}
	}))

	// Store breakdown per source
	s.router.HandleFunc("/api/sources", middleware.CORS(s.handlers.sources.List))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().
		Str("action", "server_start").
		Str("port", s.port).
		Msg("Starting ops API server")

	if err := http.ListenAndServe(":"+s.port, s.router); err != nil {
		return fmt.Errorf("server failed to start on port %s: %w", s.port, err)
	}

	return nil
}

// Close gracefully shuts down the server and closes database connections
func (s *Server) Close() {
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info().Msg("Database connection pool closed")
	}
}

// testDatabaseConnection tests the database connection with retry logic
func testDatabaseConnection(dbPool *pgxpool.Pool, log *logger.Logger) error {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := dbPool.Ping(ctx)
		cancel()

		if err == nil {
			return nil
		}

		if i == maxRetries-1 {
			return fmt.Errorf("failed to ping database after %d retries: %w", maxRetries, err)
		}

		log.Warn().
			Err(err).
			Int("attempt", i+1).
			Str("action", "db_ping_retry").
			Msg("Retrying database connection")
		time.Sleep(2 * time.Second)
	}

	return nil
}
