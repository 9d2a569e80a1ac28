package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/streets-name-id/internal/db"
	"github.com/streets-name-id/internal/web/handlers"
	"github.com/streets-name-id/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *Config
	conn       *db.Connection
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance backed by the results store.
func NewServer(config *Config) (*Server, error) {
	conn, err := db.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	server := &Server{
		config: config,
		conn:   conn,
	}
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         config.Server.Addr,
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	store := db.NewStore(s.conn)
	resultsHandler := &handlers.ResultsHandler{Source: store}
	reportHandler := &handlers.ReportHandler{Source: store}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/settlements/{settlement}/diagnostics", resultsHandler.GetDiagnostics).Methods("GET")
	api.HandleFunc("/settlements/{settlement}/results", resultsHandler.GetResults).Methods("GET")
	if s.config.Features.ExportEnabled {
		api.HandleFunc("/settlements/{settlement}/export", resultsHandler.ExportCSV).Methods("GET")
	}

	s.router.HandleFunc("/report/{settlement}", reportHandler.RenderReport).Methods("GET")
	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging())
}

// Start starts the web server and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Starting server on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	<-stop
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		fmt.Printf("Server shutdown error: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		fmt.Printf("Database close error: %v\n", err)
	}

	fmt.Println("Server stopped")
	return nil
}
