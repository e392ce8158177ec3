// Package server hosts AI matches over HTTP and streams them to spectators
// over WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"compact-conflict/internal/ai"
	"compact-conflict/internal/database"
	"compact-conflict/internal/game"
)

// Server is the match hosting server.
type Server struct {
	cfg      Config
	db       *database.DB
	hub      *Hub
	matches  *Manager
	upgrader websocket.Upgrader
	engine   *gin.Engine
	server   *http.Server
}

// Config holds server configuration.
type Config struct {
	Addr        string
	DBPath      string
	SnapshotDir string
	Setup       game.Setup // defaults for new matches
	Picker      ai.Options
	MaxMatches  int // 0 for no limit
}

// New opens the database and builds the server.
func New(cfg Config) (*Server, error) {
	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	n, err := db.AbortInterrupted()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to close interrupted games: %w", err)
	}
	if n > 0 {
		log.Warn().Int64("games", n).Msg("Marked interrupted matches aborted")
	}
	return NewWithDB(cfg, db), nil
}

// NewWithDB builds a server on an already open database. The server takes
// ownership of db.
func NewWithDB(cfg Config, db *database.DB) *Server {
	hub := NewHub()
	s := &Server{
		cfg:     cfg,
		db:      db,
		hub:     hub,
		matches: NewManager(db, hub, cfg.SnapshotDir, cfg.Picker, cfg.MaxMatches),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // spectators may connect from any origin
			},
		},
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Matches returns the match manager.
func (s *Server) Matches() *Manager {
	return s.matches
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.GET("/games", s.handleListGames)
	api.POST("/games", s.handleCreateGame)
	api.GET("/games/:id", s.handleGetGame)
	api.DELETE("/games/:id", s.handleStopGame)
	api.GET("/games/:id/moves", s.handleGetMoves)
	api.GET("/setup", s.handleGetSetup)
	api.PUT("/setup", s.handleSaveSetup)

	r.GET("/ws", s.handleWebSocket)
	return r
}

// requestLogger logs each request through zerolog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

// Start serves HTTP until Stop is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	log.Info().
		Str("address", "http://localhost"+s.cfg.Addr).
		Str("websocket", "ws://localhost"+s.cfg.Addr+"/ws").
		Str("database", s.cfg.DBPath).
		Msg("Compact Conflict server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop aborts running matches and gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.matches.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Matches did not stop in time")
	}
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.db.Close()
}
