package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/roteiro/studio/internal/backup"
	"github.com/roteiro/studio/internal/jobs"
	"github.com/roteiro/studio/internal/media"
	"github.com/roteiro/studio/internal/script"
	"github.com/roteiro/studio/internal/stock"
	"github.com/roteiro/studio/internal/transcribe"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port        int
	Store       *script.Store
	Backups     *backup.Manager
	Builder     *media.Builder
	Transcoder  media.Transcoder
	Transcriber *transcribe.Engine
	Stock       *stock.Client
	Jobs        jobs.Repository
	UploadsDir  string
	Logger      *slog.Logger
	StartTime   time.Time
	Version     string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf(":%d", cfg.Port),
			Handler:     router,
			ReadTimeout: 0, // large archive and video uploads
			IdleTimeout: 60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
