package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roteiro/studio/internal/api"
	"github.com/roteiro/studio/internal/backup"
	"github.com/roteiro/studio/internal/config"
	"github.com/roteiro/studio/internal/db"
	"github.com/roteiro/studio/internal/jobs"
	"github.com/roteiro/studio/internal/logging"
	"github.com/roteiro/studio/internal/media"
	"github.com/roteiro/studio/internal/script"
	"github.com/roteiro/studio/internal/stock"
	"github.com/roteiro/studio/internal/transcribe"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir(), cfg.BackupsDir(), cfg.UploadsDir(), cfg.BuildsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting studio server", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.Open(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize job ledger: %w", err)
	}
	defer database.Close()

	jobRepo := jobs.NewRepository(database)
	if err := jobRepo.MarkInterrupted(context.Background()); err != nil {
		logger.Warn("could not mark interrupted jobs", "error", err)
	}

	store := script.NewStore(cfg.BackupsDir(), logging.WithComponent(logger, "script"))
	backups := backup.NewManager(cfg.DataDir(), logging.WithComponent(logger, "backup"))
	if err := backups.EnsureActive(); err != nil {
		return fmt.Errorf("failed to initialize active store: %w", err)
	}

	ffmpeg := media.NewFFmpeg(cfg.FFmpegPath(), cfg.TranscodeTimeout(), logging.WithComponent(logger, "ffmpeg"))
	builder := media.NewBuilder(store, cfg.BuildsDir(), ffmpeg, logging.WithComponent(logger, "builder"))

	transcriber := transcribe.NewEngine(transcribe.Config{
		Python:  cfg.WhisperPython(),
		Script:  cfg.WhisperScript(),
		Timeout: cfg.TranscribeTimeout(),
		Logger:  logging.WithComponent(logger, "transcribe"),
	}, ffmpeg)
	if !transcriber.Available() {
		logger.Warn("speech engine script not configured, transcription disabled",
			"env", config.EnvWhisperScript)
	}

	stockClient := stock.NewClient(cfg.PexelsKey(), cfg.PixabayKey(), logging.WithComponent(logger, "stock"))
	if !stockClient.Configured() {
		logger.Warn("stock search API keys not configured, search disabled")
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:        cfg.Port(),
		Store:       store,
		Backups:     backups,
		Builder:     builder,
		Transcoder:  ffmpeg,
		Transcriber: transcriber,
		Stock:       stockClient,
		Jobs:        jobRepo,
		UploadsDir:  cfg.UploadsDir(),
		Logger:      logger,
		StartTime:   startTime,
		Version:     config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
