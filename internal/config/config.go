// Package config provides configuration management for the studio server.
// Configuration is loaded from environment variables with sensible defaults;
// a .env file in the working directory is honoured when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort     = 4000
	DefaultLogLevel = "info"
	DefaultDataDir  = "data"
	DefaultFFmpeg   = "ffmpeg"
	DefaultPython   = "python3"

	// Environment variable names
	EnvPort          = "STUDIO_PORT"
	EnvLogLevel      = "STUDIO_LOG_LEVEL"
	EnvDataDir       = "STUDIO_DATA_DIR"
	EnvFFmpegPath    = "FFMPEG_PATH"
	EnvWhisperPython = "STUDIO_WHISPER_PYTHON"
	EnvWhisperScript = "STUDIO_WHISPER_SCRIPT"
	EnvPexelsKey     = "PEXELS_API_KEY"
	EnvPixabayKey    = "PIXABAY_API_KEY"

	// Database filename
	DBFilename = "studio.db"

	// Subprocess timeouts
	DefaultTranscodeTimeoutS  = 600  // 10 minutes per ffmpeg invocation
	DefaultTranscribeTimeoutS = 1800 // 30 minutes for the speech engine
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ImagesDir() string
	BackupsDir() string
	UploadsDir() string
	BuildsDir() string
	FFmpegPath() string
	WhisperPython() string
	WhisperScript() string
	PexelsKey() string
	PixabayKey() string
	TranscodeTimeout() time.Duration
	TranscribeTimeout() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port          int
	logLevel      string
	dataDir       string
	ffmpegPath    string
	whisperPython string
	whisperScript string
	pexelsKey     string
	pixabayKey    string
}

// New creates a new EnvConfig with defaults and environment variable overrides.
// A .env file is loaded first when one exists, matching how the server has
// historically been configured in deployments.
func New() (*EnvConfig, error) {
	// Missing .env is not an error; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		dataDir:       DefaultDataDir,
		ffmpegPath:    DefaultFFmpeg,
		whisperPython: DefaultPython,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if fp := os.Getenv(EnvFFmpegPath); fp != "" {
		cfg.ffmpegPath = fp
	}

	if wp := os.Getenv(EnvWhisperPython); wp != "" {
		cfg.whisperPython = wp
	}
	cfg.whisperScript = os.Getenv(EnvWhisperScript)

	cfg.pexelsKey = os.Getenv(EnvPexelsKey)
	cfg.pixabayKey = os.Getenv(EnvPixabayKey)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ImagesDir returns the active store's image directory
func (c *EnvConfig) ImagesDir() string {
	return filepath.Join(c.dataDir, "images")
}

// BackupsDir returns the root directory of named snapshots
func (c *EnvConfig) BackupsDir() string {
	return filepath.Join(c.dataDir, "backups")
}

// UploadsDir returns the scratch directory for incoming uploads
func (c *EnvConfig) UploadsDir() string {
	return filepath.Join(c.dataDir, "uploads")
}

// BuildsDir returns the root directory for per-build render output
func (c *EnvConfig) BuildsDir() string {
	return filepath.Join(c.dataDir, "builds")
}

// FFmpegPath returns the transcoder binary path or name
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// WhisperPython returns the python binary used for the speech engine
func (c *EnvConfig) WhisperPython() string {
	return c.whisperPython
}

// WhisperScript returns the speech engine wrapper script path.
// Empty means transcription is unavailable.
func (c *EnvConfig) WhisperScript() string {
	return c.whisperScript
}

func (c *EnvConfig) PexelsKey() string {
	return c.pexelsKey
}

func (c *EnvConfig) PixabayKey() string {
	return c.pixabayKey
}

func (c *EnvConfig) TranscodeTimeout() time.Duration {
	return time.Duration(DefaultTranscodeTimeoutS) * time.Second
}

func (c *EnvConfig) TranscribeTimeout() time.Duration {
	return time.Duration(DefaultTranscribeTimeoutS) * time.Second
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
