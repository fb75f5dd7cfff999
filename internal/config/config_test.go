package config

import (
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.DataDir() != DefaultDataDir {
		t.Errorf("DataDir() = %q, want %q", cfg.DataDir(), DefaultDataDir)
	}
	if cfg.FFmpegPath() != DefaultFFmpeg {
		t.Errorf("FFmpegPath() = %q, want %q", cfg.FFmpegPath(), DefaultFFmpeg)
	}
	if cfg.WhisperPython() != DefaultPython {
		t.Errorf("WhisperPython() = %q, want %q", cfg.WhisperPython(), DefaultPython)
	}
	if cfg.WhisperScript() != "" {
		t.Errorf("WhisperScript() = %q, want empty", cfg.WhisperScript())
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDataDir, "/srv/studio")
	t.Setenv(EnvFFmpegPath, "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv(EnvWhisperScript, "/opt/whisper/transcribe.py")
	t.Setenv(EnvPexelsKey, "pex")
	t.Setenv(EnvPixabayKey, "pix")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if cfg.Port() != 9090 {
		t.Errorf("Port() = %d, want 9090", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	if cfg.DataDir() != "/srv/studio" {
		t.Errorf("DataDir() = %q, want /srv/studio", cfg.DataDir())
	}
	if cfg.FFmpegPath() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath() = %q", cfg.FFmpegPath())
	}
	if cfg.WhisperScript() != "/opt/whisper/transcribe.py" {
		t.Errorf("WhisperScript() = %q", cfg.WhisperScript())
	}
	if cfg.PexelsKey() != "pex" || cfg.PixabayKey() != "pix" {
		t.Errorf("provider keys = %q/%q, want pex/pix", cfg.PexelsKey(), cfg.PixabayKey())
	}
}

func TestNew_InvalidPort(t *testing.T) {
	for _, bad := range []string{"nope", "0", "70000", "-1"} {
		t.Run(bad, func(t *testing.T) {
			t.Setenv(EnvPort, bad)
			if _, err := New(); err == nil {
				t.Errorf("New() with %s=%q expected error", EnvPort, bad)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	t.Setenv(EnvDataDir, "/srv/studio")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	checks := map[string]string{
		cfg.DBPath():     filepath.Join("/srv/studio", DBFilename),
		cfg.ImagesDir():  "/srv/studio/images",
		cfg.BackupsDir(): "/srv/studio/backups",
		cfg.UploadsDir(): "/srv/studio/uploads",
		cfg.BuildsDir():  "/srv/studio/builds",
	}
	for got, want := range checks {
		if got != want {
			t.Errorf("derived path = %q, want %q", got, want)
		}
	}
}
