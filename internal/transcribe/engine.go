package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// ErrUnavailable reports that no speech engine script is configured.
var ErrUnavailable = errors.New("speech engine is not configured")

// TranscriptionError reports a failed or unparseable speech engine run.
type TranscriptionError struct {
	ExitCode int
	Stderr   string
	Reason   string
}

func (e *TranscriptionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("transcription failed: %s", e.Reason)
	}
	return fmt.Sprintf("speech engine exited %d: %s", e.ExitCode, e.Stderr)
}

// Downmixer prepares the mono fixed-sample-rate audio file the speech engine
// expects. Implemented by the media transcoder.
type Downmixer interface {
	DownmixMono(ctx context.Context, inputPath, outputPath string) error
}

// Config holds the engine's configuration.
type Config struct {
	Python  string        // python binary; empty = auto-detect
	Script  string        // speech wrapper script path; empty = unavailable
	Timeout time.Duration // per-run timeout
	Logger  *slog.Logger
}

// Engine invokes the external speech engine for a video file and regroups
// its segments into narration blocks.
type Engine struct {
	cfg     Config
	downmix Downmixer
}

// NewEngine creates a transcription engine.
func NewEngine(cfg Config, downmix Downmixer) *Engine {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &Engine{cfg: cfg, downmix: downmix}
}

// Available reports whether the engine can run.
func (e *Engine) Available() bool {
	return e.cfg.Script != ""
}

// Transcribe extracts mono 16 kHz audio from the video, runs the speech
// engine on it and returns the grouped narration blocks plus total speaking
// time. The intermediate audio file is removed on success and failure.
func (e *Engine) Transcribe(ctx context.Context, videoPath string) ([]Block, float64, error) {
	if !e.Available() {
		return nil, 0, ErrUnavailable
	}

	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	audioPath := base + "_mono.wav"
	defer os.Remove(audioPath)

	if err := e.downmix.DownmixMono(ctx, videoPath, audioPath); err != nil {
		return nil, 0, fmt.Errorf("prepare audio: %w", err)
	}

	segments, err := e.runEngine(ctx, audioPath)
	if err != nil {
		return nil, 0, err
	}

	blocks, total := Group(segments)
	return blocks, total, nil
}

func (e *Engine) runEngine(ctx context.Context, audioPath string) ([]Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.cfg.Python, e.cfg.Script, audioPath)

	var stdout bytes.Buffer
	var stderrBuf bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})

	if e.cfg.Logger != nil {
		e.cfg.Logger.Info("executing speech engine",
			"python", e.cfg.Python,
			"script", e.cfg.Script,
		)
	}

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		if e.cfg.Logger != nil {
			e.cfg.Logger.Warn("speech engine failed",
				"exit_code", exitCode,
				"duration_ms", elapsed.Milliseconds(),
			)
		}
		return nil, &TranscriptionError{ExitCode: exitCode, Stderr: stderrBuf.String()}
	}

	var segments []Segment
	if err := json.Unmarshal(stdout.Bytes(), &segments); err != nil {
		return nil, &TranscriptionError{Reason: fmt.Sprintf("unparseable engine output: %v", err)}
	}

	if e.cfg.Logger != nil {
		e.cfg.Logger.Info("speech engine succeeded",
			"segments", len(segments),
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return segments, nil
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
