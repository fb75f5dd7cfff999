// Package media wraps the external video transcoder and assembles a
// project's script into a single rendered video.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const maxStderrBytes = 8 * 1024 // tail of stderr kept for diagnostics

// TranscodeError reports a non-zero transcoder exit, carrying the
// invocation's diagnostic output.
type TranscodeError struct {
	ExitCode int
	Stderr   string
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcoder exited %d: %s", e.ExitCode, e.Stderr)
}

// Transcoder is the contract for external video transcoding.
type Transcoder interface {
	// RenderStillClip loops a single image into a fixed-duration H.264 clip
	// with a compatible pixel format.
	RenderStillClip(ctx context.Context, imagePath, outputPath string, seconds int) error

	// Concat losslessly merges the clips listed in the concat manifest,
	// stream-copying in manifest order.
	Concat(ctx context.Context, listPath, outputPath string) error

	// Convert remuxes/transcodes into the container implied by the output
	// file's extension.
	Convert(ctx context.Context, inputPath, outputPath string) error

	// ExtractAudio drops the video stream and writes the audio track,
	// re-encoding to MP3 when the output asks for it.
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error

	// DownmixMono produces the mono 16 kHz WAV the speech engine expects.
	DownmixMono(ctx context.Context, inputPath, outputPath string) error
}

// FFmpeg runs the ffmpeg binary. Diagnostic output arrives on stderr and is
// not fatal by itself; only the exit code decides success.
type FFmpeg struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewFFmpeg creates a transcoder using the given binary path or name.
func NewFFmpeg(path string, timeout time.Duration, logger *slog.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &FFmpeg{path: path, timeout: timeout, logger: logger}
}

func (f *FFmpeg) RenderStillClip(ctx context.Context, imagePath, outputPath string, seconds int) error {
	return f.run(ctx,
		"-loop", "1",
		"-i", imagePath,
		"-t", fmt.Sprintf("%d", seconds),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-y", outputPath,
	)
}

func (f *FFmpeg) Concat(ctx context.Context, listPath, outputPath string) error {
	return f.run(ctx,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outputPath,
	)
}

func (f *FFmpeg) Convert(ctx context.Context, inputPath, outputPath string) error {
	return f.run(ctx, "-i", inputPath, "-y", outputPath)
}

func (f *FFmpeg) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	args := []string{"-i", inputPath, "-vn"}
	if strings.HasSuffix(outputPath, ".mp3") {
		args = append(args, "-acodec", "libmp3lame")
	} else {
		args = append(args, "-acodec", "copy")
	}
	args = append(args, "-y", outputPath)
	return f.run(ctx, args...)
}

func (f *FFmpeg) DownmixMono(ctx context.Context, inputPath, outputPath string) error {
	return f.run(ctx,
		"-i", inputPath,
		"-ac", "1",
		"-ar", "16000",
		"-vn",
		"-y", outputPath,
	)
}

// run is the core subprocess execution helper.
func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, f.path, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard

	if f.logger != nil {
		f.logger.Debug("executing transcoder", "args", args)
	}

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		if f.logger != nil {
			f.logger.Warn("transcoder failed",
				"exit_code", exitCode,
				"duration_ms", elapsed.Milliseconds(),
				"stderr_tail", truncate(stderrBuf.String(), 512),
			)
		}
		return &TranscodeError{ExitCode: exitCode, Stderr: stderrBuf.String()}
	}

	if f.logger != nil {
		f.logger.Debug("transcoder succeeded", "duration_ms", elapsed.Milliseconds())
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
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
