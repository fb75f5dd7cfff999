package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/roteiro/studio/internal/script"
)

const (
	// ClipSeconds is the duration of each still-image scene clip.
	ClipSeconds = 5

	manifestFile = "scenes.txt"
	finalFile    = "final_video.mp4"
)

// Builder renders one clip per scene of a project's script and concatenates
// them, in script order, into a single video.
//
// Rendering is strictly sequential: each transcoder invocation completes
// before the next scene starts. Scenes whose first timecode has no image are
// skipped without error and without a manifest entry.
type Builder struct {
	store     *script.Store
	buildsDir string
	tc        Transcoder
	logger    *slog.Logger
}

// NewBuilder creates a builder rendering into per-build directories under
// buildsDir.
func NewBuilder(store *script.Store, buildsDir string, tc Transcoder, logger *slog.Logger) *Builder {
	return &Builder{store: store, buildsDir: buildsDir, tc: tc, logger: logger}
}

// Build renders the named project's script and returns the final video path.
// The project document must exist and parse. On any transcoder failure the
// build directory is removed and no final video is produced.
func (b *Builder) Build(ctx context.Context, project string) (string, error) {
	doc, err := b.store.Load(project)
	if err != nil {
		return "", err
	}
	imagesDir, err := b.store.ImagesDir(project)
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(b.buildsDir, uuid.NewString())
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create build dir: %w", err)
	}

	finalPath, err := b.render(ctx, doc, imagesDir, outDir, project)
	if err != nil {
		os.RemoveAll(outDir)
		return "", err
	}
	return finalPath, nil
}

func (b *Builder) render(ctx context.Context, doc *script.Document, imagesDir, outDir, project string) (string, error) {
	var entries []string

	for i, scene := range doc.Script {
		imagePath, ok := b.sceneImage(scene, imagesDir)
		if !ok {
			if b.logger != nil {
				b.logger.Info("scene has no image, skipping", "project", project, "scene", scene.ID, "index", i)
			}
			continue
		}

		clipName := fmt.Sprintf("scene%d.mp4", i)
		clipPath := filepath.Join(outDir, clipName)
		if err := b.tc.RenderStillClip(ctx, imagePath, clipPath, ClipSeconds); err != nil {
			return "", fmt.Errorf("render scene %d: %w", i, err)
		}
		entries = append(entries, fmt.Sprintf("file '%s'", clipName))
	}

	if len(entries) == 0 {
		return "", fmt.Errorf("script for %q produced no clips", project)
	}

	listPath := filepath.Join(outDir, manifestFile)
	if err := os.WriteFile(listPath, []byte(strings.Join(entries, "\n")+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write concat manifest: %w", err)
	}

	finalPath := filepath.Join(outDir, finalFile)
	if err := b.tc.Concat(ctx, listPath, finalPath); err != nil {
		return "", fmt.Errorf("concatenate clips: %w", err)
	}

	if b.logger != nil {
		b.logger.Info("final video assembled", "project", project, "clips", len(entries), "output", finalPath)
	}
	return finalPath, nil
}

// sceneImage resolves the first timecode's image file, if any. The document
// is the source of truth; a dangling reference means the scene is skipped.
func (b *Builder) sceneImage(scene script.Scene, imagesDir string) (string, bool) {
	if len(scene.Timecodes) == 0 {
		return "", false
	}
	url := scene.Timecodes[0].ImageURL
	if url == "" {
		return "", false
	}
	path := filepath.Join(imagesDir, filepath.Base(url))
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
