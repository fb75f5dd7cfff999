// Package script owns the per-project document store: a data.json holding
// the timecode and scene collections plus an images directory of attached
// stills. Projects live under <data dir>/backups/<name>; the same directory
// shape doubles as a named snapshot, which is what makes backup, restore and
// rendering interchangeable over one layout.
//
// Timecode updates are canonical at the root collection and fan out to every
// scene-embedded copy in the same persisted write. Scene patches update scene
// fields only and are never reconciled back into the root collection.
package script

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

var (
	// ErrInvalidProject reports an empty or unsafe project name.
	ErrInvalidProject = errors.New("project name is required")

	// ErrCorruptState reports an unparseable project document.
	ErrCorruptState = errors.New("project document is not valid JSON")

	// ErrNotFound reports a project directory without a document.
	ErrNotFound = errors.New("project not found")
)

const (
	documentFile = "data.json"
	imagesDir    = "images"
	lockFile     = ".lock"
)

// Store manages project directories under a single root.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a store rooted at the given projects directory,
// typically <data dir>/backups.
func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{root: root, logger: logger}
}

// Root returns the projects root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of a named project.
func (s *Store) Dir(project string) (string, error) {
	name, err := cleanName(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// ImagesDir returns the images directory of a named project.
func (s *Store) ImagesDir(project string) (string, error) {
	dir, err := s.Dir(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, imagesDir), nil
}

// DocumentPath returns the data.json path of a named project.
func (s *Store) DocumentPath(project string) (string, error) {
	dir, err := s.Dir(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, documentFile), nil
}

// Ensure idempotently creates the project directory and an initial empty
// document. An already-initialized project is left untouched.
func (s *Store) Ensure(project string) error {
	path, err := s.DocumentPath(project)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat document: %w", err)
	}
	return writeDocument(path, NewDocument())
}

// Load reads an existing project document without creating one.
// Returns ErrNotFound when the document is absent.
func (s *Store) Load(project string) (*Document, error) {
	path, err := s.DocumentPath(project)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, project)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &doc, nil
}

// Read ensures the project exists, then loads its document.
func (s *Store) Read(project string) (*Document, error) {
	if err := s.Ensure(project); err != nil {
		return nil, err
	}
	return s.Load(project)
}

// Write persists the document. The file is written to a temporary sibling
// and renamed so a concurrent reader never observes a partial document.
func (s *Store) Write(project string, doc *Document) error {
	if err := s.Ensure(project); err != nil {
		return err
	}
	path, err := s.DocumentPath(project)
	if err != nil {
		return err
	}
	return writeDocument(path, doc)
}

// AttachImage decodes a base64 payload into the project's images directory
// and returns the store-relative URL. An existing file with the same name is
// overwritten; callers keep at most one image per timecode by naming files
// "<timecode id>.png".
func (s *Store) AttachImage(project, payload, fileName string) (string, error) {
	dir, err := s.ImagesDir(project)
	if err != nil {
		return "", err
	}
	if fileName == "" || fileName != filepath.Base(fileName) {
		return "", fmt.Errorf("invalid image file name %q", fileName)
	}

	// Tolerate data-URL payloads from browser canvases.
	if idx := strings.Index(payload, ";base64,"); idx != -1 {
		payload = payload[idx+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName), raw, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	name, _ := cleanName(project)
	return fmt.Sprintf("/images/%s/%s", name, fileName), nil
}

// AddTimecode stores the timecode's image (when a payload is given), stamps
// its URL and appends it to the root collection.
func (s *Store) AddTimecode(project string, tc Timecode, imagePayload string) (Timecode, error) {
	if tc.ID == "" {
		return tc, errors.New("timecode id is required")
	}
	if imagePayload != "" {
		url, err := s.AttachImage(project, imagePayload, tc.ID+".png")
		if err != nil {
			return tc, err
		}
		tc.ImageURL = url
	}

	err := s.mutate(project, func(doc *Document) error {
		doc.Timecodes = append(doc.Timecodes, tc)
		return nil
	})
	return tc, err
}

// UpdateTimecode applies the patch to the root entry with the given id and
// to every scene-embedded copy, persisting all of it in one write.
func (s *Store) UpdateTimecode(project, id string, patch TimecodePatch) error {
	return s.mutate(project, func(doc *Document) error {
		for i := range doc.Timecodes {
			if doc.Timecodes[i].ID == id {
				patch.apply(&doc.Timecodes[i])
			}
		}
		for si := range doc.Script {
			scene := &doc.Script[si]
			for i := range scene.Timecodes {
				if scene.Timecodes[i].ID == id {
					patch.apply(&scene.Timecodes[i])
				}
			}
		}
		return nil
	})
}

// UpdateSceneAudios applies the patch to every scene's audios entry with the
// given id.
func (s *Store) UpdateSceneAudios(project, id string, patch TimecodePatch) error {
	return s.mutate(project, func(doc *Document) error {
		for si := range doc.Script {
			scene := &doc.Script[si]
			for i := range scene.Audios {
				if scene.Audios[i].ID == id {
					patch.apply(&scene.Audios[i])
				}
			}
		}
		return nil
	})
}

// UpdateScene applies the patch to the scene with the given id.
func (s *Store) UpdateScene(project, id string, patch ScenePatch) error {
	return s.mutate(project, func(doc *Document) error {
		for i := range doc.Script {
			if doc.Script[i].ID == id {
				patch.apply(&doc.Script[i])
				return nil
			}
		}
		return nil
	})
}

// ReplaceDocument overwrites the whole document. Used for reorder operations
// where the client ships the complete new state.
func (s *Store) ReplaceDocument(project string, doc *Document) error {
	return s.mutate(project, func(current *Document) error {
		*current = *doc
		return nil
	})
}

// DeleteTimecode removes the id from the root collection and from every
// scene's timecodes and audios, then best-effort deletes the attached image.
func (s *Store) DeleteTimecode(project, id string) error {
	err := s.mutate(project, func(doc *Document) error {
		doc.Timecodes = removeByID(doc.Timecodes, id)
		for si := range doc.Script {
			scene := &doc.Script[si]
			scene.Timecodes = removeByID(scene.Timecodes, id)
			scene.Audios = removeByID(scene.Audios, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	dir, err := s.ImagesDir(project)
	if err != nil {
		return err
	}
	if rmErr := os.Remove(filepath.Join(dir, id+".png")); rmErr != nil && !os.IsNotExist(rmErr) {
		// The document is the source of truth; a leftover file is harmless.
		if s.logger != nil {
			s.logger.Warn("could not delete timecode image", "project", project, "id", id, "error", rmErr)
		}
	}
	return nil
}

// Reset truncates the document to empty and deletes every file in the
// images directory. Individual deletion failures do not abort the rest.
func (s *Store) Reset(project string) error {
	if err := s.mutate(project, func(doc *Document) error {
		*doc = *NewDocument()
		return nil
	}); err != nil {
		return err
	}

	dir, err := s.ImagesDir(project)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read images dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if rmErr := os.Remove(filepath.Join(dir, entry.Name())); rmErr != nil {
			if s.logger != nil {
				s.logger.Warn("could not delete image during reset", "project", project, "file", entry.Name(), "error", rmErr)
			}
		}
	}
	return nil
}

// mutate runs a read-modify-write sequence under the project's file lock so
// concurrent writers cannot lose updates.
func (s *Store) mutate(project string, fn func(*Document) error) error {
	if err := s.Ensure(project); err != nil {
		return err
	}
	dir, err := s.Dir(project)
	if err != nil {
		return err
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire project lock: %w", err)
	}
	defer lock.Unlock()

	doc, err := s.Load(project)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	path, err := s.DocumentPath(project)
	if err != nil {
		return err
	}
	return writeDocument(path, doc)
}

func writeDocument(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), documentFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

func removeByID(tcs []Timecode, id string) []Timecode {
	out := tcs[:0]
	for _, tc := range tcs {
		if tc.ID != id {
			out = append(out, tc)
		}
	}
	return out
}

// cleanName validates a project name: non-empty after trimming, no path
// separators, no traversal.
func cleanName(project string) (string, error) {
	name := strings.TrimSpace(project)
	if name == "" {
		return "", ErrInvalidProject
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: unsafe name %q", ErrInvalidProject, project)
	}
	return name, nil
}
