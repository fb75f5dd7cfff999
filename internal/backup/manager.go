// Package backup manages named snapshots of the active project: a frozen
// copy of its document plus only the images that document references. It
// also holds the restore/import engine that moves state between snapshots,
// the active store and external zip archives.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roteiro/studio/internal/script"
)

var (
	// ErrInvalidName reports an empty or unsafe snapshot name.
	ErrInvalidName = errors.New("snapshot name is required")

	// ErrNotFound reports a missing snapshot.
	ErrNotFound = errors.New("snapshot not found")
)

const (
	documentFile = "data.json"
	imagesDir    = "images"
)

// Info describes one snapshot in a listing.
type Info struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Manager owns the backups root and the active store's document and images.
type Manager struct {
	activeDoc    string // active store document path
	activeImages string // active store images directory
	backupsRoot  string
	logger       *slog.Logger
}

// NewManager creates a snapshot manager over a data directory laid out as
// data.json + images/ + backups/.
func NewManager(dataDir string, logger *slog.Logger) *Manager {
	return &Manager{
		activeDoc:    filepath.Join(dataDir, documentFile),
		activeImages: filepath.Join(dataDir, imagesDir),
		backupsRoot:  filepath.Join(dataDir, "backups"),
		logger:       logger,
	}
}

// EnsureActive initializes the active store with an empty document and an
// images directory when absent.
func (m *Manager) EnsureActive() error {
	if err := os.MkdirAll(m.activeImages, 0755); err != nil {
		return fmt.Errorf("create active images dir: %w", err)
	}
	if _, err := os.Stat(m.activeDoc); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat active document: %w", err)
	}
	data, err := json.MarshalIndent(script.NewDocument(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.activeDoc, data, 0644)
}

// Dir returns the directory of a named snapshot. It validates the name only;
// use Exists to check for the directory itself.
func (m *Manager) Dir(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.backupsRoot, clean), nil
}

// Exists reports whether the named snapshot directory is present, returning
// ErrNotFound when it is not.
func (m *Manager) Exists(name string) error {
	dir, err := m.Dir(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	} else if err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	return nil
}

// Create freezes the active store into a named snapshot. The document is
// copied verbatim; only images referenced by its root timecodes are copied.
// A referenced image missing from the active store is logged and skipped so
// a dangling reference never blocks the snapshot.
func (m *Manager) Create(name string) error {
	dir, err := m.Dir(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, imagesDir), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := os.ReadFile(m.activeDoc)
	if err != nil {
		return fmt.Errorf("read active document: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, documentFile), data, 0644); err != nil {
		return fmt.Errorf("write snapshot document: %w", err)
	}

	var doc script.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse active document: %w", err)
	}

	for _, img := range doc.ReferencedImages() {
		src := filepath.Join(m.activeImages, img)
		dst := filepath.Join(dir, imagesDir, img)
		if err := copyFile(src, dst); err != nil {
			if m.logger != nil {
				m.logger.Warn("referenced image missing, skipping", "snapshot", name, "image", img, "error", err)
			}
		}
	}

	if m.logger != nil {
		m.logger.Info("snapshot created", "snapshot", name)
	}
	return nil
}

// List enumerates snapshots: subdirectories of the backups root that contain
// a data.json. Directories without one are silently excluded.
func (m *Manager) List() ([]Info, error) {
	if err := os.MkdirAll(m.backupsRoot, 0755); err != nil {
		return nil, fmt.Errorf("create backups dir: %w", err)
	}
	entries, err := os.ReadDir(m.backupsRoot)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}

	infos := []Info{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.backupsRoot, entry.Name(), documentFile)); err != nil {
			continue
		}
		infos = append(infos, Info{
			Name: entry.Name(),
			Path: fmt.Sprintf("/backups/%s/%s", entry.Name(), documentFile),
		})
	}
	return infos, nil
}

// Delete recursively removes a named snapshot.
func (m *Manager) Delete(name string) error {
	if err := m.Exists(name); err != nil {
		return err
	}
	dir, err := m.Dir(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("snapshot deleted", "snapshot", name)
	}
	return nil
}

// Restore overwrites the active store from a named snapshot: the document is
// copied verbatim, then the active images directory is emptied and refilled
// from the snapshot's images. A snapshot without an images directory leaves
// the active images untouched; its absence does not mean "no images".
func (m *Manager) Restore(name string) error {
	dir, err := m.Dir(name)
	if err != nil {
		return err
	}
	snapDoc := filepath.Join(dir, documentFile)
	data, err := os.ReadFile(snapDoc)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("read snapshot document: %w", err)
	}
	// Replace via a temp sibling so a concurrent reader of the active
	// document never observes a partial file.
	if err := replaceFile(m.activeDoc, data); err != nil {
		return fmt.Errorf("write active document: %w", err)
	}

	snapImages := filepath.Join(dir, imagesDir)
	if _, err := os.Stat(snapImages); os.IsNotExist(err) {
		if m.logger != nil {
			m.logger.Info("snapshot has no images directory, skipping image sync", "snapshot", name)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("stat snapshot images: %w", err)
	}

	if err := os.MkdirAll(m.activeImages, 0755); err != nil {
		return fmt.Errorf("create active images dir: %w", err)
	}

	// Delete phase must complete before any copy so stale files with
	// colliding names cannot survive.
	existing, err := os.ReadDir(m.activeImages)
	if err != nil {
		return fmt.Errorf("read active images dir: %w", err)
	}
	for _, entry := range existing {
		if err := os.Remove(filepath.Join(m.activeImages, entry.Name())); err != nil {
			return fmt.Errorf("clear active image %s: %w", entry.Name(), err)
		}
	}

	imgs, err := os.ReadDir(snapImages)
	if err != nil {
		return fmt.Errorf("read snapshot images dir: %w", err)
	}
	for _, entry := range imgs {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(snapImages, entry.Name())
		dst := filepath.Join(m.activeImages, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copy snapshot image %s: %w", entry.Name(), err)
		}
	}

	if m.logger != nil {
		m.logger.Info("snapshot restored", "snapshot", name)
	}
	return nil
}

// replaceFile writes data to a temporary sibling of path and renames it into
// place.
func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func cleanName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", ErrInvalidName
	}
	if clean != filepath.Base(clean) || clean == "." || clean == ".." {
		return "", fmt.Errorf("%w: unsafe name %q", ErrInvalidName, name)
	}
	return clean, nil
}
