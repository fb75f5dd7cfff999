package backup

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteZip streams a named snapshot as a zip archive. Entries are written
// incrementally so large projects never need full in-memory buffering. The
// snapshot directory's contents sit at the archive root, with no extra
// nesting level, and maximum compression is used.
func (m *Manager) WriteZip(name string, w io.Writer) error {
	if err := m.Exists(name); err != nil {
		return err
	}
	dir, err := m.Dir(name)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("archive snapshot: %w", err)
	}
	return zw.Close()
}

// ImportArchive materializes a new snapshot from an uploaded zip archive.
// The snapshot name is the declared file name with its extension stripped.
// The uploaded archive is deleted on success and failure; a partially
// extracted snapshot directory is left in place when extraction fails.
func (m *Manager) ImportArchive(archivePath, originalName string) (string, error) {
	defer os.Remove(archivePath)

	base := filepath.Base(originalName)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	dir, err := m.Dir(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	if err := extractZip(archivePath, dir); err != nil {
		return "", fmt.Errorf("extract archive into %s: %w", name, err)
	}

	if m.logger != nil {
		m.logger.Info("archive imported", "snapshot", name)
	}
	return name, nil
}

func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return out.Close()
}

// safeJoin rejects entries that would escape the destination directory.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}
