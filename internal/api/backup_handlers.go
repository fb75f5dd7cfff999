package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/roteiro/studio/internal/jobs"
)

func backupCreateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BackupCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Backups.Create(req.FileName); err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: "backup created"})
	}
}

func backupListHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos, err := cfg.Backups.List()
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, BackupsResponse{Backups: infos})
	}
}

func backupDeleteHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Backups.Delete(chi.URLParam(r, "name")); err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: "backup deleted"})
	}
}

func backupDownloadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		// Existence is checked before headers go out; the zip itself is
		// streamed directly into the response.
		if err := cfg.Backups.Exists(name); err != nil {
			WriteDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".zip"))

		if err := cfg.Backups.WriteZip(name, w); err != nil {
			// Headers may already be sent; all that is left is logging.
			cfg.Logger.Error("backup download failed", "snapshot", name, "error", err)
		}
	}
}

func importHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Backups.Restore(req.FileName); err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, MessageResponse{Message: "backup imported"})
	}
}

func importFolderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		archivePath, originalName, err := saveUpload(r, "backup", cfg.UploadsDir)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		job := jobs.New(jobs.TypeImport, "")
		recordJob(cfg, r, job)

		name, err := cfg.Backups.ImportArchive(archivePath, originalName)
		if err != nil {
			finishJob(cfg, r, job.ID, jobs.StatusFailed, "", err.Error())
			WriteDomainError(w, err)
			return
		}
		finishJob(cfg, r, job.ID, jobs.StatusCompleted, name, "")

		WriteJSON(w, http.StatusOK, ImportFolderResponse{
			Success: true,
			Message: fmt.Sprintf("imported into backups/%s", name),
			Name:    name,
		})
	}
}

// saveUpload stores one multipart file into the uploads scratch directory
// under a fresh name and returns its path plus the declared file name.
func saveUpload(r *http.Request, field, uploadsDir string) (string, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", fmt.Errorf("missing %s upload: %w", field, err)
	}
	defer file.Close()

	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return "", "", fmt.Errorf("create uploads dir: %w", err)
	}

	path := filepath.Join(uploadsDir, uuid.NewString())
	out, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("store upload: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("store upload: %w", err)
	}
	return path, header.Filename, nil
}
