package api

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/images/{projectName}/{imageName}", imageServeHandler(cfg))

	r.Route("/api", func(r chi.Router) {
		r.Get("/", projectReadHandler(cfg))
		r.Post("/", timecodeCreateHandler(cfg))
		r.Put("/", projectUpdateHandler(cfg))
		r.Delete("/", timecodeDeleteHandler(cfg))
		r.Post("/reset", projectResetHandler(cfg))

		r.Route("/backups", func(r chi.Router) {
			r.Post("/", backupCreateHandler(cfg))
			r.Get("/", backupListHandler(cfg))
			r.Delete("/{name}", backupDeleteHandler(cfg))
			r.Get("/download/{name}", backupDownloadHandler(cfg))
		})

		r.Post("/import", importHandler(cfg))
		r.Post("/importFolder", importFolderHandler(cfg))

		r.Post("/create-video-ai", buildHandler(cfg))
		r.Post("/transcribe-video", transcribeHandler(cfg))
		r.Post("/convert-video", convertHandler(cfg))
		r.Post("/extract-audio", extractAudioHandler(cfg))

		r.Get("/images", stockPhotosHandler(cfg))
		r.Get("/videos", stockVideosHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

// imageServeHandler serves a project's attached image files.
func imageServeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project := chi.URLParam(r, "projectName")
		image := chi.URLParam(r, "imageName")
		if image != filepath.Base(image) {
			WriteError(w, http.StatusBadRequest, "invalid image name", "BAD_REQUEST")
			return
		}

		dir, err := cfg.Store.ImagesDir(project)
		if err != nil {
			WriteDomainError(w, err)
			return
		}

		path := filepath.Join(dir, image)
		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				WriteError(w, http.StatusNotFound, "image not found", "NOT_FOUND")
				return
			}
			WriteDomainError(w, err)
			return
		}
		defer file.Close()

		contentType := mime.TypeByExtension(filepath.Ext(image))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		http.ServeContent(w, r, image, time.Time{}, file)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recent, err := cfg.Jobs.List(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(recent))}
		for i, j := range recent {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
