package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/roteiro/studio/internal/jobs"
)

// recordJob and finishJob write to the job ledger. Ledger failures are logged
// rather than failing the request; the ledger is advisory.
func recordJob(cfg ServerConfig, r *http.Request, job *jobs.Job) {
	if err := cfg.Jobs.Create(r.Context(), job); err != nil {
		cfg.Logger.Warn("could not record job", "job_id", job.ID, "type", job.Type, "error", err)
	}
}

func finishJob(cfg ServerConfig, r *http.Request, id, status, output, errMsg string) {
	if err := cfg.Jobs.UpdateStatus(r.Context(), id, status, output, errMsg); err != nil {
		cfg.Logger.Warn("could not update job", "job_id", id, "status", status, "error", err)
	}
}

func buildHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BuildRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		job := jobs.New(jobs.TypeBuild, req.ProjectName)
		recordJob(cfg, r, job)

		output, err := cfg.Builder.Build(r.Context(), req.ProjectName)
		if err != nil {
			finishJob(cfg, r, job.ID, jobs.StatusFailed, "", err.Error())
			WriteDomainError(w, err)
			return
		}
		finishJob(cfg, r, job.ID, jobs.StatusCompleted, output, "")

		WriteJSON(w, http.StatusOK, BuildResponse{Success: true, Output: output, JobID: job.ID})
	}
}

func transcribeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoPath, _, err := saveUpload(r, "video", cfg.UploadsDir)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		defer os.Remove(videoPath)

		job := jobs.New(jobs.TypeTranscribe, "")
		recordJob(cfg, r, job)

		blocks, total, err := cfg.Transcriber.Transcribe(r.Context(), videoPath)
		if err != nil {
			finishJob(cfg, r, job.ID, jobs.StatusFailed, "", err.Error())
			WriteDomainError(w, err)
			return
		}
		finishJob(cfg, r, job.ID, jobs.StatusCompleted, "", "")

		WriteJSON(w, http.StatusOK, TranscribeResponse{Success: true, Segments: blocks, TotalTime: total})
	}
}

func convertHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inputPath, _, err := saveUpload(r, "video", cfg.UploadsDir)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		defer os.Remove(inputPath)

		format, err := cleanFormat(r.FormValue("format"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		outputPath := inputPath + "." + format
		defer os.Remove(outputPath)

		if err := cfg.Transcoder.Convert(r.Context(), inputPath, outputPath); err != nil {
			WriteDomainError(w, err)
			return
		}
		serveDownload(w, r, outputPath)
	}
}

func extractAudioHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inputPath, _, err := saveUpload(r, "video", cfg.UploadsDir)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		defer os.Remove(inputPath)

		format, err := cleanFormat(r.FormValue("format"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		outputPath := inputPath + "." + format
		defer os.Remove(outputPath)

		if err := cfg.Transcoder.ExtractAudio(r.Context(), inputPath, outputPath); err != nil {
			WriteDomainError(w, err)
			return
		}
		serveDownload(w, r, outputPath)
	}
}

// cleanFormat validates the requested output extension: short, lowercase
// alphanumeric, so it can never carry path separators into the output path.
func cleanFormat(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", fmt.Errorf("format is required")
	}
	if len(v) > 8 {
		return "", fmt.Errorf("invalid format %q", v)
	}
	for _, r := range v {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("invalid format %q", v)
		}
	}
	return v, nil
}

func serveDownload(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}
