package api

import (
	"time"

	"github.com/roteiro/studio/internal/backup"
	"github.com/roteiro/studio/internal/jobs"
	"github.com/roteiro/studio/internal/script"
	"github.com/roteiro/studio/internal/transcribe"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

// TimecodeCreateRequest attaches an image and appends a timecode in one call.
type TimecodeCreateRequest struct {
	FileContent string          `json:"fileContent"`
	Timecode    script.Timecode `json:"timecode"`
}

type TimecodeCreateResponse struct {
	Message  string          `json:"message"`
	Timecode script.Timecode `json:"timecode"`
}

// TimecodeUpdate carries a timecode id plus the partial fields to apply.
type TimecodeUpdate struct {
	ID string `json:"id"`
	script.TimecodePatch
}

// SceneUpdate carries a scene id plus the partial fields to apply.
type SceneUpdate struct {
	ID string `json:"id"`
	script.ScenePatch
}

// ProjectUpdateRequest is the scoped update envelope. Exactly one payload is
// consulted depending on Scope:
//
//	timecode-move    -> JSON (whole document replacement)
//	timecodes        -> Timecode (root collection + scene copies)
//	script-timecodes -> Timecode (scene copies; same fan-out path)
//	script-audios    -> Timecode (scene audios entries)
//	script           -> Script (scene fields)
type ProjectUpdateRequest struct {
	Scope    string           `json:"scope"`
	Timecode *TimecodeUpdate  `json:"timecode,omitempty"`
	Script   *SceneUpdate     `json:"script,omitempty"`
	JSON     *script.Document `json:"json,omitempty"`
}

type TimecodeDeleteRequest struct {
	ID string `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type BackupCreateRequest struct {
	FileName string `json:"fileName"`
}

type BackupsResponse struct {
	Backups []backup.Info `json:"backups"`
}

type ImportRequest struct {
	FileName string `json:"fileName"`
}

type ImportFolderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

type BuildRequest struct {
	ProjectName string `json:"projectName"`
}

type BuildResponse struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	JobID   string `json:"job_id,omitempty"`
}

type TranscribeResponse struct {
	Success   bool               `json:"success"`
	Segments  []transcribe.Block `json:"segments"`
	TotalTime float64            `json:"totalTime"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Project   string `json:"project,omitempty"`
	Status    string `json:"status"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JobToResponse(j *jobs.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Project:   j.Project,
		Status:    j.Status,
		Output:    j.Output,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}
