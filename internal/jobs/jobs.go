// Package jobs records build, transcription and import runs in the job
// ledger so clients can inspect recent activity and failures.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeBuild      = "build"
	TypeTranscribe = "transcribe"
	TypeImport     = "import"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one recorded run.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Project   string    `json:"project,omitempty"`
	Status    string    `json:"status"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a running job of the given type.
func New(jobType, project string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Project:   project,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
