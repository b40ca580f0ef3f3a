package models

import (
	"time"

	"gorm.io/datatypes"
)

type IngestionJob struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Status       string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Step         string         `gorm:"type:varchar(40)" json:"step"`
	ArchivePath  string         `gorm:"type:text" json:"-"`
	ActivityRows int            `json:"activity_rows"`
	WorkoutRows  int            `json:"workout_rows"`
	ExerciseRows int            `json:"exercise_rows"`
	DroppedRows  int            `json:"dropped_rows"`
	Warnings     datatypes.JSON `json:"warnings,omitempty"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// Job status constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job steps, reported while a job is processing.
const (
	JobStepQueued     = "queued"
	JobStepExtracting = "extracting"
	JobStepBuilding   = "building tables"
	JobStepLoading    = "loading database"
	JobStepDone       = "done"
)

func (j *IngestionJob) TableName() string {
	return "ingestion_jobs"
}

// Finished reports whether the job reached a terminal status.
func (j *IngestionJob) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// IngestionJobRequest is what the worker queue carries.
type IngestionJobRequest struct {
	JobID       string `json:"job_id"`
	UserID      uint   `json:"user_id"`
	ArchivePath string `json:"archive_path"`
}
