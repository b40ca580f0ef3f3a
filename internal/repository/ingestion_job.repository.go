package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"healthtrends/internal/logging"
	"healthtrends/internal/models"
)

type IngestionJobRepository interface {
	SaveJob(job *models.IngestionJob) error
	GetJobByID(id string) (*models.IngestionJob, error)
	UpdateJob(job *models.IngestionJob) error

	UpdateJobStatus(jobID, status string, errorMessage *string) error
	UpdateJobStep(jobID, step string) error
	ClaimJob(jobID string) (bool, error)

	GetJobsByUserID(userID uint, limit int) ([]*models.IngestionJob, error)
	GetPendingJobs(limit int) ([]*models.IngestionJob, error)
	GetActiveJobsCount(userID uint) (int64, error)
	CleanupOldJobs(olderThan time.Time) (int64, error)
}

type ingestionJobRepository struct {
	db *gorm.DB
}

func NewIngestionJobRepository(db *gorm.DB) IngestionJobRepository {
	return &ingestionJobRepository{db: db}
}

// ========== BASIC CRUD OPERATIONS ==========

func (r *ingestionJobRepository) SaveJob(job *models.IngestionJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = time.Now()
	return r.db.Create(job).Error
}

func (r *ingestionJobRepository) GetJobByID(id string) (*models.IngestionJob, error) {
	var job models.IngestionJob
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ingestionJobRepository) UpdateJob(job *models.IngestionJob) error {
	job.UpdatedAt = time.Now()
	return r.db.Save(job).Error
}

// ========== STATUS MANAGEMENT ==========

func (r *ingestionJobRepository) UpdateJobStatus(jobID, status string, errorMessage *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	if errorMessage != nil {
		updates["error_message"] = *errorMessage
	}

	if status == models.JobStatusCompleted || status == models.JobStatusFailed {
		now := time.Now()
		updates["completed_at"] = &now
	}

	result := r.db.Model(&models.IngestionJob{}).Where("id = ?", jobID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job with ID %s not found", jobID)
	}
	return nil
}

// ClaimJob moves a pending job to processing. It reports false when the job
// is no longer pending, so a job queued twice only runs once.
func (r *ingestionJobRepository) ClaimJob(jobID string) (bool, error) {
	result := r.db.Model(&models.IngestionJob{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusPending).
		Updates(map[string]interface{}{
			"status":     models.JobStatusProcessing,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ingestionJobRepository) UpdateJobStep(jobID, step string) error {
	return r.db.Model(&models.IngestionJob{}).Where("id = ?", jobID).
		Updates(map[string]interface{}{"step": step, "updated_at": time.Now()}).Error
}

// ========== QUERY OPERATIONS ==========

func (r *ingestionJobRepository) GetJobsByUserID(userID uint, limit int) ([]*models.IngestionJob, error) {
	var jobs []*models.IngestionJob
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&jobs).Error; err != nil {
		logging.Error().Err(err).Uint("user_id", userID).Msg("Error querying ingestion jobs")
		return nil, err
	}
	return jobs, nil
}

func (r *ingestionJobRepository) GetPendingJobs(limit int) ([]*models.IngestionJob, error) {
	var jobs []*models.IngestionJob
	query := r.db.Where("status = ?", models.JobStatusPending).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&jobs).Error
	return jobs, err
}

func (r *ingestionJobRepository) GetActiveJobsCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.IngestionJob{}).
		Where("user_id = ? AND status IN ?", userID, []string{models.JobStatusPending, models.JobStatusProcessing}).
		Count(&count).Error
	return count, err
}

// ========== UTILITY OPERATIONS ==========

func (r *ingestionJobRepository) CleanupOldJobs(olderThan time.Time) (int64, error) {
	result := r.db.Where("completed_at < ? AND status IN ?",
		olderThan,
		[]string{models.JobStatusCompleted, models.JobStatusFailed},
	).Delete(&models.IngestionJob{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logging.Info().Int64("deleted", result.RowsAffected).Msg("Cleaned up old ingestion jobs")
	}
	return result.RowsAffected, nil
}
