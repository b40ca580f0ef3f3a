package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"healthtrends/internal/logging"
	"healthtrends/internal/models"
	"healthtrends/internal/services"
)

type JobSubmitter interface {
	CreateJob(userID uint, path string) (*models.IngestionJob, error)
	GetJobStatus(jobID string, userID uint) (*models.IngestionJob, error)
}

type UploadController struct {
	jobs      JobSubmitter
	uploadDir string
	maxBytes  int64
}

func NewUploadController(jobs JobSubmitter, uploadDir string, maxBytes int64) *UploadController {
	return &UploadController{jobs: jobs, uploadDir: uploadDir, maxBytes: maxBytes}
}

// UploadExport godoc
// @Summary Upload a health export
// @Description Stages a zipped export and queues it for ingestion. The user's existing rows are replaced when the job completes.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "export.zip"
// @Success 202 {object} map[string]interface{} "Export queued for ingestion"
// @Failure 400 {object} map[string]interface{} "Invalid upload"
// @Failure 503 {object} map[string]interface{} "Ingestion queue unavailable"
// @Router /upload [post]
func (uc *UploadController) UploadExport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if uc.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uc.maxBytes)
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "No file part",
			"error":   err.Error(),
		})
		return
	}
	if file.Filename == "" || !strings.EqualFold(filepath.Ext(file.Filename), ".zip") {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Only .zip archives are accepted",
			"error":   "Invalid file extension",
		})
		return
	}

	if err := os.MkdirAll(uc.uploadDir, 0o750); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to stage upload",
			"error":   err.Error(),
		})
		return
	}
	path := filepath.Join(uc.uploadDir, uuid.NewString()+".zip")
	if err := c.SaveUploadedFile(file, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to stage upload",
			"error":   err.Error(),
		})
		return
	}

	job, err := uc.jobs.CreateJob(userID, path)
	if err != nil && job == nil {
		_ = os.Remove(path)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to create ingestion job",
			"error":   err.Error(),
		})
		return
	}
	if err != nil {
		// Saved as pending; the worker picks it up on its next start.
		logging.Warn().Err(err).Str("job_id", job.ID).Msg("Ingestion job saved but not queued")
		status := http.StatusServiceUnavailable
		if !errors.Is(err, services.ErrWorkerStopped) && !errors.Is(err, services.ErrQueueFull) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"status":  "error",
			"message": "Ingestion queue unavailable",
			"error":   err.Error(),
			"data":    job,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "success",
		"message": "Export queued for ingestion",
		"data":    job,
	})
}
