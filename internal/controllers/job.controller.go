package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healthtrends/internal/logging"
	"healthtrends/internal/repository"
	"healthtrends/internal/services"
)

type JobController struct {
	jobs JobSubmitter
	repo repository.IngestionJobRepository
}

func NewJobController(jobs JobSubmitter, repo repository.IngestionJobRepository) *JobController {
	return &JobController{jobs: jobs, repo: repo}
}

// GetJob godoc
// @Summary Ingestion job status
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{} "Job retrieved successfully"
// @Failure 404 {object} map[string]interface{} "Job not found"
// @Router /jobs/{id} [get]
func (jc *JobController) GetJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	job, err := jc.jobs.GetJobStatus(c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, services.ErrJobNotOwned) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Job not found",
				"error":   "No ingestion job with that ID",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to retrieve job",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Job retrieved successfully",
		"data":    job,
	})
}

// ListJobs godoc
// @Summary Recent ingestion jobs for the current user
// @Tags jobs
// @Produce json
// @Param limit query int false "maximum number of jobs"
// @Success 200 {object} map[string]interface{} "Jobs retrieved successfully"
// @Router /jobs [get]
func (jc *JobController) ListJobs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "Invalid limit",
				"error":   "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	jobs, err := jc.repo.GetJobsByUserID(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to retrieve jobs",
			"error":   err.Error(),
		})
		return
	}

	active, err := jc.repo.GetActiveJobsCount(userID)
	if err != nil {
		logging.Warn().Err(err).Uint("user_id", userID).Msg("Failed to count active jobs")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Jobs retrieved successfully",
		"data":    jobs,
		"active":  active,
	})
}
