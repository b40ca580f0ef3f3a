package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"healthtrends/internal/logging"
	"healthtrends/internal/messaging"
	"healthtrends/internal/metrics"
	"healthtrends/internal/models"
	"healthtrends/internal/repository"
)

var (
	ErrWorkerStopped = errors.New("job worker is not running")
	ErrQueueFull     = errors.New("job queue is full, try again later")
	ErrIngestLocked  = errors.New("another ingestion is running for this user")
	ErrJobNotOwned   = errors.New("job does not belong to user")
)

// IngestLocker serialises ingestion per user across processes.
type IngestLocker interface {
	AcquireIngestLock(ctx context.Context, userID uint, token string, ttl time.Duration) (bool, error)
	ReleaseIngestLock(ctx context.Context, userID uint, token string) error
}

// Ingester runs one ingestion. *IngestionService implements it.
type Ingester interface {
	IngestArchive(ctx context.Context, userID uint, path string, onStep StepFunc) (*IngestionResult, error)
}

// WorkerOptions tunes an IngestionJobWorker. Zero values pick defaults.
type WorkerOptions struct {
	WorkerCount     int
	JobTimeout      time.Duration
	LockTTL         time.Duration
	Retention       time.Duration
	CleanupInterval time.Duration
}

// IngestionJobWorker runs queued ingestion jobs. Each user is pinned to one
// worker goroutine, so a user's jobs never run concurrently in-process; the
// optional locker extends that across processes.
type IngestionJobWorker struct {
	jobRepo   repository.IngestionJobRepository
	ingester  Ingester
	locker    IngestLocker
	publisher messaging.Publisher

	queues   []chan models.IngestionJobRequest
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.RWMutex

	maxJobTimeout   time.Duration
	lockTTL         time.Duration
	retention       time.Duration
	cleanupInterval time.Duration
}

func NewIngestionJobWorker(
	jobRepo repository.IngestionJobRepository,
	ingester Ingester,
	locker IngestLocker,
	publisher messaging.Publisher,
	opts WorkerOptions,
) *IngestionJobWorker {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 3
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 15 * time.Minute
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	if opts.Retention <= 0 {
		opts.Retention = 7 * 24 * time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 30 * time.Minute
	}
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}

	queues := make([]chan models.IngestionJobRequest, opts.WorkerCount)
	for i := range queues {
		queues[i] = make(chan models.IngestionJobRequest, 100)
	}

	return &IngestionJobWorker{
		jobRepo:         jobRepo,
		ingester:        ingester,
		locker:          locker,
		publisher:       publisher,
		queues:          queues,
		stopChan:        make(chan struct{}),
		maxJobTimeout:   opts.JobTimeout,
		lockTTL:         opts.LockTTL,
		retention:       opts.Retention,
		cleanupInterval: opts.CleanupInterval,
	}
}

// ========== WORKER LIFECYCLE ==========

func (w *IngestionJobWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	for i := range w.queues {
		w.wg.Add(1)
		go w.worker(i)
	}

	w.wg.Add(1)
	go w.recoverPendingJobs()

	w.wg.Add(1)
	go w.cleanupRoutine()

	logging.Info().Int("workers", len(w.queues)).Msg("Ingestion job worker started")
}

func (w *IngestionJobWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	logging.Info().Msg("Ingestion job worker stopped")
}

// CreateJob records a pending job for an archive already staged at path and
// queues it.
func (w *IngestionJobWorker) CreateJob(userID uint, path string) (*models.IngestionJob, error) {
	job := &models.IngestionJob{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      models.JobStatusPending,
		Step:        models.JobStepQueued,
		ArchivePath: path,
	}
	if err := w.jobRepo.SaveJob(job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	if err := w.SubmitJob(models.IngestionJobRequest{JobID: job.ID, UserID: userID, ArchivePath: path}); err != nil {
		return job, err
	}
	return job, nil
}

// SubmitJob queues a job on the worker that owns its user.
func (w *IngestionJobWorker) SubmitJob(req models.IngestionJobRequest) error {
	w.mu.RLock()
	if !w.running {
		w.mu.RUnlock()
		return ErrWorkerStopped
	}
	w.mu.RUnlock()

	select {
	case w.queueFor(req.UserID) <- req:
		return nil
	case <-time.After(5 * time.Second):
		return ErrQueueFull
	}
}

func (w *IngestionJobWorker) queueFor(userID uint) chan models.IngestionJobRequest {
	return w.queues[int(userID%uint(len(w.queues)))]
}

// ========== WORKER IMPLEMENTATION ==========

func (w *IngestionJobWorker) worker(workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case req := <-w.queues[workerID]:
			w.processJob(req)
		}
	}
}

func (w *IngestionJobWorker) processJob(req models.IngestionJobRequest) {
	log := logging.With().Str("job_id", req.JobID).Uint("user_id", req.UserID).Logger()

	claimed, err := w.jobRepo.ClaimJob(req.JobID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to claim job")
		return
	}
	if !claimed {
		log.Debug().Msg("Job is no longer pending, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.maxJobTimeout)
	defer cancel()
	defer w.removeArchive(req.ArchivePath)

	if w.locker != nil {
		token := req.JobID
		ok, err := w.locker.AcquireIngestLock(ctx, req.UserID, token, w.lockTTL)
		if err != nil {
			w.fail(req, fmt.Errorf("failed to acquire ingest lock: %w", err))
			return
		}
		if !ok {
			w.fail(req, ErrIngestLocked)
			return
		}
		defer func() {
			if err := w.locker.ReleaseIngestLock(context.Background(), req.UserID, token); err != nil {
				log.Warn().Err(err).Msg("Failed to release ingest lock")
			}
		}()
	}

	onStep := func(step string) {
		if err := w.jobRepo.UpdateJobStep(req.JobID, step); err != nil {
			log.Warn().Err(err).Str("step", step).Msg("Failed to update job step")
		}
	}

	result, err := w.ingester.IngestArchive(ctx, req.UserID, req.ArchivePath, onStep)
	if err != nil {
		w.fail(req, err)
		return
	}

	job, err := w.jobRepo.GetJobByID(req.JobID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reload job")
		return
	}
	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.Step = models.JobStepDone
	job.ActivityRows = result.ActivityRows
	job.WorkoutRows = result.WorkoutRows
	job.ExerciseRows = result.ExerciseRows
	job.DroppedRows = result.Dropped
	job.CompletedAt = &now
	if len(result.Warnings) > 0 {
		if raw, err := json.Marshal(result.Warnings); err == nil {
			job.Warnings = datatypes.JSON(raw)
		}
	}
	if err := w.jobRepo.UpdateJob(job); err != nil {
		log.Error().Err(err).Msg("Failed to store job result")
		return
	}

	metrics.RecordJob(models.JobStatusCompleted)
	metrics.RecordIngestSuccess(now)
	w.publish(messaging.IngestionEvent{
		JobID:        req.JobID,
		UserID:       req.UserID,
		Status:       models.JobStatusCompleted,
		ActivityRows: result.ActivityRows,
		WorkoutRows:  result.WorkoutRows,
		ExerciseRows: result.ExerciseRows,
		DroppedRows:  result.Dropped,
		Warnings:     len(result.Warnings),
		OccurredAt:   now,
	})
}

func (w *IngestionJobWorker) fail(req models.IngestionJobRequest, cause error) {
	errMsg := cause.Error()
	logging.Error().Err(cause).Str("job_id", req.JobID).Uint("user_id", req.UserID).Msg("Ingestion job failed")

	if err := w.jobRepo.UpdateJobStatus(req.JobID, models.JobStatusFailed, &errMsg); err != nil {
		logging.Error().Err(err).Str("job_id", req.JobID).Msg("Failed to mark job failed")
	}
	metrics.RecordJob(models.JobStatusFailed)
	w.publish(messaging.IngestionEvent{
		JobID:      req.JobID,
		UserID:     req.UserID,
		Status:     models.JobStatusFailed,
		Error:      errMsg,
		OccurredAt: time.Now(),
	})
}

func (w *IngestionJobWorker) publish(event messaging.IngestionEvent) {
	if err := w.publisher.PublishIngestion(event); err != nil {
		logging.Warn().Err(err).Str("job_id", event.JobID).Msg("Failed to publish ingestion event")
	}
}

func (w *IngestionJobWorker) removeArchive(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Str("path", path).Msg("Failed to remove staged archive")
	}
}

// ========== MAINTENANCE ==========

// recoverPendingJobs re-queues jobs left pending by a previous process.
func (w *IngestionJobWorker) recoverPendingJobs() {
	defer w.wg.Done()

	jobs, err := w.jobRepo.GetPendingJobs(100)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load pending jobs")
		return
	}

	for _, job := range jobs {
		select {
		case <-w.stopChan:
			return
		default:
		}
		req := models.IngestionJobRequest{JobID: job.ID, UserID: job.UserID, ArchivePath: job.ArchivePath}
		if err := w.SubmitJob(req); err != nil {
			logging.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to re-queue pending job")
		}
	}
	if len(jobs) > 0 {
		logging.Info().Int("jobs", len(jobs)).Msg("Recovered pending ingestion jobs")
	}
}

func (w *IngestionJobWorker) cleanupRoutine() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if _, err := w.jobRepo.CleanupOldJobs(time.Now().Add(-w.retention)); err != nil {
				logging.Error().Err(err).Msg("Failed to clean up old jobs")
			}
		}
	}
}

// GetJobStatus returns a job if it belongs to userID.
func (w *IngestionJobWorker) GetJobStatus(jobID string, userID uint) (*models.IngestionJob, error) {
	job, err := w.jobRepo.GetJobByID(jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrJobNotOwned
	}
	return job, nil
}
