package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"healthtrends/internal/messaging"
	"healthtrends/internal/mocks"
	"healthtrends/internal/models"
)

type stubIngester struct {
	result *IngestionResult
	err    error
	calls  chan string
}

func (s *stubIngester) IngestArchive(_ context.Context, _ uint, path string, onStep StepFunc) (*IngestionResult, error) {
	if onStep != nil {
		onStep(models.JobStepExtracting)
	}
	if s.calls != nil {
		s.calls <- path
	}
	return s.result, s.err
}

func stagedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staged.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip"), 0o600))
	return path
}

func TestProcessJobSuccess(t *testing.T) {
	jobs := new(mocks.MockIngestionJobRepository)
	locker := new(mocks.MockIngestLocker)
	pub := new(mocks.MockPublisher)
	ingester := &stubIngester{result: &IngestionResult{ActivityRows: 2, WorkoutRows: 1, ExerciseRows: 2, Dropped: 2}}

	req := models.IngestionJobRequest{JobID: "job-1", UserID: 7, ArchivePath: stagedFile(t)}

	locker.On("AcquireIngestLock", mock.Anything, uint(7), "job-1", 30*time.Minute).Return(true, nil)
	locker.On("ReleaseIngestLock", mock.Anything, uint(7), "job-1").Return(nil)
	jobs.On("ClaimJob", "job-1").Return(true, nil)
	jobs.On("UpdateJobStep", "job-1", models.JobStepExtracting).Return(nil)
	jobs.On("GetJobByID", "job-1").Return(&models.IngestionJob{ID: "job-1", UserID: 7}, nil)
	jobs.On("UpdateJob", mock.MatchedBy(func(j *models.IngestionJob) bool {
		return j.Status == models.JobStatusCompleted &&
			j.Step == models.JobStepDone &&
			j.ActivityRows == 2 &&
			j.DroppedRows == 2 &&
			j.CompletedAt != nil
	})).Return(nil)
	pub.On("PublishIngestion", mock.MatchedBy(func(e messaging.IngestionEvent) bool {
		return e.JobID == "job-1" && e.Status == models.JobStatusCompleted && e.WorkoutRows == 1
	})).Return(nil)

	w := NewIngestionJobWorker(jobs, ingester, locker, pub, WorkerOptions{})
	w.processJob(req)

	jobs.AssertExpectations(t)
	locker.AssertExpectations(t)
	pub.AssertExpectations(t)
	_, err := os.Stat(req.ArchivePath)
	assert.True(t, os.IsNotExist(err), "staged archive should be removed")
}

func TestProcessJobLockHeld(t *testing.T) {
	jobs := new(mocks.MockIngestionJobRepository)
	locker := new(mocks.MockIngestLocker)
	pub := new(mocks.MockPublisher)
	ingester := &stubIngester{calls: make(chan string, 1)}

	jobs.On("ClaimJob", "job-2").Return(true, nil)
	locker.On("AcquireIngestLock", mock.Anything, uint(7), "job-2", mock.Anything).Return(false, nil)
	jobs.On("UpdateJobStatus", "job-2", models.JobStatusFailed, mock.MatchedBy(func(msg *string) bool {
		return msg != nil && *msg == ErrIngestLocked.Error()
	})).Return(nil)
	pub.On("PublishIngestion", mock.MatchedBy(func(e messaging.IngestionEvent) bool {
		return e.RoutingKey() == messaging.RoutingIngestionFailed
	})).Return(nil)

	w := NewIngestionJobWorker(jobs, ingester, locker, pub, WorkerOptions{})
	w.processJob(models.IngestionJobRequest{JobID: "job-2", UserID: 7})

	assert.Empty(t, ingester.calls)
	jobs.AssertExpectations(t)
	locker.AssertNotCalled(t, "ReleaseIngestLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessJobIngestFailure(t *testing.T) {
	jobs := new(mocks.MockIngestionJobRepository)
	ingester := &stubIngester{err: errors.New("invalid archive: zip: not a valid zip file")}

	jobs.On("ClaimJob", "job-3").Return(true, nil)
	jobs.On("UpdateJobStep", "job-3", mock.Anything).Return(nil)
	jobs.On("UpdateJobStatus", "job-3", models.JobStatusFailed, mock.AnythingOfType("*string")).Return(nil)

	w := NewIngestionJobWorker(jobs, ingester, nil, nil, WorkerOptions{})
	w.processJob(models.IngestionJobRequest{JobID: "job-3", UserID: 1})

	jobs.AssertExpectations(t)
	jobs.AssertNotCalled(t, "UpdateJob", mock.Anything)
}

func TestProcessJobSkipsJobAlreadyClaimed(t *testing.T) {
	jobs := new(mocks.MockIngestionJobRepository)
	ingester := &stubIngester{calls: make(chan string, 2)}
	path := stagedFile(t)

	jobs.On("ClaimJob", "job-5").Return(true, nil).Once()
	jobs.On("ClaimJob", "job-5").Return(false, nil).Once()
	jobs.On("UpdateJobStep", "job-5", mock.Anything).Return(nil)
	jobs.On("GetJobByID", "job-5").Return(&models.IngestionJob{ID: "job-5", UserID: 9}, nil)
	jobs.On("UpdateJob", mock.Anything).Return(nil)
	ingester.result = &IngestionResult{ActivityRows: 1}

	w := NewIngestionJobWorker(jobs, ingester, nil, nil, WorkerOptions{})
	req := models.IngestionJobRequest{JobID: "job-5", UserID: 9, ArchivePath: path}
	w.processJob(req)
	w.processJob(req)

	assert.Len(t, ingester.calls, 1)
	jobs.AssertNumberOfCalls(t, "ClaimJob", 2)
	jobs.AssertNumberOfCalls(t, "UpdateJob", 1)
	jobs.AssertNotCalled(t, "UpdateJobStatus", "job-5", models.JobStatusFailed, mock.Anything)
}

func TestProcessJobClaimErrorLeavesArchive(t *testing.T) {
	jobs := new(mocks.MockIngestionJobRepository)
	ingester := &stubIngester{calls: make(chan string, 1)}
	path := stagedFile(t)

	jobs.On("ClaimJob", "job-6").Return(false, errors.New("connection reset"))

	w := NewIngestionJobWorker(jobs, ingester, nil, nil, WorkerOptions{})
	w.processJob(models.IngestionJobRequest{JobID: "job-6", UserID: 9, ArchivePath: path})

	assert.Empty(t, ingester.calls)
	assert.FileExists(t, path)
	jobs.AssertNotCalled(t, "UpdateJobStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitJobRequiresRunningWorker(t *testing.T) {
	w := NewIngestionJobWorker(new(mocks.MockIngestionJobRepository), &stubIngester{}, nil, nil, WorkerOptions{})
	err := w.SubmitJob(models.IngestionJobRequest{JobID: "x", UserID: 1})
	assert.ErrorIs(t, err, ErrWorkerStopped)
}

func TestUsersArePinnedToOneQueue(t *testing.T) {
	w := NewIngestionJobWorker(new(mocks.MockIngestionJobRepository), &stubIngester{}, nil, nil, WorkerOptions{WorkerCount: 4})
	assert.Equal(t, w.queueFor(6), w.queueFor(6))
	assert.Equal(t, w.queueFor(2), w.queueFor(6))
	assert.NotEqual(t, w.queueFor(1), w.queueFor(2))
}

func TestStartRecoversPendingJobs(t *testing.T) {
	jobs := new(mocks.MockIngestionJobRepository)
	ingester := &stubIngester{err: errors.New("boom"), calls: make(chan string, 1)}

	jobs.On("GetPendingJobs", 100).Return([]*models.IngestionJob{
		{ID: "job-4", UserID: 3, Status: models.JobStatusPending, ArchivePath: "/tmp/does-not-exist.zip"},
	}, nil)
	jobs.On("ClaimJob", "job-4").Return(true, nil)
	jobs.On("UpdateJobStatus", "job-4", mock.Anything, mock.Anything).Return(nil)
	jobs.On("UpdateJobStep", "job-4", mock.Anything).Return(nil)

	w := NewIngestionJobWorker(jobs, ingester, nil, nil, WorkerOptions{WorkerCount: 2})
	w.Start()
	defer w.Stop()

	select {
	case path := <-ingester.calls:
		assert.Equal(t, "/tmp/does-not-exist.zip", path)
	case <-time.After(5 * time.Second):
		t.Fatal("pending job was not re-queued")
	}
}

func TestCreateJob(t *testing.T) {
	jobs := new(mocks.MockIngestionJobRepository)
	jobs.On("SaveJob", mock.AnythingOfType("*models.IngestionJob")).Return(nil)

	w := NewIngestionJobWorker(jobs, &stubIngester{}, nil, nil, WorkerOptions{})
	job, err := w.CreateJob(4, "/uploads/a.zip")

	// The worker was never started, so the job is saved but not queued.
	assert.ErrorIs(t, err, ErrWorkerStopped)
	require.NotNil(t, job)
	assert.Len(t, job.ID, 36)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, "/uploads/a.zip", job.ArchivePath)
}

func TestGetJobStatusChecksOwner(t *testing.T) {
	jobs := new(mocks.MockIngestionJobRepository)
	jobs.On("GetJobByID", "job-5").Return(&models.IngestionJob{ID: "job-5", UserID: 1}, nil)

	w := NewIngestionJobWorker(jobs, &stubIngester{}, nil, nil, WorkerOptions{})
	_, err := w.GetJobStatus("job-5", 2)
	assert.ErrorIs(t, err, ErrJobNotOwned)

	job, err := w.GetJobStatus("job-5", 1)
	require.NoError(t, err)
	assert.Equal(t, "job-5", job.ID)
}
