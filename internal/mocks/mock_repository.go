package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"healthtrends/internal/aggregate"
	"healthtrends/internal/cache"
	"healthtrends/internal/messaging"
	"healthtrends/internal/models"
	"healthtrends/internal/repository"
)

// Shared MockUserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockHealthDataRepository
type MockHealthDataRepository struct {
	mock.Mock
}

func (m *MockHealthDataRepository) ReplaceAll(ctx context.Context, userID uint, rows repository.UserRows) error {
	args := m.Called(ctx, userID, rows)
	return args.Error(0)
}

func (m *MockHealthDataRepository) ReadActivitySummaries(ctx context.Context, userID uint) ([]models.ActivitySummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.ActivitySummary), args.Error(1)
}

func (m *MockHealthDataRepository) ReadWorkouts(ctx context.Context, userID uint) ([]models.Workout, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Workout), args.Error(1)
}

func (m *MockHealthDataRepository) ReadExerciseTimes(ctx context.Context, userID uint) ([]models.ExerciseTime, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.ExerciseTime), args.Error(1)
}

func (m *MockHealthDataRepository) CountRows(ctx context.Context, kind repository.TableKind, userID uint) (int64, error) {
	args := m.Called(ctx, kind, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockIngestionJobRepository
type MockIngestionJobRepository struct {
	mock.Mock
}

func (m *MockIngestionJobRepository) SaveJob(job *models.IngestionJob) error {
	args := m.Called(job)
	return args.Error(0)
}

func (m *MockIngestionJobRepository) GetJobByID(id string) (*models.IngestionJob, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IngestionJob), args.Error(1)
}

func (m *MockIngestionJobRepository) UpdateJob(job *models.IngestionJob) error {
	args := m.Called(job)
	return args.Error(0)
}

func (m *MockIngestionJobRepository) UpdateJobStatus(jobID, status string, errorMessage *string) error {
	args := m.Called(jobID, status, errorMessage)
	return args.Error(0)
}

func (m *MockIngestionJobRepository) UpdateJobStep(jobID, step string) error {
	args := m.Called(jobID, step)
	return args.Error(0)
}

func (m *MockIngestionJobRepository) ClaimJob(jobID string) (bool, error) {
	args := m.Called(jobID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIngestionJobRepository) GetJobsByUserID(userID uint, limit int) ([]*models.IngestionJob, error) {
	args := m.Called(userID, limit)
	return args.Get(0).([]*models.IngestionJob), args.Error(1)
}

func (m *MockIngestionJobRepository) GetPendingJobs(limit int) ([]*models.IngestionJob, error) {
	args := m.Called(limit)
	return args.Get(0).([]*models.IngestionJob), args.Error(1)
}

func (m *MockIngestionJobRepository) GetActiveJobsCount(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockIngestionJobRepository) CleanupOldJobs(olderThan time.Time) (int64, error) {
	args := m.Called(olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockSummaryCache
type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Generation(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSummaryCache) GetSummary(ctx context.Context, key cache.SummaryKey) (*aggregate.Summary, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*aggregate.Summary), args.Bool(1), args.Error(2)
}

func (m *MockSummaryCache) SetSummary(ctx context.Context, key cache.SummaryKey, summary aggregate.Summary, ttl time.Duration) error {
	args := m.Called(ctx, key, summary, ttl)
	return args.Error(0)
}

func (m *MockSummaryCache) InvalidateUser(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockIngestLocker
type MockIngestLocker struct {
	mock.Mock
}

func (m *MockIngestLocker) AcquireIngestLock(ctx context.Context, userID uint, token string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, userID, token, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIngestLocker) ReleaseIngestLock(ctx context.Context, userID uint, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishIngestion(event messaging.IngestionEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
