package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"healthtrends/internal/aggregate"
	"healthtrends/internal/cache"
	"healthtrends/internal/healthexport"
	"healthtrends/internal/logging"
	"healthtrends/internal/metrics"
	"healthtrends/internal/models"
	"healthtrends/internal/repository"
	"healthtrends/internal/transform"
)

var ErrUserNotFound = errors.New("user not found")

// SummaryCache stores rendered summaries per user.
type SummaryCache interface {
	Generation(ctx context.Context, userID uint) (int64, error)
	GetSummary(ctx context.Context, key cache.SummaryKey) (*aggregate.Summary, bool, error)
	SetSummary(ctx context.Context, key cache.SummaryKey, summary aggregate.Summary, ttl time.Duration) error
	InvalidateUser(ctx context.Context, userID uint) error
}

// IngestionResult describes a finished run.
type IngestionResult struct {
	UserID       uint
	ActivityRows int
	WorkoutRows  int
	ExerciseRows int
	Dropped      int
	Reports      []transform.Report
	Warnings     []transform.Warning
}

// StepFunc is told about each stage as it starts.
type StepFunc func(step string)

// IngestionService runs extract, build and load for one export. Callers
// must serialise runs per user.
type IngestionService struct {
	users repository.UserRepository
	data  repository.HealthDataRepository
	cache SummaryCache
	now   func() time.Time
}

func NewIngestionService(users repository.UserRepository, data repository.HealthDataRepository, cache SummaryCache) *IngestionService {
	return &IngestionService{users: users, data: data, cache: cache, now: time.Now}
}

// IngestArchive ingests the export inside the zip archive at path.
func (s *IngestionService) IngestArchive(ctx context.Context, userID uint, path string, onStep StepFunc) (*IngestionResult, error) {
	archive, err := healthexport.OpenArchive(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	export, err := archive.Export()
	if err != nil {
		return nil, err
	}
	defer export.Close()

	return s.Ingest(ctx, userID, export, onStep)
}

// Ingest reads an export.xml stream and replaces the user's rows with its
// contents. Nothing is written unless extraction and building both succeed.
func (s *IngestionService) Ingest(ctx context.Context, userID uint, export io.Reader, onStep StepFunc) (*IngestionResult, error) {
	if onStep == nil {
		onStep = func(string) {}
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	log := logging.With().Uint("user_id", userID).Logger()

	onStep(models.JobStepExtracting)
	done := metrics.Timer("extract")
	batch, err := healthexport.ExtractAll(export)
	done()
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("activity_summaries", len(batch.ActivitySummaries)).
		Int("workout_events", len(batch.WorkoutEvents)).
		Int("workouts", len(batch.Workouts)).
		Msg("Export extracted")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	onStep(models.JobStepBuilding)
	done = metrics.Timer("build")
	tables := transform.Build(batch, transform.Stamp{UserID: userID, UpdatedBy: user.Name, At: s.now()})
	done()
	for _, r := range tables.Reports {
		metrics.RecordRows(r.Table, r.Kept, r.Dropped, len(r.Warnings))
	}
	warnings := tables.Warnings()
	if len(warnings) > 0 {
		log.Warn().Int("cells", len(warnings)).Msg("Unparsable numeric cells stored as zero")
	}

	onStep(models.JobStepLoading)
	done = metrics.Timer("load")
	err = s.data.ReplaceAll(ctx, userID, repository.UserRows{
		ActivitySummaries: tables.ActivitySummaries,
		Workouts:          tables.Workouts,
		ExerciseTimes:     tables.ExerciseTimes,
	})
	done()
	if err != nil {
		return nil, fmt.Errorf("failed to replace rows: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, userID); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate summary cache")
		}
	}

	result := &IngestionResult{
		UserID:       userID,
		ActivityRows: len(tables.ActivitySummaries),
		WorkoutRows:  len(tables.Workouts),
		ExerciseRows: len(tables.ExerciseTimes),
		Dropped:      tables.Dropped(),
		Reports:      tables.Reports,
		Warnings:     warnings,
	}
	log.Info().
		Int("activity_rows", result.ActivityRows).
		Int("workout_rows", result.WorkoutRows).
		Int("exercise_rows", result.ExerciseRows).
		Int("dropped", result.Dropped).
		Msg("Ingestion completed")
	return result, nil
}
