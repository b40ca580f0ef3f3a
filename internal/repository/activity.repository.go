package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"healthtrends/internal/models"
)

// TableKind names one of the per-user health tables.
type TableKind int

const (
	TableActivitySummary TableKind = iota + 1
	TableWorkout
	TableExerciseTime
)

func (k TableKind) String() string {
	switch k {
	case TableActivitySummary:
		return "activity_data"
	case TableWorkout:
		return "workout_data"
	case TableExerciseTime:
		return "exercise_time"
	default:
		return fmt.Sprintf("table(%d)", int(k))
	}
}

func (k TableKind) model() (any, error) {
	switch k {
	case TableActivitySummary:
		return &models.ActivitySummary{}, nil
	case TableWorkout:
		return &models.Workout{}, nil
	case TableExerciseTime:
		return &models.ExerciseTime{}, nil
	}
	return nil, fmt.Errorf("unknown table kind %d", int(k))
}

// UserRows is one user's complete replacement data set.
type UserRows struct {
	ActivitySummaries []models.ActivitySummary
	Workouts          []models.Workout
	ExerciseTimes     []models.ExerciseTime
}

// HealthDataRepository is the load/replace sink and the query-time source
// for ingested rows. Every replace deletes the user's existing rows and
// inserts the new ones inside one transaction, so readers observe either
// the old set or the new one.
type HealthDataRepository interface {
	ReplaceAll(ctx context.Context, userID uint, rows UserRows) error

	ReadActivitySummaries(ctx context.Context, userID uint) ([]models.ActivitySummary, error)
	ReadWorkouts(ctx context.Context, userID uint) ([]models.Workout, error)
	ReadExerciseTimes(ctx context.Context, userID uint) ([]models.ExerciseTime, error)

	CountRows(ctx context.Context, kind TableKind, userID uint) (int64, error)
}

const insertBatchSize = 500

type healthDataRepository struct {
	db *gorm.DB
}

func NewHealthDataRepository(db *gorm.DB) HealthDataRepository {
	return &healthDataRepository{db}
}

// replaceUserRows swaps userID's rows of type T for rows within tx.
func replaceUserRows[T any](tx *gorm.DB, userID uint, rows []T) error {
	var zero T
	if err := tx.Where("user_id = ?", userID).Delete(&zero).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, insertBatchSize).Error
}

func readUserRows[T any](db *gorm.DB, userID uint) ([]T, error) {
	var rows []T
	err := db.Where("user_id = ?", userID).Order("date ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// ReplaceAll replaces all three tables in a single transaction.
func (r *healthDataRepository) ReplaceAll(ctx context.Context, userID uint, rows UserRows) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := replaceUserRows(tx, userID, rows.ActivitySummaries); err != nil {
			return fmt.Errorf("replace %s: %w", TableActivitySummary, err)
		}
		if err := replaceUserRows(tx, userID, rows.ExerciseTimes); err != nil {
			return fmt.Errorf("replace %s: %w", TableExerciseTime, err)
		}
		if err := replaceUserRows(tx, userID, rows.Workouts); err != nil {
			return fmt.Errorf("replace %s: %w", TableWorkout, err)
		}
		return nil
	})
}

func (r *healthDataRepository) ReadActivitySummaries(ctx context.Context, userID uint) ([]models.ActivitySummary, error) {
	return readUserRows[models.ActivitySummary](r.db.WithContext(ctx), userID)
}

func (r *healthDataRepository) ReadWorkouts(ctx context.Context, userID uint) ([]models.Workout, error) {
	return readUserRows[models.Workout](r.db.WithContext(ctx), userID)
}

func (r *healthDataRepository) ReadExerciseTimes(ctx context.Context, userID uint) ([]models.ExerciseTime, error) {
	return readUserRows[models.ExerciseTime](r.db.WithContext(ctx), userID)
}

func (r *healthDataRepository) CountRows(ctx context.Context, kind TableKind, userID uint) (int64, error) {
	model, err := kind.model()
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.WithContext(ctx).Model(model).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
