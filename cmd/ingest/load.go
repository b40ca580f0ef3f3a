package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"healthtrends/internal/cache"
	"healthtrends/internal/logging"
	"healthtrends/internal/models"
	"healthtrends/internal/repository"
	"healthtrends/internal/services"
)

var (
	loadUserID     uint
	loadEmail      string
	loadName       string
	loadCreateUser bool
)

var loadCmd = &cobra.Command{
	Use:   "load <export.zip|export.xml>",
	Short: "Replace a user's rows with the contents of an export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		users := repository.NewUserRepository(db)

		user, err := resolveUser(users)
		if err != nil {
			return err
		}

		// With Redis configured the run takes the same per-user lock as the
		// API worker, so the two cannot replace one user's rows concurrently.
		var (
			summaryCache services.SummaryCache
			locker       services.IngestLocker
		)
		if cfg.RedisURL != "" {
			client, err := cache.NewRedisClient(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("redis is configured but unavailable, refusing to ingest without the user lock: %w", err)
			}
			defer client.Close()
			summaryCache = client
			locker = client
		} else {
			logging.Warn().Msg("REDIS_URL not set, ingestion is not serialised against the API worker")
		}

		data := repository.NewHealthDataRepository(db)
		svc := services.NewIngestionService(users, data, summaryCache)
		onStep := func(step string) {
			logging.Info().Str("step", step).Msg("Ingestion step")
		}

		path := args[0]
		result, err := withIngestLock(cmd.Context(), locker, user.ID, cfg.IngestLockTTL, func() (*services.IngestionResult, error) {
			result, err := ingestPath(cmd.Context(), svc, user.ID, path, onStep)
			if err != nil {
				return nil, err
			}
			return result, verifyStoredRows(cmd.Context(), data, result)
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User: %d (%s)\n", user.ID, user.Name)
		fmt.Fprintf(out, "activity_summary: %d rows\n", result.ActivityRows)
		fmt.Fprintf(out, "workout: %d rows\n", result.WorkoutRows)
		fmt.Fprintf(out, "exercise_time: %d rows\n", result.ExerciseRows)
		fmt.Fprintf(out, "Dropped before 2000-01-01: %d\n", result.Dropped)
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "warning: %s row %d column %s: %q stored as 0\n", w.Table, w.Row, w.Column, w.Value)
		}
		return nil
	},
}

func ingestPath(ctx context.Context, svc *services.IngestionService, userID uint, path string, onStep services.StepFunc) (*services.IngestionResult, error) {
	if !strings.EqualFold(filepath.Ext(path), ".xml") {
		return svc.IngestArchive(ctx, userID, path, onStep)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return svc.Ingest(ctx, userID, f, onStep)
}

// verifyStoredRows reads back the per-table counts after a load and fails
// when they differ from what the run reported writing.
func verifyStoredRows(ctx context.Context, data repository.HealthDataRepository, result *services.IngestionResult) error {
	want := []struct {
		kind repository.TableKind
		rows int
	}{
		{repository.TableActivitySummary, result.ActivityRows},
		{repository.TableWorkout, result.WorkoutRows},
		{repository.TableExerciseTime, result.ExerciseRows},
	}
	for _, w := range want {
		stored, err := data.CountRows(ctx, w.kind, result.UserID)
		if err != nil {
			return fmt.Errorf("count %s: %w", w.kind, err)
		}
		if stored != int64(w.rows) {
			return fmt.Errorf("%s holds %d rows for user %d after load, expected %d", w.kind, stored, result.UserID, w.rows)
		}
	}
	return nil
}

// withIngestLock runs ingest while holding the user's ingestion lock. The
// token is unique to this run. A nil locker runs ingest unguarded.
func withIngestLock(
	ctx context.Context,
	locker services.IngestLocker,
	userID uint,
	ttl time.Duration,
	ingest func() (*services.IngestionResult, error),
) (*services.IngestionResult, error) {
	if locker == nil {
		return ingest()
	}

	token := uuid.NewString()
	acquired, err := locker.AcquireIngestLock(ctx, userID, token, ttl)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: user %d", services.ErrIngestLocked, userID)
	}
	defer func() {
		if err := locker.ReleaseIngestLock(context.Background(), userID, token); err != nil {
			logging.Warn().Err(err).Uint("user_id", userID).Msg("Failed to release ingest lock")
		}
	}()

	return ingest()
}

func resolveUser(users repository.UserRepository) (*models.User, error) {
	if loadUserID != 0 {
		return users.GetUserByID(loadUserID)
	}
	if loadEmail == "" {
		return nil, fmt.Errorf("--user-id or --email is required")
	}

	user, err := users.GetUserByEmail(loadEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) || !loadCreateUser {
		return nil, err
	}

	name := loadName
	if name == "" {
		name = strings.SplitN(loadEmail, "@", 2)[0]
	}
	user = &models.User{Name: name, Email: loadEmail}
	if err := users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	logging.Info().Uint("user_id", user.ID).Str("name", name).Msg("Created user")
	return user, nil
}

func init() {
	loadCmd.Flags().UintVar(&loadUserID, "user-id", 0, "Owner of the ingested rows")
	loadCmd.Flags().StringVar(&loadEmail, "email", "", "Look the owner up by email instead of id")
	loadCmd.Flags().StringVar(&loadName, "name", "", "Name for a created user (defaults to the email local part)")
	loadCmd.Flags().BoolVar(&loadCreateUser, "create-user", false, "Create the user when --email is not found")
	rootCmd.AddCommand(loadCmd)
}
