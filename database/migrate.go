package database

import (
	"gorm.io/gorm"

	"healthtrends/internal/logging"
	"healthtrends/internal/models"
)

func MigrateDatabase(db *gorm.DB) error {
	logging.Info().Msg("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.ActivitySummary{},
		&models.Workout{},
		&models.ExerciseTime{},
		&models.IngestionJob{},
	)
	if err != nil {
		logging.Error().Err(err).Msg("Error during migration")
		return err
	}

	logging.Info().Msg("Database migrations completed successfully")
	return nil
}
