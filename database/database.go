package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"healthtrends/internal/config"
	"healthtrends/internal/logging"
	"healthtrends/internal/metrics"
)

// ConnectDatabase opens the postgres pool described by cfg.
func ConnectDatabase(cfg config.Config) (*gorm.DB, error) {
	return Open(cfg.DSN())
}

// Open connects to dsn, configures the pool and pings the server.
func Open(dsn string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(logging.Writer(), "", 0),
		logger.Config{
			SlowThreshold:             time.Millisecond * 500,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   newLogger,
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logging.Info().
		Int("max_open_conns", 50).
		Int("max_idle_conns", 10).
		Msg("Connected to database")

	return db, nil
}

// MonitorDBConnections publishes pool statistics every interval until stop
// is closed.
func MonitorDBConnections(db *gorm.DB, interval time.Duration, stop <-chan struct{}) {
	sqlDB, err := db.DB()
	if err != nil {
		logging.Warn().Err(err).Msg("DB pool monitor disabled")
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				stats := sqlDB.Stats()
				metrics.RecordDBPool(stats.InUse, stats.Idle, stats.OpenConnections)
				if stats.InUse > 40 {
					logging.Warn().
						Int("in_use", stats.InUse).
						Int("idle", stats.Idle).
						Int("open", stats.OpenConnections).
						Msg("DB connection pool near limit")
				}
			}
		}
	}()
}
