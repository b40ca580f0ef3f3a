package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"healthtrends/database"
	"healthtrends/internal/config"
	"healthtrends/internal/logging"
)

var (
	envFile  string
	logLevel string

	// cfg is loaded once per invocation in PersistentPreRunE.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "ingest loads Apple Health exports and prints activity summaries",
	Long: "ingest extracts an Apple Health export archive, replaces a user's stored " +
		"activity, workout and exercise rows, and prints aggregated summaries.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logging.Init(logging.Config{Level: level, Format: "console", Output: cmd.ErrOrStderr()})
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to a .env file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

// openDatabase connects and migrates using the environment configuration.
func openDatabase() (*gorm.DB, error) {
	db, err := database.ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateDatabase(db); err != nil {
		return nil, err
	}
	return db, nil
}
