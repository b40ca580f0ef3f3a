package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"healthtrends/internal/aggregate"
	"healthtrends/internal/repository"
	"healthtrends/internal/services"
)

var (
	summaryUserID  uint
	summaryDomain  string
	summaryAgg     string
	summaryKind    string
	summaryRecent  int
	summaryCurrent bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print an aggregated summary for a user as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if summaryUserID == 0 {
			return fmt.Errorf("--user-id is required")
		}
		q, err := aggregate.ParseQuery(summaryAgg, summaryKind, summaryRecent, summaryCurrent)
		if err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		svc := services.NewSummaryService(repository.NewHealthDataRepository(db), nil, 0)

		var summary *aggregate.Summary
		switch summaryDomain {
		case services.DomainActivity:
			summary, err = svc.ActivitySummary(cmd.Context(), summaryUserID, q)
		case services.DomainWorkout:
			summary, err = svc.WorkoutSummary(cmd.Context(), summaryUserID, q)
		default:
			return fmt.Errorf("unknown domain %q (want %s or %s)", summaryDomain, services.DomainActivity, services.DomainWorkout)
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	summaryCmd.Flags().UintVar(&summaryUserID, "user-id", 0, "User whose rows are summarised")
	summaryCmd.Flags().StringVar(&summaryDomain, "domain", services.DomainActivity, "activity or workout")
	summaryCmd.Flags().StringVar(&summaryAgg, "agg", "date", "date, week_start, month or year")
	summaryCmd.Flags().StringVar(&summaryKind, "kind", "move", "move, exercise or stand")
	summaryCmd.Flags().IntVar(&summaryRecent, "recent", 7, "Number of most recent buckets")
	summaryCmd.Flags().BoolVar(&summaryCurrent, "current", false, "Only the latest bucket")
	rootCmd.AddCommand(summaryCmd)
}
