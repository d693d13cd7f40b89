package main

import (
	"fmt"
	"text/tabwriter"

	"ecochef/internal/database"
	"ecochef/internal/metrics"

	"github.com/spf13/cobra"
)

var (
	usageDays     int
	retentionDays int
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Inspect and prune recorded model usage",
}

var metricsUsageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show daily token usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsageStore(func(store *metrics.Store) error {
			usage, err := store.GetDailyUsage(cmd.Context(), usageDays)
			if err != nil {
				return err
			}
			if len(usage) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no usage recorded")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPROMPT\tCOMPLETION\tRUNS")
			for _, d := range usage {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
			}
			return tw.Flush()
		})
	},
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete usage records older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUsageStore(func(store *metrics.Store) error {
			n, err := store.Cleanup(cmd.Context(), retentionDays)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d records\n", n)
			return nil
		})
	},
}

func withUsageStore(fn func(*metrics.Store) error) error {
	path := dbPath
	if path == "" {
		path = defaultDBPath()
	}
	db, err := database.NewDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(metrics.NewStore(db.SQL))
}

func init() {
	metricsUsageCmd.Flags().IntVar(&usageDays, "days", 7, "Number of days to report")
	metricsCleanupCmd.Flags().IntVar(&retentionDays, "older-than", 30, "Retention window in days")
	metricsCmd.AddCommand(metricsUsageCmd, metricsCleanupCmd)
	rootCmd.AddCommand(metricsCmd)
}
