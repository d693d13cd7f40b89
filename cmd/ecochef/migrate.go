package main

import (
	"fmt"

	"ecochef/internal/database"

	"github.com/spf13/cobra"
)

var dbPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dbPath
		if path == "" {
			path = defaultDBPath()
		}
		version, err := database.RunMigrations(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d\n", path, version)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite database, defaults to DATABASE_PATH")
	rootCmd.AddCommand(migrateCmd)
}
