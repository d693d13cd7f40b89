package main

import (
	"fmt"
	"os"

	"ecochef/internal/config"
	"ecochef/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile string
	log     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ecochef",
	Short: "ecochef turns the ingredients you have into a meal plan",
	Long: "ecochef generates multi-day meal plans with recipes and a shopping list " +
		"from the ingredients you already own. It serves the HTTP API, runs one-off " +
		"generations and manages the local database.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			fmt.Fprintf(cmd.ErrOrStderr(), "could not read %s: %v\n", envFile, err)
		}
		log = logger.New(getenv("LOG_LEVEL", "info"), getenv("LOG_FORMAT", "json"))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file to load before reading the environment")
}

// loadConfig reads the full application configuration. Commands that only
// touch the database take their paths from flags instead.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultDBPath mirrors the DATABASE_PATH default of the server config.
func defaultDBPath() string {
	if p := os.Getenv("DATABASE_PATH"); p != "" {
		return p
	}
	return getenv("DATA_DIR", "data") + "/ecochef.db"
}
