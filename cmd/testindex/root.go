package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"testretriever/internal/cache"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	flagConfig  string
	flagVerbose bool
	flagVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "testindex",
	Short: "Build and query a semantic index of test functions",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagVersion {
			fmt.Printf("testindex\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", cache.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", cache.DriverName)
			return nil
		}
		return cmd.Help()
	},
}

func Execute() {
	// A .env file is optional; a missing one is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogger routes structured logs to stderr so stdout stays free for
// command output.
func setupLogger() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to YAML configuration")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagVersion, "version", false, "print version information")
}
