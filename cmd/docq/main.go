package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arkelov/docq/internal/client"
	"github.com/arkelov/docq/internal/config"
)

var version = "dev"

var (
	noColor        bool
	serverOverride string
)

var rootCmd = &cobra.Command{
	Use:           "docq",
	Short:         "Ask questions over your documents with source citations",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&serverOverride, "server", "", "backend base URL (overrides configured server.base_url)")

	rootCmd.AddCommand(
		askCmd,
		uploadCmd,
		linkCmd,
		ttsCmd,
		quizCmd,
		historyCmd,
		configCmd,
		devserverCmd,
		mcpCmd,
		versionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// setup loads config, initializes logging, and builds the API client.
func setup() (config.Config, *client.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("loading config: %w", err)
	}
	initLogging(cfg)
	if serverOverride != "" {
		cfg.Server.BaseURL = serverOverride
	}
	return cfg, client.New(cfg.Server.BaseURL), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the docq version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("docq version " + version)
	},
}

func initLogging(cfg config.Config) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}
