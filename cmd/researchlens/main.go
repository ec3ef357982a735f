package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/researchlens/internal/config"
	"github.com/TobiSchelling/researchlens/internal/logger"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	envFile    string
	cfg        *config.Config
	cfgSource  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "researchlens",
	Short:        "Multi-source research search with cited summaries",
	Long:         "researchlens fans a question out to web, encyclopedia, video and scholarly lookups and summarizes the results with numbered citations.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Setup("info", "text", verbose)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		var envPaths []string
		if envFile != "" {
			envPaths = append(envPaths, envFile)
		}
		if err := config.LoadEnv(envPaths...); err != nil {
			return err
		}

		path, err := config.ResolveConfigPath(configPath)
		switch {
		case err == nil:
			cfg, err = config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfgSource = path
		case configPath != "":
			return err
		default:
			cfg = config.Default()
			cfgSource = "built-in defaults"
		}

		logger.Setup(cfg.Logging.Level, cfg.Logging.Format, verbose)
		slog.Debug("configuration loaded", "source", cfgSource)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default ./.env)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(savedCmd)
	rootCmd.AddCommand(foldersCmd)
	rootCmd.AddCommand(exportCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("researchlens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/researchlens/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure search credentials, storage and summarization providers.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and storage status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config: %s\n", cfgSource)
		fmt.Printf("Storage driver: %s\n", cfg.Storage.Driver)

		fmt.Println("\nSummarization providers:")
		for i, p := range cfg.Summarization.Providers {
			key := "n/a"
			if p.APIKeyEnv != "" {
				key = "missing"
				if os.Getenv(p.APIKeyEnv) != "" {
					key = "set"
				}
			}
			fmt.Printf("  %d. %s %s (key %s)\n", i+1, p.Type, p.Model, key)
		}

		googleReady := os.Getenv(cfg.Search.Google.APIKeyEnv) != "" && os.Getenv(cfg.Search.Google.EngineIDEnv) != ""
		fmt.Println("\nSearch:")
		fmt.Printf("  Google Custom Search configured: %t\n", googleReady)
		fmt.Printf("  News lookup enabled: %t (%s)\n", cfg.Search.News.Enabled, cfg.Search.News.Backend)

		db, err := openStore(cmd.Context())
		if errors.Is(err, errStorageDisabled) {
			return nil
		}
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		fmt.Println("\nStorage:")
		fmt.Printf("  Searches recorded: %d\n", stats.Searches)
		fmt.Printf("  Users: %d\n", stats.Users)
		fmt.Printf("  Saved items: %d\n", stats.SavedItems)
		fmt.Printf("  Folders: %d\n", stats.Folders)
		if stats.LastSearchAt != "" {
			fmt.Printf("  Last search: %s\n", stats.LastSearchAt)
		}
		return nil
	},
}
