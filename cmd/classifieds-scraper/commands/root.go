package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/scrapeerr"
)

const defaultConfigPath = "configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "classifieds-scraper",
	Short:         "classifieds-scraper submits a classifieds search and saves the listings.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to the YAML config file.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env, then the config file. A missing file at the default
// path falls back to the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, scrapeerr.NewConfiguration("failed to load .env", err)
	}

	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			cfg := config.Default()
			cfg.ApplyEnv()
			if err := cfg.Validate(); err != nil {
				return nil, scrapeerr.NewConfiguration("invalid default config", err)
			}
			return cfg, nil
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, scrapeerr.NewConfiguration(configPath, err)
	}
	return cfg, nil
}
