package commands

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"classifieds-scraper/internal/fetcher"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scraper"
	"classifieds-scraper/internal/storage"
)

var (
	extractFile    string
	extractBaseURL string
)

func init() {
	extractCmd.Flags().StringVar(&extractFile, "file", "", "Saved results page to extract from.")
	extractCmd.Flags().StringVar(&extractBaseURL, "base-url", "", "Prefix for listing links (overrides base_url).")
	_ = extractCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract --file <page.html> [--base-url <url>]",
	Short: "Extracts listings from a saved results page and prints them as CSV.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("base-url") {
			cfg.BaseURL = extractBaseURL
		}

		body, err := os.ReadFile(extractFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", extractFile, err)
		}

		page, err := fetcher.NewPage(cfg.BaseURL, http.StatusOK, body)
		if err != nil {
			return err
		}

		logger := observability.NewWriterLogger(cmd.ErrOrStderr(), levelOf(cfg.Observability.LogLevel))
		result := scraper.NewExtractor(cfg.Selectors, cfg.BaseURL, logger).ExtractAll(page)

		w := csv.NewWriter(cmd.OutOrStdout())
		if err := w.WriteAll(storage.NewTable(result.Listings).Records()); err != nil {
			return fmt.Errorf("csv write error: %w", err)
		}
		return nil
	},
}
