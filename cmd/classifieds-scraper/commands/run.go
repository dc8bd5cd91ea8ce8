package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"classifieds-scraper/internal/app"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
)

var (
	runOutput   string
	runQuery    string
	runMinPrice float64
	runMaxPrice float64
)

func init() {
	runCmd.Flags().StringVar(&runOutput, "output", "", "CSV file to write (overrides storage.output_path).")
	runCmd.Flags().StringVar(&runQuery, "query", "", "Search text (overrides search.query).")
	runCmd.Flags().Float64Var(&runMinPrice, "min-price", 0, "Minimum asking price (overrides search.min_price).")
	runCmd.Flags().Float64Var(&runMaxPrice, "max-price", 0, "Maximum asking price (overrides search.max_price).")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--config <path>] [--output <file.csv>] [--query <text>] [--min-price <n>] [--max-price <n>]",
	Short: "Fetches the search page, submits the search form and writes the listings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("output") {
			cfg.Storage.OutputPath = runOutput
		}
		if flags.Changed("query") {
			cfg.Search.Query = runQuery
		}
		if flags.Changed("min-price") {
			cfg.Search.MinPrice = runMinPrice
		}
		if flags.Changed("max-price") {
			cfg.Search.MaxPrice = runMaxPrice
		}
		if err := cfg.Validate(); err != nil {
			return scrapeerr.NewConfiguration("invalid flags", err)
		}

		logger, err := observability.NewLogger(observability.Options{
			LogPath:    cfg.Observability.LogPath,
			LogLevel:   cfg.Observability.LogLevel,
			MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
			MaxBackups: cfg.Observability.LogMaxBackups,
			MaxAgeDays: cfg.Observability.LogMaxAgeDays,
			Console:    cfg.Observability.Console,
		})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Close()

		ctx, cancel := app.GracefulShutdown(cmd.Context(), logger, cfg.GetShutdownTimeout())
		defer cancel()

		pipeline, err := app.NewFromConfig(ctx, cfg, logger, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() {
			if err := pipeline.Close(); err != nil {
				logger.Warn("Failed to close pipeline", "error", err.Error())
			}
		}()

		stats, err := pipeline.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "saved %d listings to %s (%d skipped, %d without link, %d requests, %s)\n",
			stats.Listings, stats.Output, stats.Skipped, stats.MissingLinks, stats.Requests, stats.Duration.Round(time.Millisecond))
		return nil
	},
}
