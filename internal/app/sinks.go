package app

import (
	"context"
	"fmt"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
	"classifieds-scraper/internal/storage"
	"classifieds-scraper/internal/storage/csvsink"
	"classifieds-scraper/internal/storage/mssql"
	"classifieds-scraper/internal/storage/postgres"
)

// OpenSink returns the sink selected by storage.driver. Database sinks connect and
// ensure their table exists.
func OpenSink(ctx context.Context, cfg *config.Config, logger *observability.Logger) (storage.Sink, error) {
	switch cfg.Storage.Driver {
	case "csv":
		return csvsink.New(cfg.Storage.OutputPath, logger), nil
	case "mssql":
		sink, err := mssql.NewSink(ctx, cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			return nil, err
		}
		if err := sink.EnsureSchema(ctx); err != nil {
			_ = sink.Close()
			return nil, err
		}
		return sink, nil
	case "postgres":
		sink, err := postgres.NewSink(ctx, cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			return nil, err
		}
		if err := sink.EnsureSchema(ctx); err != nil {
			_ = sink.Close()
			return nil, err
		}
		return sink, nil
	default:
		return nil, scrapeerr.NewConfiguration(fmt.Sprintf("unknown storage driver %q", cfg.Storage.Driver), nil)
	}
}

// OutputName describes where a run's table goes, for logs and stats.
func OutputName(cfg *config.Config) string {
	if cfg.Storage.Driver == "csv" {
		return cfg.Storage.OutputPath
	}
	return cfg.Storage.Driver
}
