package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"classifieds-scraper/internal/config"
	"classifieds-scraper/internal/fetcher"
	"classifieds-scraper/internal/form"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
	"classifieds-scraper/internal/scraper"
	"classifieds-scraper/internal/storage"
)

// Pipeline runs one search: fetch the search page, submit the search form,
// extract listings and write the result table once.
type Pipeline struct {
	cfg       *config.Config
	logger    *observability.Logger
	fetcher   *fetcher.Fetcher
	submitter *form.Submitter
	extractor *scraper.Extractor
	sink      storage.Sink
}

func NewPipeline(
	cfg *config.Config,
	logger *observability.Logger,
	f *fetcher.Fetcher,
	sub *form.Submitter,
	ex *scraper.Extractor,
	sink storage.Sink,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		fetcher:   f,
		submitter: sub,
		extractor: ex,
		sink:      sink,
	}
}

// NewFromConfig wires the default fetcher, submitter, extractor and sink for cfg.
// progress receives one location per extracted listing and may be nil. Close the
// pipeline when done.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *observability.Logger, progress io.Writer) (*Pipeline, error) {
	f, err := fetcher.NewFetcher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	sink, err := OpenSink(ctx, cfg, logger)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	sub := form.NewSubmitter(f, form.FieldNames{
		Query:    cfg.Search.Fields.Query,
		MinPrice: cfg.Search.Fields.MinPrice,
		MaxPrice: cfg.Search.Fields.MaxPrice,
	}, logger)

	ex := scraper.NewExtractor(cfg.Selectors, cfg.BaseURL, logger)
	if progress != nil {
		ex.SetProgress(progress)
	}

	return NewPipeline(cfg, logger, f, sub, ex, sink), nil
}

type RunStats struct {
	Requests int
	Nodes    int
	Listings int
	Skipped  int
	// MissingLinks counts skipped nodes that had no title link.
	MissingLinks int
	Output       string
	Duration     time.Duration
}

// Run executes the pipeline. Any failure aborts the run and is tagged with the
// stage it happened in; nothing is written unless extraction completed.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	started := time.Now()
	stats := &RunStats{Output: OutputName(p.cfg)}

	p.logger.Info("Starting run",
		"target_url", p.cfg.TargetURL,
		"form_id", p.cfg.Search.FormID,
		"query", p.cfg.Search.Query,
		"min_price", p.cfg.Search.MinPrice,
		"max_price", p.cfg.Search.MaxPrice,
		"output", stats.Output,
	)

	finish := func(err error) (*RunStats, error) {
		stats.Requests = p.fetcher.Requests()
		stats.Duration = time.Since(started)
		if err != nil {
			p.logger.Error("Run failed",
				"stage", scrapeerr.StageOf(err),
				"requests", stats.Requests,
				"error", err.Error(),
			)
		}
		return stats, err
	}

	searchPage, err := p.fetcher.Fetch(ctx, p.cfg.TargetURL)
	if err != nil {
		return finish(scrapeerr.WithStage(scrapeerr.StageFetch, err))
	}

	params := form.SearchParameters{
		Query:    p.cfg.Search.Query,
		MinPrice: p.cfg.Search.MinPrice,
		MaxPrice: p.cfg.Search.MaxPrice,
	}
	resultsPage, err := p.submitter.Submit(ctx, searchPage, p.cfg.Search.FormID, params)
	if err != nil {
		return finish(scrapeerr.WithStage(scrapeerr.StageSubmit, err))
	}

	result := p.extractor.ExtractAll(resultsPage)
	stats.Nodes = result.Nodes
	stats.Listings = len(result.Listings)
	stats.Skipped = len(result.Skipped)
	for _, s := range result.Skipped {
		if s.IsMissingLink() {
			stats.MissingLinks++
		}
	}

	if err := ctx.Err(); err != nil {
		return finish(scrapeerr.WithStage(scrapeerr.StageExtract, err))
	}

	if err := p.sink.Write(ctx, storage.NewTable(result.Listings)); err != nil {
		return finish(scrapeerr.WithStage(scrapeerr.StageWrite, err))
	}

	stats, err = finish(nil)
	p.logger.Info("Run completed",
		"requests", stats.Requests,
		"nodes", stats.Nodes,
		"listings", stats.Listings,
		"skipped", stats.Skipped,
		"missing_links", stats.MissingLinks,
		"output", stats.Output,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return stats, err
}

// Close releases the fetcher's transport and the sink.
func (p *Pipeline) Close() error {
	fetchErr := p.fetcher.Close()
	sinkErr := p.sink.Close()
	if fetchErr != nil {
		return fetchErr
	}
	return sinkErr
}
