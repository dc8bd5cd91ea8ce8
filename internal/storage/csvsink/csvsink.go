package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
	"classifieds-scraper/internal/storage"
)

// Sink writes the result table to a CSV file, replacing any previous content.
type Sink struct {
	path   string
	logger *observability.Logger
}

var _ storage.Sink = (*Sink)(nil)

func New(path string, logger *observability.Logger) *Sink {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Sink{path: path, logger: logger}
}

// Write creates the output directory if needed and writes header plus rows.
// The file is closed on every path.
func (s *Sink) Write(ctx context.Context, table storage.Table) (err error) {
	if err := ctx.Err(); err != nil {
		return scrapeerr.NewStorage("write cancelled", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return scrapeerr.NewStorage("could not create output dir", err)
		}
	}

	file, err := os.Create(s.path)
	if err != nil {
		return scrapeerr.NewStorage("could not create file", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = scrapeerr.NewStorage("could not close file", closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(table.Records()); err != nil {
		return scrapeerr.NewStorage(fmt.Sprintf("csv write error: %s", s.path), err)
	}

	s.logger.Info("Listings saved",
		"path", s.path,
		"rows", len(table.Rows),
	)
	return nil
}

func (s *Sink) Close() error {
	return nil
}
