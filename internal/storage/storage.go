package storage

import (
	"context"

	"classifieds-scraper/internal/scraper"
)

// Table is the tabular result of a run: a header followed by one row per listing.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable builds the result table for listings, in order.
func NewTable(listings []scraper.Listing) Table {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, l.Row())
	}
	header := make([]string, len(scraper.Header))
	copy(header, scraper.Header)
	return Table{Header: header, Rows: rows}
}

// Records returns the header followed by the rows.
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Header)
	return append(records, t.Rows...)
}

// Sink persists a result table. Write is called once per run.
type Sink interface {
	Write(ctx context.Context, table Table) error
	Close() error
}
