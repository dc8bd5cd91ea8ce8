package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classifieds-scraper/internal/checksum"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
	"classifieds-scraper/internal/scraper"
	"classifieds-scraper/internal/storage"
)

func TestBuildBatch(t *testing.T) {
	s := &Sink{checksum: checksum.NewGenerator()}
	table := storage.NewTable([]scraper.Listing{
		{Name: "A", URL: "http://x/a", Price: "$1", Location: "SoMa"},
		{Name: "B", URL: "http://x/b", Price: "", Location: ""},
	})
	runAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	batch, err := s.buildBatch(runAt, table)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Len())

	first := batch.QueuedQueries[0]
	assert.Equal(t, insertSQL, first.SQL)
	assert.Equal(t, []any{runAt, 0, "A", "http://x/a", "$1", "SoMa", s.checksum.RowHash(table.Rows[0])}, first.Arguments)
	assert.Equal(t, 1, batch.QueuedQueries[1].Arguments[1])
}

func TestBuildBatchRejectsShortRow(t *testing.T) {
	s := &Sink{checksum: checksum.NewGenerator()}

	_, err := s.buildBatch(time.Now(), storage.Table{Rows: [][]string{{"a", "b"}}})
	assert.ErrorIs(t, err, scrapeerr.ErrStorage)
}

func TestWriteEmptyTableIsNoop(t *testing.T) {
	s := &Sink{checksum: checksum.NewGenerator(), logger: observability.Nop(), now: time.Now}

	assert.NoError(t, s.Write(context.Background(), storage.NewTable(nil)))
}

// Runs against a real server when SCRAPER_TEST_POSTGRES_DSN is set.
func TestSinkIntegration(t *testing.T) {
	dsn := os.Getenv("SCRAPER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCRAPER_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	sink, err := NewSink(ctx, dsn, 10*time.Second, observability.Nop())
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.EnsureSchema(ctx))
	table := storage.NewTable([]scraper.Listing{{Name: "A", URL: "http://x/a", Price: "$1", Location: "SoMa"}})
	require.NoError(t, sink.Write(ctx, table))
}
