package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"classifieds-scraper/internal/checksum"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
	"classifieds-scraper/internal/storage"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS listings (
		id BIGSERIAL PRIMARY KEY,
		run_at TIMESTAMPTZ NOT NULL,
		position INT NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		price TEXT NOT NULL,
		location TEXT NOT NULL,
		checksum CHAR(64) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_listings_run_at ON listings(run_at);
	CREATE INDEX IF NOT EXISTS idx_listings_url ON listings(url);
`

const insertSQL = `
	INSERT INTO listings (run_at, position, name, url, price, location, checksum)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

// Sink appends each run's rows to the listings table in one batch.
type Sink struct {
	pool           *pgxpool.Pool
	commandTimeout time.Duration
	checksum       *checksum.Generator
	logger         *observability.Logger
	now            func() time.Time
}

var _ storage.Sink = (*Sink)(nil)

func NewSink(ctx context.Context, dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Sink, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, dsn)
	if err != nil {
		return nil, scrapeerr.NewStorage("failed to create postgres pool", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, scrapeerr.NewStorage("failed to connect postgres", err)
	}

	return &Sink{
		pool:           pool,
		commandTimeout: commandTimeout,
		checksum:       checksum.NewGenerator(),
		logger:         logger,
		now:            time.Now,
	}, nil
}

func (s *Sink) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return scrapeerr.NewStorage("failed to ensure schema", err)
	}
	return nil
}

// Write queues one insert per row and sends them as a single implicit
// transaction.
func (s *Sink) Write(ctx context.Context, table storage.Table) error {
	if len(table.Rows) == 0 {
		s.logger.Warn("No listings to write")
		return nil
	}

	batch, err := s.buildBatch(s.now().UTC(), table)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return scrapeerr.NewStorage(fmt.Sprintf("batch insert failed at row %d", i), err)
		}
	}

	s.logger.Info("Listings saved",
		"table", "listings",
		"rows", batch.Len(),
	)
	return nil
}

func (s *Sink) buildBatch(runAt time.Time, table storage.Table) (*pgx.Batch, error) {
	batch := &pgx.Batch{}
	for i, row := range table.Rows {
		if len(row) != 4 {
			return nil, scrapeerr.NewStorage(fmt.Sprintf("row %d has %d cells, expected 4", i, len(row)), nil)
		}
		batch.Queue(insertSQL, runAt, i, row[0], row[1], row[2], row[3], s.checksum.RowHash(row))
	}
	return batch, nil
}

func (s *Sink) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
