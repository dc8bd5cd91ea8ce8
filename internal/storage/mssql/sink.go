package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"classifieds-scraper/internal/checksum"
	"classifieds-scraper/internal/observability"
	"classifieds-scraper/internal/scrapeerr"
	"classifieds-scraper/internal/storage"
)

const createTableSQL = `
	IF OBJECT_ID(N'TblListings', N'U') IS NULL
	CREATE TABLE TblListings (
		[UID]      BIGINT IDENTITY(1,1) PRIMARY KEY,
		[RunAt]    DATETIME2 NOT NULL,
		[Position] INT NOT NULL,
		[Name]     NVARCHAR(1024) NOT NULL,
		[URL]      NVARCHAR(2048) NOT NULL,
		[Price]    NVARCHAR(64) NOT NULL,
		[Location] NVARCHAR(256) NOT NULL,
		[CheckSum] CHAR(64) NOT NULL
	);
`

const insertSQL = `
	INSERT INTO TblListings ([RunAt], [Position], [Name], [URL], [Price], [Location], [CheckSum])
	VALUES (@RunAt, @Position, @Name, @URL, @Price, @Location, @CheckSum);
`

// Sink appends each run's rows to TblListings.
type Sink struct {
	db             *sql.DB
	commandTimeout time.Duration
	checksum       *checksum.Generator
	logger         *observability.Logger
	now            func() time.Time
}

var _ storage.Sink = (*Sink)(nil)

func NewSink(ctx context.Context, dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Sink, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, scrapeerr.NewStorage("failed to open database", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, scrapeerr.NewStorage("failed to ping database", err)
	}

	return &Sink{
		db:             db,
		commandTimeout: commandTimeout,
		checksum:       checksum.NewGenerator(),
		logger:         logger,
		now:            time.Now,
	}, nil
}

// EnsureSchema creates TblListings when it does not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return scrapeerr.NewStorage("failed to ensure schema", err)
	}
	return nil
}

// Write inserts every row in one transaction; either all rows land or none.
func (s *Sink) Write(ctx context.Context, table storage.Table) error {
	if len(table.Rows) == 0 {
		s.logger.Warn("No listings to write")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return scrapeerr.NewStorage("failed to begin transaction", err)
	}
	defer func() {
		// no-op after Commit
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return scrapeerr.NewStorage("failed to prepare statement", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			s.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	runAt := s.now().UTC()
	for i, row := range table.Rows {
		args, err := s.rowArgs(runAt, i, row)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return scrapeerr.NewStorage(fmt.Sprintf("failed to insert row %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return scrapeerr.NewStorage("failed to commit", err)
	}

	s.logger.Info("Listings saved",
		"table", "TblListings",
		"rows", len(table.Rows),
	)
	return nil
}

func (s *Sink) rowArgs(runAt time.Time, position int, row []string) ([]any, error) {
	if len(row) != 4 {
		return nil, scrapeerr.NewStorage(fmt.Sprintf("row %d has %d cells, expected 4", position, len(row)), nil)
	}
	return []any{
		sql.Named("RunAt", runAt),
		sql.Named("Position", position),
		sql.Named("Name", row[0]),
		sql.Named("URL", row[1]),
		sql.Named("Price", row[2]),
		sql.Named("Location", row[3]),
		sql.Named("CheckSum", s.checksum.RowHash(row)),
	}, nil
}

func (s *Sink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
