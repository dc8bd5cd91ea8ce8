package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classifieds-scraper/internal/observability"
)

// GracefulShutdown returns a child of parent cancelled on SIGINT/SIGTERM or after
// shutdownTimeout, whichever comes first.
func GracefulShutdown(parent context.Context, logger *observability.Logger, shutdownTimeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, shutdownTimeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
