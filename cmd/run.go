package cmd

import (
	"context"
	"fmt"

	"pennybid/config"

	log "github.com/sirupsen/logrus"
)

// Run starts the auction service and blocks until ctx is cancelled
func Run(ctx context.Context) error {
	log.Info("Starting pennybid...")

	cfg := config.Get()

	app, err := NewApp(ctx, cfg, EventsLive)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	app.StartWorkers(ctx)

	log.WithField("environment", cfg.Environment).Info("Auction service is running")
	<-ctx.Done()

	log.Info("Shutting down auction service...")
	return nil
}
