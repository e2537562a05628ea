package cmd

import (
	"context"
	"fmt"

	"pennybid/application"
	"pennybid/config"
	"pennybid/database"
	"pennybid/domain/interfaces"
	"pennybid/domain/services"
	"pennybid/infrastructure"
	"pennybid/infrastructure/clock"
	"pennybid/infrastructure/identity"
	"pennybid/infrastructure/memstore"
	"pennybid/infrastructure/observability"
	"pennybid/repository"

	log "github.com/sirupsen/logrus"
)

// EventMode selects where committed domain events go
type EventMode int

const (
	// EventsDiscard drops events. Used by one-shot commands.
	EventsDiscard EventMode = iota
	// EventsLive sends events to NATS when configured and always to in-process handlers
	EventsLive
)

// App holds the wired services of one process
type App struct {
	Config *config.Config

	UnitOfWork *infrastructure.UnitOfWorkFactory
	Wallets    *services.WalletService
	Engine     *services.BiddingEngine
	Refunds    *services.RefundService
	Auth       *services.AuthService
	Identity   interfaces.IdentityProvider
	Tokens     *identity.JWT
	Clock      interfaces.Clock

	db      *database.DB
	nats    *infrastructure.NATSClient
	metrics *observability.MetricsProvider
	stops   []func()
}

// NewApp connects the store and event transport and builds the services
func NewApp(ctx context.Context, cfg *config.Config, mode EventMode) (*App, error) {
	app := &App{
		Config: cfg,
		Clock:  clock.New(),
	}

	repoFactory, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}

	publisher, err := app.openEvents(ctx, mode)
	if err != nil {
		app.Close()
		return nil, err
	}

	var metrics interfaces.MetricsRecorder
	if mode == EventsLive {
		if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
			log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
		} else if mp := observability.GetMetrics(); mp != nil {
			app.metrics = mp
			metrics = mp
		}
	}

	app.UnitOfWork = infrastructure.NewUnitOfWorkFactory(repoFactory, publisher)
	app.Wallets = services.NewWalletService(app.UnitOfWork, metrics, cfg.MinTopUpAmount)
	app.Engine = services.NewBiddingEngine(app.UnitOfWork, app.Wallets, app.Clock, metrics, services.EngineConfig{
		OpTimeout: cfg.BidTimeout,
		BidRate:   cfg.BidRatePerSecond,
		BidBurst:  cfg.BidRateBurst,
	})
	app.Refunds = services.NewRefundService(app.UnitOfWork, app.Wallets, app.Clock, metrics, cfg.RefundRetryMaxElapsed)

	app.Tokens = identity.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	app.Identity = identity.NewTokenProvider(app.Tokens)
	app.Auth = services.NewAuthService(app.UnitOfWork, app.Wallets, app.Tokens, app.Identity)

	return app, nil
}

// openStore returns the unit of work source for the configured driver
func (a *App) openStore(ctx context.Context) (infrastructure.StoreFactory, error) {
	if a.Config.UseMemoryStore() {
		log.Warn("Using in-memory store, state is lost on exit")
		return memstore.New().WithClock(a.Clock), nil
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, a.Config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	log.Info("Database connection established successfully")

	return repository.NewUnitOfWorkFactory(db), nil
}

// openEvents builds the process-wide event publisher
func (a *App) openEvents(ctx context.Context, mode EventMode) (interfaces.EventPublisher, error) {
	if mode == EventsDiscard {
		return infrastructure.NewNoopEventPublisher(), nil
	}

	if a.Config.NATSServers == "" {
		log.Info("NATS_SERVERS not set, delivering events in-process only")
		return infrastructure.NewLocalEventPublisher(), nil
	}

	client := infrastructure.NewNATSClient(a.Config.NATSServers, a.Config.OTelServiceName)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	a.nats = client

	publisher := infrastructure.NewNATSEventPublisher(client, infrastructure.NewEventSubjectMapper())
	if err := publisher.EnsureDomainEventStream(); err != nil {
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}
	return publisher, nil
}

// StartWorkers launches the auction timer and the refund worker
func (a *App) StartWorkers(ctx context.Context) {
	timer := application.NewAuctionTimer(a.Engine, a.Refunds, a.Clock, a.Config.AuctionDiscoveryInterval)
	application.RegisterApplicationSubscriptions(a.UnitOfWork, timer)

	refundWorker := application.NewRefundWorker(a.Refunds, a.Clock, a.Config.RefundPollInterval)

	for _, w := range []application.Worker{timer, refundWorker} {
		a.stops = append(a.stops, w.Start(ctx))
	}
}

// Close stops workers and releases connections
func (a *App) Close() {
	for i := len(a.stops) - 1; i >= 0; i-- {
		a.stops[i]()
	}
	a.stops = nil

	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}

	if a.metrics != nil {
		if err := observability.ShutdownGlobalMetrics(context.Background()); err != nil {
			log.WithError(err).Warn("Error shutting down metrics")
		}
	}

	if a.db != nil {
		log.Info("Closing database connection...")
		a.db.Close()
	}
}
