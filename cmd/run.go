package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rifa/api"
	"rifa/application"
	"rifa/bot"
	"rifa/config"
	"rifa/database"
	"rifa/domain/interfaces"
	"rifa/infrastructure"
	"rifa/infrastructure/observability"
	"rifa/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	if err := SetupLogging(cfg); err != nil {
		return err
	}
	log.WithField("environment", cfg.Environment).Info("Starting rifa...")

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	// Purchase ledger is optional
	var db *database.DB
	var ledger interfaces.PurchaseLedgerRepository
	if cfg.LedgerEnabled() {
		log.Info("Running database migrations...")
		if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
			return err
		}

		log.Info("Connecting to database...")
		var err error
		db, err = database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		ledger = repository.NewPurchaseLedgerRepository(db)
		log.Info("Purchase ledger enabled")
	} else {
		log.Info("DATABASE_URL not set, purchase ledger disabled")
	}

	eventBus := infrastructure.NewEventBus()
	if err := application.RegisterApplicationSubscriptions(eventBus, application.NewPurchaseEventHandler(ledger, metrics)); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	var publisher interfaces.EventPublisher = eventBus
	if cfg.NATSEnabled() {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper(), eventBus, metrics)
		if err := natsPublisher.EnsureDomainEventStream(); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		publisher = natsPublisher
		log.WithField("servers", cfg.NATSServers).Info("Mirroring domain events to NATS")
	}

	timings := application.TimingsFromConfig(cfg)
	sessions := application.NewSessionManager(application.NewSessionFactory(cfg, publisher), timings)
	sessions.OnCountChange(metrics.UpdateActiveSessions)
	stopJanitor := sessions.StartJanitor(ctx, cfg.SessionJanitorInterval, cfg.SessionIdleTimeout)

	var discordBot *bot.Bot
	if cfg.DiscordEnabled {
		log.Info("Initializing Discord bot...")
		var err error
		discordBot, err = bot.New(bot.Config{
			Token:   cfg.DiscordToken,
			GuildID: cfg.GuildID,
		}, sessions, timings)
		if err != nil {
			stopJanitor()
			sessions.CloseAll()
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
		log.Info("Discord bot initialized successfully")
	}

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.HTTPEnabled {
		server = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(api.NewHandler(sessions, ledger)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Error shutting down HTTP server: %v", err)
		}
	}
	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.Errorf("Error closing Discord bot: %v", err)
		}
	}

	stopJanitor()
	sessions.CloseAll()

	if err := eventBus.Drain(shutdownCtx); err != nil {
		log.Warnf("Event handlers still running at shutdown: %v", err)
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Shutdown completed")
	return runErr
}
