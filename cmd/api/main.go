package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-triage/internal/api/http"
	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/classifier"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/repository"
	"github.com/spec-kit/ticket-triage/internal/service"
	"github.com/spec-kit/ticket-triage/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger, repository.TicketMigrations()); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var ticketRepo repository.TicketRepository
	if pg.Configured() {
		ticketRepo = repository.NewPostgresTicketRepository(pg.PoolHandle())
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
	}

	var outcomeStore repository.OutcomeStore
	if redis.Configured() {
		outcomeStore = repository.NewRedisOutcomeStore(redis.Client, repository.WithOutcomePrefix(cfg.App.Name))
	} else {
		outcomeStore = repository.NewMemoryOutcomeStore()
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher, service.NewNotificationService(logger, cfg.Notification), logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	statsService := service.NewStatsService(ticketRepo)
	classificationService := service.NewClassificationService(newClassifierClient(cfg.Classifier, logger),
		service.WithClassifyTimeout(cfg.Classifier.Timeout()),
		service.WithRateLimit(cfg.Classifier.RateLimitRPS, cfg.Classifier.RateLimitBurst),
		service.WithOutcomeStore(outcomeStore),
		service.WithClassificationLogger(logger),
	)

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(httptransport.AppDependencies{
		Name:           cfg.App.Name,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
	}, httptransport.RouteConfig{
		Root:     handlers.NewRootHandler(cfg.App.Name, cfg.App.Version, metrics),
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:  handlers.NewTicketsHandler(ticketService),
		Stats:    handlers.NewStatsHandler(statsService),
		Classify: handlers.NewClassifyHandler(classificationService),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// newClassifierClient returns nil when no credential is configured so the
// classification service short-circuits to the default suggestion.
func newClassifierClient(cfg config.ClassifierConfig, logger *zap.Logger) classifier.Client {
	if !cfg.HasCredential() {
		logger.Warn("OPENAI_API_KEY not provided; classification will return the default suggestion")
		return nil
	}
	return classifier.NewOpenAI(cfg.APIKey,
		classifier.WithBaseURL(cfg.BaseURL),
		classifier.WithModel(cfg.Model),
		classifier.WithMaxTokens(cfg.MaxTokens),
	)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
