package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alderburg/Teste-sub001/internal/adapter/billingapi"
	handlers "github.com/alderburg/Teste-sub001/internal/adapter/handler/http"
	"github.com/alderburg/Teste-sub001/internal/adapter/repository"
	"github.com/alderburg/Teste-sub001/internal/config"
	"github.com/alderburg/Teste-sub001/internal/domain/card"
	domainRepo "github.com/alderburg/Teste-sub001/internal/domain/repository"
	"github.com/alderburg/Teste-sub001/internal/infrastructure/database"
	grpcServer "github.com/alderburg/Teste-sub001/internal/infrastructure/grpc"
	httpServer "github.com/alderburg/Teste-sub001/internal/infrastructure/http"
	"github.com/alderburg/Teste-sub001/internal/infrastructure/metrics"
	"github.com/alderburg/Teste-sub001/internal/infrastructure/notify"
	"github.com/alderburg/Teste-sub001/internal/infrastructure/provider"
	"github.com/alderburg/Teste-sub001/internal/usecase"
	"github.com/alderburg/Teste-sub001/pkg/logger"
	"github.com/alderburg/Teste-sub001/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zapLogger = zapLogger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment),
	)

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}
	zapLogger.Info("Servers shut down successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	billing := billingapi.NewClient(cfg.Billing, logger)

	plans, err := repository.NewPlanCatalogFromFile(cfg.Flow.PlansFile, logger)
	if err != nil {
		return err
	}

	tokenizer, err := provider.NewFactory(cfg, billing, logger).GetTokenizerFromString(cfg.Flow.Tokenizer)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	// The audit trail is optional
	var events domainRepo.FlowEventRepository
	if cfg.Database.Enabled {
		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db, logger); err != nil {
				logger.Error("Failed to close database connection", zap.Error(err))
			}
		}()

		if err := database.Migrate(db, logger); err != nil {
			return err
		}
		events = database.NewRepositories(db, logger).FlowEvents
	}

	resolver := usecase.NewPaymentMethodResolver(billing, cfg.Flow.MethodCacheSize, cfg.Flow.MethodCacheTTL, logger)

	var (
		publisher usecase.EventPublisher = notify.NewLogPublisher(logger)
		listener  *notify.InvalidationListener
	)
	if cfg.Redis.Enabled {
		client, err := messaging.NewRedisClient(cfg.Redis.Options)
		if err != nil {
			return err
		}
		defer client.Close()

		publisher = notify.NewRedisPublisher(client, cfg.Redis.InvalidationChannel, cfg.Redis.NotificationChannel, logger)
		if cfg.Redis.InvalidationChannel != "" {
			listener = notify.NewInvalidationListener(client, cfg.Redis.InvalidationChannel, resolver, logger)
		}
	}

	auditor := usecase.NewFlowAuditor(events, 0, cfg.Flow.AuditWriteTimeout, logger)

	flows := usecase.NewFlowRegistry(usecase.FlowDependencies{
		Plans:     plans,
		Quoter:    usecase.NewProrationQuoter(billing, logger),
		Resolver:  resolver,
		Billing:   billing,
		Tokenizer: tokenizer,
		Publisher: publisher,
		Auditor:   auditor,
		Observer:  m,
		Logger:    logger,
	}, usecase.FlowSettings{
		AutoCloseDelay: cfg.Flow.AutoCloseDelay,
		InputMode:      card.ParseInputMode(cfg.Flow.InputMode),
	}, cfg.Flow.MaxOpenFlows, cfg.Flow.FlowTTL)

	httpSrv := httpServer.NewServer(cfg, logger, handlers.NewFlowHandler(flows, plans, events, logger), m)
	grpcSrv := grpcServer.NewServer(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The auditor outlives the servers so events of flows closed during
	// shutdown are still flushed
	auditCtx, stopAudit := context.WithCancel(context.Background())
	auditDone := make(chan error, 1)
	go func() { auditDone <- auditor.Run(auditCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpSrv.Start)
	if cfg.Server.GRPC.Enabled {
		g.Go(grpcSrv.Start)
	}
	if listener != nil {
		g.Go(func() error { return listener.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if cfg.Server.GRPC.Enabled {
			if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shutdown gRPC server", zap.Error(err))
			}
		}
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}

		flows.CloseAll()
		stopAudit()
		return <-auditDone
	})

	return g.Wait()
}
