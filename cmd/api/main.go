package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/daywell/internal/api"
	"example.com/daywell/internal/auth"
	"example.com/daywell/internal/config"
	"example.com/daywell/internal/domain"
	"example.com/daywell/internal/llm"
	"example.com/daywell/internal/logging"
	"example.com/daywell/internal/outbox"
	"example.com/daywell/internal/persistence"
	"example.com/daywell/internal/suggest"
	httptransport "example.com/daywell/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := persistence.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer backend.Close()

	var dispatcher *outbox.Dispatcher
	if backend.Pool != nil {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers, logger.Named("kafka"))
		defer producer.Close()

		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(backend.Pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger.Named("outbox"))
		go dispatcher.Start(ctx)
	}

	generator, err := llm.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to configure llm provider", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}
	if generator == nil {
		logger.Warn("no llm api key configured, suggestions will use the fallback catalog", zap.String("provider", cfg.LLMProvider))
	}

	engineOpts := []suggest.Option{
		suggest.WithLogger(logger.Named("suggest")),
		suggest.WithTimeout(cfg.SuggestionTimeout),
		suggest.WithModel(cfg.LLMModel),
	}
	if cfg.SuggestionCatalog != "" {
		catalog, err := suggest.LoadCatalog(cfg.SuggestionCatalog)
		if err != nil {
			logger.Fatal("failed to load suggestion catalog", zap.String("path", cfg.SuggestionCatalog), zap.Error(err))
		}
		engineOpts = append(engineOpts, suggest.WithCatalog(catalog))
	}
	engine := suggest.NewEngine(generator, engineOpts...)

	service := domain.NewService(backend.Repository, domain.WithLocation(cfg.Location()))

	handler := api.NewHandler(service, engine, logger.Named("api"))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	accessLog := httptransport.AccessLog(logger.Named("http"))
	cors := httptransport.CORS(cfg.CORSOrigin)

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), accessLog(cors(authMiddleware.Wrap(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("daywell api listening", zap.String("address", cfg.HTTPAddress), zap.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}
