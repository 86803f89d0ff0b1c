package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/taskpulse/adapter/api"
	"github.com/felixgeelhaar/taskpulse/internal/app"
	mcpinternal "github.com/felixgeelhaar/taskpulse/internal/mcp"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskpulse/pkg/config"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

func main() {
	logger := observability.NewLogger(observability.DefaultLogConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.NewLogger(observability.LogConfigFor("taskpulse-worker", cfg.LogLevel, cfg.LogFormat))
	logger.Info("starting taskpulse worker")

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	consumer, err := newConsumer(cfg, container)
	if err != nil {
		logger.Error("failed to create event consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	consumer.RegisterConsumer(container.EntryStoppedConsumer())

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg.WorkerHealthAddr, container)
	}
	if cfg.APIAddr != "" {
		startAPIServer(ctx, cfg, container)
	}
	go runHistoryPruner(ctx, container)

	logger.Info("consuming time entry events", "queue", cfg.WorkerQueue)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped", "metrics", container.Metrics.Snapshot())
}

// errNoBroker is returned outside development when RABBITMQ_URL is unset.
// Nothing publishes stopped time entries onto the in-process bus, so such a
// worker would never receive one.
var errNoBroker = errors.New("RABBITMQ_URL is required outside development")

// checkBroker reports whether the worker may run without a broker.
func checkBroker(cfg *config.Config) error {
	if cfg.RabbitMQURL == "" && !cfg.IsDevelopment() {
		return errNoBroker
	}
	return nil
}

// newConsumer consumes from RabbitMQ when configured and otherwise, in
// development, from the container's in-process bus.
func newConsumer(cfg *config.Config, container *app.Container) (eventbus.Consumer, error) {
	if err := checkBroker(cfg); err != nil {
		return nil, err
	}
	if cfg.RabbitMQURL == "" {
		bus, ok := container.EventPublisher.(*eventbus.InProcessEventBus)
		if !ok {
			return nil, errors.New("no RabbitMQ URL and no in-process bus")
		}
		container.Logger.Warn("RABBITMQ_URL not set, consuming from the in-process bus; time entries arrive only through the API")
		return bus, nil
	}

	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:       cfg.RabbitMQURL,
		QueueName: cfg.WorkerQueue,
		Logger:    container.Logger,
	}, eventbus.NewRouter(container.Logger))
	if err != nil {
		return nil, err
	}
	container.Health.Register("consumer", observability.PingChecker("consumer", true, consumer.Check))
	return consumer, nil
}

func startHealthServer(ctx context.Context, addr string, container *app.Container) {
	logger := container.Logger

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"metrics": container.Metrics.Snapshot(),
		})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		health := container.Health.GetOverallHealth(checkCtx)
		w.Header().Set("Content-Type", "application/json")
		if health.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(health)
	})

	healthSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", addr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}

// runHistoryPruner applies HISTORY_RETENTION_DAYS at startup and then daily.
func runHistoryPruner(ctx context.Context, container *app.Container) {
	if container.Config.HistoryRetentionDays <= 0 {
		return
	}
	prune := func() {
		if _, err := container.PruneHistory(ctx, time.Now()); err != nil {
			container.Logger.Error("history prune failed", "error", err)
		}
	}

	prune()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

func startAPIServer(ctx context.Context, cfg *config.Config, container *app.Container) {
	logger := container.Logger

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.APIAddr
	srv := api.NewAppServer(serverCfg, mcpinternal.NewCLIApp(container), cfg.SlackChannel, logger)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api server shutdown error", "error", err)
		}
	}()
}
