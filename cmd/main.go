package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/okian/overcall/internal/adapters/evaluator"
	"github.com/okian/overcall/internal/adapters/http/api"
	"github.com/okian/overcall/internal/adapters/http/swagger"
	"github.com/okian/overcall/internal/adapters/repository"
	"github.com/okian/overcall/internal/adapters/routersvc"
	app "github.com/okian/overcall/internal/app"
	"github.com/okian/overcall/internal/config"
	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
	"github.com/okian/overcall/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants. Advice calls fan out to evaluators, so the
// write timeout sits above the evaluator timeout.
const (
	readTimeout               = 10 * time.Second
	writeSlack                = 5 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildService opens the store and wires the configured downstream services.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithStore(store),
		app.WithEvaluatorTimeout(cfg.EvaluatorTimeout()),
		app.WithRouterTimeout(cfg.RouterTimeout()),
		app.WithBaselineTimeout(cfg.BaselineTimeout()),
		app.WithMaxCandidates(cfg.CandidateLimit),
		app.WithAuditQueueSize(cfg.AuditQueueSize),
		app.WithWorkerCount(cfg.AuditWorkerCount),
		app.WithDedupeSize(cfg.AuditDedupeSize),
	}

	urls := cfg.AgentURLs()
	agents := make([]string, 0, len(urls))
	for agent := range urls {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	for _, agent := range agents {
		ev, err := evaluator.NewHTTPEvaluator(types.Agent(agent), urls[agent], evaluator.WithLogger(log.Named("evaluator."+agent)))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("evaluator %s: %w", agent, err)
		}
		opts = append(opts, app.WithEvaluator(types.Agent(agent), ev))
		log.Info(ctx, "evaluator configured", logger.String("agent", agent), logger.String("url", urls[agent]))
	}

	if cfg.RouterServiceURL != "" {
		rc, err := routersvc.New(cfg.RouterServiceURL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("router service: %w", err)
		}
		opts = append(opts, app.WithRemoteRouter(rc))
	}

	return app.New(opts...), nil
}

// newHandler registers docs and business routes behind the CORS policy.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithAllowedOrigins(cfg.AllowedOrigins()...),
		api.WithLogger(log.Named("api")),
	)
	apiServer.Register(ctx, mux)
	return apiServer.Handler(mux)
}

func writeTimeout(cfg *config.Config) time.Duration {
	return max(cfg.EvaluatorTimeout(), cfg.RouterTimeout()) + cfg.BaselineTimeout() + writeSlack
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics mirrors service stats into gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if audited, ok := stats["auditedDecisions"].(int); ok {
		metrics.UpdateRepositoryRecords("decisions", audited)
	}
}
