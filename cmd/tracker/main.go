package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NordCoder/ordotrack/internal/alert"
	"github.com/NordCoder/ordotrack/internal/bootstrap"
	config "github.com/NordCoder/ordotrack/internal/config/tracker"
	"github.com/NordCoder/ordotrack/internal/obs"
	"github.com/NordCoder/ordotrack/internal/services/api"
	"github.com/NordCoder/ordotrack/internal/services/notifier"
	"github.com/NordCoder/ordotrack/internal/services/tracker"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("ORDOTRACK_CONFIG"), "path to YAML config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting tracker",
		zap.String("store", cfg.Store.Backend),
		zap.Duration("interval", cfg.Notifier.Interval),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	backend, err := bootstrap.OpenBackend(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer backend.Close()

	sink, closeSink, err := bootstrap.Sink(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("alert sinks", zap.Error(err))
	}
	defer closeSink()

	// wiring
	clock := bootstrap.SystemClock{}
	gate := alert.NewGate(rootCtx, sink, bootstrap.Prompter(cfg, alert.ContextPrompter{}), backend.Store, logger)
	uc := notifier.NewUC(gate, clock, backend.JournalOrNil(), logger)
	tr := tracker.New(rootCtx, backend.Store, clock, uc, logger)
	runner := notifier.NewRunner(logger, tr, gate, cfg.Notifier.Interval)

	var alerts api.AlertLog
	if backend.Journal != nil {
		alerts = backend.Journal
	}
	httpSrv := buildHTTPServer(cfg, api.NewHandler(tr, clock, alerts, logger).Router())
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, backend.Health, logger)

	grpcServer, hs, grpcLn, err := buildGRPCServer(cfg)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	go watchHealth(rootCtx, hs, backend.Health, 10*time.Second)

	// run
	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, cfg, logger) }()
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()
	runErrCh := make(chan error, 1)
	go func() { runErrCh <- runner.Run(rootCtx) }()

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case runErr = <-grpcErrCh:
		if runErr != nil {
			logger.Error("grpc serve", zap.Error(runErr))
		}
	case runErr = <-httpErrCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
	case runErr = <-runErrCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("runner error", zap.Error(runErr))
		}
	}
	stop()

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	grpcServer.GracefulStop()
	logger.Info("bye")
}
