package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/t77yq/alert-dashboard/internal/api"
	"github.com/t77yq/alert-dashboard/internal/config"
	"github.com/t77yq/alert-dashboard/internal/metrics"
	"github.com/t77yq/alert-dashboard/internal/monitor"
	"github.com/t77yq/alert-dashboard/internal/query"
	"github.com/t77yq/alert-dashboard/internal/source"
	"github.com/t77yq/alert-dashboard/internal/store"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Bootstrap logger until the configured one is built
	bootstrap, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	cfg, err := config.Load(*configPath, bootstrap)
	if err != nil {
		bootstrap.Fatal("Failed to load configuration", zap.Error(err))
	}
	_ = bootstrap.Sync()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	alerts, report, degraded := loadStore(ctx, cfg.Source, logger)
	metrics.SetStore(alerts.Len(), len(report.Rejected))

	var auth *api.TokenValidator
	if cfg.Auth.Enabled {
		auth, err = api.NewTokenValidator(cfg.Auth)
		if err != nil {
			logger.Fatal("Failed to create token validator", zap.Error(err))
		}
	}

	engine := query.NewEngine(alerts)
	health := monitor.NewHealthChecker(alerts, report, degraded, logger)
	server := api.NewServer(cfg, engine, health, auth, prometheus.DefaultGatherer, logger)

	if err := server.Run(ctx); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Shutdown complete")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	zapConfig.Level = level

	return zapConfig.Build()
}

// loadStore loads alerts once from the configured source. Any failure leaves
// the service running on an empty store, reported as degraded on /health.
func loadStore(ctx context.Context, cfg config.SourceConfig, logger *zap.Logger) (*store.Store, store.LoadReport, bool) {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()

	src, closeSource, err := openSource(cfg, logger)
	if err != nil {
		logger.Error("Failed to open alert source, serving empty store",
			zap.String("type", cfg.Type),
			zap.Error(err))
		return store.Empty(), store.LoadReport{Source: cfg.Type}, true
	}
	defer closeSource()

	alerts, report, err := store.Load(loadCtx, src, store.LoadOptions{
		Strict: cfg.Strict,
		Logger: logger,
	})
	if err != nil {
		logger.Error("Failed to load alerts, serving empty store",
			zap.String("source", src.Name()),
			zap.Error(err))
		return store.Empty(), store.LoadReport{Source: src.Name()}, true
	}
	return alerts, report, false
}

func openSource(cfg config.SourceConfig, logger *zap.Logger) (store.Source, func(), error) {
	switch cfg.Type {
	case config.SourceFile:
		return source.NewFile(cfg.Path), func() {}, nil

	case config.SourceSQLite:
		src, err := source.NewSQLite(logger, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {
			if err := src.Close(); err != nil {
				logger.Warn("Failed to close SQLite source", zap.Error(err))
			}
		}, nil

	case config.SourceNATS:
		nc, err := connectNATS(cfg.NATS, logger)
		if err != nil {
			return nil, nil, err
		}
		js, err := nc.JetStream(nats.MaxWait(cfg.NATS.MaxWait))
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		src := source.NewJetStream(js, source.JetStreamConfig{
			Stream:  cfg.NATS.Stream,
			Subject: cfg.NATS.Subject,
			MaxWait: cfg.NATS.MaxWait,
		}, logger)
		return src, nc.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

func connectNATS(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("alert-dashboard"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(0),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("NATS connection error",
				zap.String("subject", subject),
				zap.Error(err))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
	}

	// Connect with retry
	var nc *nats.Conn
	var err error
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		nc, err = nats.Connect(cfg.URL, opts...)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to NATS, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return nc, nil
}

