package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/vestledger/internal/vesting/auth"
	"github.com/gartstein/vestledger/internal/vesting/config"
	"github.com/gartstein/vestledger/internal/vesting/controller"
	"github.com/gartstein/vestledger/internal/vesting/db"
	"github.com/gartstein/vestledger/internal/vesting/events"
	"github.com/gartstein/vestledger/internal/vesting/handlers"
	"github.com/gartstein/vestledger/internal/vesting/ledger"
	"github.com/gartstein/vestledger/internal/vesting/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

const connectRetries = 5

type ServeCmd struct {
	ConfigFlags `embed:""`
}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	logger, err := newLogger(globals)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer syncLogger(logger)

	cfg, err := s.load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close database", zap.Error(err))
		}
	}()

	escrow, err := ledger.Open(cfg.LedgerPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer func() {
		if err := escrow.Close(); err != nil {
			logger.Error("Failed to close ledger", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	producer, closeProducer, err := openProducer(ctx, cfg, logger, m)
	if err != nil {
		return fmt.Errorf("failed to initialize Kafka producer: %w", err)
	}
	defer closeProducer()

	vestingSvc := controller.NewVestingService(repo, escrow, producer, logger,
		controller.WithLimits(cfg.Limits()),
		controller.WithMetrics(m),
		controller.WithProfileCache(cfg.ProfileCacheSize),
	)
	vestingHandler := handlers.NewVestingHandler(vestingSvc, logger)

	var limiter *rate.Limiter
	interceptors := []grpc.UnaryServerInterceptor{}
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
		interceptors = append(interceptors, handlers.RateLimitInterceptor(limiter))
	}
	authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret)
	interceptors = append(interceptors, authInterceptor.Unary())

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger, grpc.ChainUnaryInterceptor(interceptors...))
	server.RegisterGRPCHandler(vestingHandler)
	if err := server.RegisterHTTPGateway(vestingHandler, cfg.JWTSecret, metrics.Handler(registry), limiter); err != nil {
		return fmt.Errorf("failed to register HTTP gateway: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start servers: %w", err)
	}
	logger.Info("Vesting ledger started",
		zap.String("version", globals.Version),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("http_port", cfg.HTTPPort),
	)

	<-ctx.Done()
	server.Stop()
	logger.Info("Servers stopped properly")
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*db.Repository, error) {
	if cfg.DBDriver == config.DriverSQLite {
		return db.NewSQLiteRepository(cfg.SQLitePath)
	}

	var repo *db.Repository
	err := backoff.Retry(func() error {
		var err error
		repo, err = db.NewRepository(cfg.Database())
		if err != nil {
			logger.Warn("Database not ready, retrying", zap.Error(err))
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries), ctx))
	return repo, err
}

func openProducer(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (controller.EventProducer, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("No Kafka brokers configured, events are discarded")
		return events.Discard{}, func() {}, nil
	}

	var producer *events.Producer
	err := backoff.Retry(func() error {
		var err error
		producer, err = events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Warn("Kafka not ready, retrying", zap.Error(err))
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries), ctx))
	if err != nil {
		return nil, nil, err
	}
	producer.OnDrop(m.EventDropped)
	return producer, producer.Close, nil
}
