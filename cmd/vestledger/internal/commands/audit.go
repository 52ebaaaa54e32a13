package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/vestledger/internal/vesting/events"
	"go.uber.org/zap"
)

type AuditCmd struct {
	ConfigFlags `embed:""`
	GroupID     string `help:"Kafka consumer group" default:"vestledger-audit" env:"VESTLEDGER_AUDIT_GROUP"`
}

func (a *AuditCmd) Run(ctx context.Context, globals *Globals) error {
	logger, err := newLogger(globals)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer syncLogger(logger)

	cfg, err := a.load()
	if err != nil {
		return err
	}
	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("audit requires KAFKA_BROKERS")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.KafkaBrokers, a.GroupID, cfg.Topic, logger)
	defer consumer.Close()
	consumer.RegisterHandler(auditHandler(logger.Named("audit")))

	logger.Info("Auditing ledger events", zap.String("topic", cfg.Topic), zap.String("group", a.GroupID))
	consumer.Run(ctx)
	return nil
}

func auditHandler(logger *zap.Logger) events.Handler {
	return func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("type", string(event.Type)),
			zap.String("key", event.Key),
			zap.Int64("occurred_at", event.OccurredAt),
			zap.String("actor", event.Actor),
		}
		if event.Schedule != nil {
			fields = append(fields,
				zap.Uint64("schedule_id", event.Schedule.ScheduleID),
				zap.String("token_type", event.Schedule.TokenType),
			)
		}
		if event.Amount > 0 {
			fields = append(fields, zap.Uint64("amount", event.Amount))
		}
		logger.Info("Ledger event", fields...)
		return nil
	}
}
