package app

import (
	"context"
	"fmt"

	"go-timeclock/internal/config"
	"go-timeclock/internal/events"
	"go-timeclock/internal/messaging/kafka/consumer"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const staleShiftConsumerGroup = "go-timeclock-shift-stale"

// RunConsumer notifies employees about stale shifts until ctx is cancelled.
func RunConsumer(ctx context.Context, cfg *config.AppConfig) error {
	logger := zap.L().Named("app.consumer")

	gormDB, db, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	notifications := newNotificationService(cfg, gormDB, zap.L())

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.ShiftLifecycleTopic,
		GroupID:        staleShiftConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	consumer.ConsumeShiftLifecycle(ctx, reader, notifications, logger)

	logger.Info("consumer shut down")
	return nil
}
