package app

import (
	"context"
	"fmt"
	"time"

	"go-timeclock/internal/config"
	"go-timeclock/internal/messaging/kafka"
	"go-timeclock/internal/messaging/kafka/producer"
	"go-timeclock/internal/scheduler"
	"go-timeclock/internal/shared/connection"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunWorker relays the outbox to Kafka and runs the periodic jobs until ctx is
// cancelled.
func RunWorker(ctx context.Context, cfg *config.AppConfig) error {
	logger := zap.L().Named("app.worker")

	gormDB, db, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
		if err != nil {
			return err
		}
		defer rdb.Close()
	} else {
		logger.Warn("REDIS_ADDR not set, reminder ticks run without leases")
	}

	m := buildModules(cfg, db, gormDB, rdb, zap.L())

	cron := scheduler.New(zap.L())
	jobs := scheduler.Timeclock(scheduler.Specs{
		ReminderTick:   cfg.CronSpecReminderTick,
		WeeklySummary:  cfg.CronSpecWeeklySummary,
		StaleSweep:     cfg.CronSpecStaleSweep,
		CheckInExpiry:  cfg.CronSpecCheckInExpiry,
		StaleThreshold: time.Duration(cfg.StaleThresholdHours) * time.Hour,
		CheckInMaxAge:  cfg.CheckInRequestMaxAge,
	}, m.reminders, m.shifts, m.checkIns, logger)
	for _, job := range jobs {
		if err := cron.Add(job); err != nil {
			return err
		}
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		producer.ProcessOutboxEvents(workerCtx, kafka.NewOutboxRepository(db), kafkaWriter, logger, cfg.OutboxPollInterval)
	}()
	cron.Start()

	<-ctx.Done()
	logger.Info("worker shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := cron.Stop(stopCtx); err != nil {
		logger.Warn("scheduler did not stop cleanly", zap.Error(err))
	}
	cancel()
	<-done

	return nil
}
