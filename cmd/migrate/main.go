package main

import (
	"flag"

	"go-timeclock/internal/config"
	"go-timeclock/internal/db/migrate"

	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewDevelopment()
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := migrate.Run(cfg.Postgres.URL(), *direction); err != nil {
		logger.Fatal("migrate failed", zap.String("direction", *direction), zap.Error(err))
	}
	logger.Info("migrate finished", zap.String("direction", *direction))
}
