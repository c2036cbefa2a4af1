package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/concurrency"
	"github.com/osse101/MallLoyalty_Go/internal/config"
	"github.com/osse101/MallLoyalty_Go/internal/database"
	"github.com/osse101/MallLoyalty_Go/internal/database/postgres"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/points"
)

// expire runs the points expiry sweep once, for one user or every account
func main() {
	userID := flag.String("user", "", "sweep a single user instead of every account")
	timeout := flag.Duration("timeout", 10*time.Minute, "abort the sweep after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitLogger(logger.NewConfig(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName, cfg.Version, cfg.Environment, false))

	pool, err := database.NewPool(cfg.GetDBConnString(), 2, cfg.DBMaxConnIdleTime, cfg.DBMaxConnLifetime)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	svc := points.NewService(postgres.NewPointsRepository(pool), nil, concurrency.NewLockManager(), cfg.PointsRetention())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *userID != "" {
		expired, err := svc.SweepExpired(ctx, *userID)
		if err != nil {
			log.Fatalf("Sweep failed for %s: %v", *userID, err)
		}
		_ = enc.Encode(map[string]interface{}{"user_id": *userID, "points_expired": expired})
		return
	}

	report, err := svc.SweepAllExpired(ctx)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	_ = enc.Encode(report)
	if len(report.Failed) > 0 {
		os.Exit(1)
	}
}
