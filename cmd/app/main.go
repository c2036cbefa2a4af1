package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/benefits"
	"github.com/osse101/MallLoyalty_Go/internal/bootstrap"
	"github.com/osse101/MallLoyalty_Go/internal/concurrency"
	"github.com/osse101/MallLoyalty_Go/internal/config"
	"github.com/osse101/MallLoyalty_Go/internal/database"
	"github.com/osse101/MallLoyalty_Go/internal/database/schema"
	"github.com/osse101/MallLoyalty_Go/internal/loyalty"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/server"
	"github.com/osse101/MallLoyalty_Go/internal/validation"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	if err := run(cfg); err != nil {
		slog.Error("Fatal error", "error", err)
		logFile.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	dbPool, err := database.NewPool(cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxConnIdleTime, cfg.DBMaxConnLifetime)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := schema.Migrate(ctx, dbPool, schema.DefaultMigrationsDir); err != nil {
		return err
	}

	eventBus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		return err
	}
	bootstrap.RegisterEventHandlers(eventBus)

	schemas := validation.NewSchemaValidator()
	catalog, err := bootstrap.LoadTierCatalog(cfg, schemas)
	if err != nil {
		return err
	}

	repos := bootstrap.InitializeRepositories(dbPool)
	lockManager := concurrency.NewLockManager()

	pointsService := points.NewService(repos.Points, publisher, lockManager, cfg.PointsRetention())
	if err := bootstrap.SyncPointsRules(ctx, cfg, pointsService, schemas); err != nil {
		return err
	}

	membershipService := membership.NewService(repos.Membership, catalog, publisher, lockManager)
	loyaltyService := loyalty.NewService(pointsService, membershipService, repos.Orders)
	benefitsEngine := benefits.NewEngine(membershipService, catalog, repos.Orders, publisher, benefits.Config{
		ShippingCost:    cfg.ShippingCost,
		ShippingInTotal: cfg.ShippingInTotal,
	})

	sched, workerPool, err := bootstrap.StartExpirySweep(cfg, pointsService)
	if err != nil {
		return err
	}

	srv := server.NewServer(server.Options{
		Port:           cfg.Port,
		APIKey:         cfg.APIKey,
		AdminAPIKey:    cfg.AdminAPIKey,
		TrustedProxies: cfg.TrustedProxies,
		Version:        cfg.Version,
	}, server.Services{
		DB:         dbPool,
		Points:     pointsService,
		Membership: membershipService,
		Loyalty:    loyaltyService,
		Benefits:   benefitsEngine,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case <-stop:
	case runErr = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:             srv,
		Scheduler:          sched,
		WorkerPool:         workerPool,
		ResilientPublisher: publisher,
	})
	return runErr
}
