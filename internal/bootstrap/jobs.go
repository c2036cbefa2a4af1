package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/config"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/scheduler"
	"github.com/osse101/MallLoyalty_Go/internal/worker"
)

// StartExpirySweep starts a worker pool and schedules the points expiry
// sweep on it. The sweep runs daily at cfg.ExpirySweepAt (UTC) unless
// cfg.ExpirySweepInterval is positive, in which case it runs on that interval.
func StartExpirySweep(cfg *config.Config, sweeper points.Sweeper) (*scheduler.Scheduler, *worker.Pool, error) {
	pool := worker.NewPool(ExpiryWorkers, ExpiryQueueSize)
	sched := scheduler.New(pool)
	job := &points.ExpiryJob{Sweeper: sweeper, Timeout: ExpiryJobTimeout}

	if cfg.ExpirySweepInterval > 0 {
		sched.Schedule(JobNameExpirySweep, cfg.ExpirySweepInterval, job)
		slog.Info(LogMsgExpiryScheduled, "interval", cfg.ExpirySweepInterval)
	} else {
		if err := sched.ScheduleDaily(JobNameExpirySweep, cfg.ExpirySweepAt, time.UTC, job); err != nil {
			sched.Stop()
			return nil, nil, fmt.Errorf("failed to schedule expiry sweep: %w", err)
		}
		slog.Info(LogMsgExpiryScheduled, "at", cfg.ExpirySweepAt, "tz", "UTC")
	}

	pool.Start()
	return sched, pool, nil
}
