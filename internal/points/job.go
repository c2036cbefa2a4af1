package points

import (
	"context"
	"time"
)

// Sweeper runs a full expiry sweep
type Sweeper interface {
	SweepAllExpired(ctx context.Context) (*SweepReport, error)
}

// ExpiryJob adapts a Sweeper to the worker pool. Each run gets its own
// timeout so a stuck sweep cannot hold a worker forever.
type ExpiryJob struct {
	Sweeper Sweeper
	Timeout time.Duration
}

// Process implements worker.Job
func (j *ExpiryJob) Process(ctx context.Context) error {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	_, err := j.Sweeper.SweepAllExpired(ctx)
	return err
}
