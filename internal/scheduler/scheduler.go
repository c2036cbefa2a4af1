package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/worker"
)

const (
	// standbyThreshold switches a daily timer from standby to final approach
	standbyThreshold = time.Hour
	// standbyWake is how long before the run a standby timer wakes
	standbyWake = 45 * time.Minute
	// earlyTolerance is the largest early wake-up treated as on time
	earlyTolerance = 10 * time.Second
)

// Log messages
const (
	LogMsgJobEnqueued      = "Scheduled job enqueued"
	LogMsgJobSkipped       = "Scheduled job skipped, worker queue full"
	LogMsgDailyStandby     = "Daily job on standby"
	LogMsgDailyApproach    = "Daily job scheduled"
	LogMsgSchedulerStopped = "Scheduler stopped"
)

// Scheduler feeds recurring jobs into a worker pool
type Scheduler struct {
	workerPool *worker.Pool
	quit       chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once

	mu     sync.Mutex
	timers []*time.Timer

	now func() time.Time
}

// New creates a new scheduler
func New(pool *worker.Pool) *Scheduler {
	return &Scheduler{
		workerPool: pool,
		quit:       make(chan struct{}),
		now:        time.Now,
	}
}

// Schedule enqueues job every interval. A tick is skipped when the pool queue is full.
func (s *Scheduler) Schedule(name string, interval time.Duration, job worker.Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.enqueue(name, job)
			case <-s.quit:
				return
			}
		}
	}()
}

// ScheduleDaily enqueues job once a day at the wall-clock time of day (HH:MM) in loc
func (s *Scheduler) ScheduleDaily(name, at string, loc *time.Location, job worker.Job) error {
	hour, minute, err := ParseTimeOfDay(at)
	if err != nil {
		return err
	}
	if loc == nil {
		loc = time.UTC
	}
	d := &daily{s: s, name: name, hour: hour, minute: minute, loc: loc, job: job}
	d.scheduleNext()
	return nil
}

// Stop cancels pending timers and waits for interval loops to exit
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.mu.Lock()
		for _, t := range s.timers {
			t.Stop()
		}
		s.timers = nil
		s.mu.Unlock()
	})
	s.wg.Wait()
	logger.FromContext(context.Background()).Info(LogMsgSchedulerStopped)
}

func (s *Scheduler) stopped() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

func (s *Scheduler) enqueue(name string, job worker.Job) {
	log := logger.FromContext(context.Background())
	if !s.workerPool.TryEnqueue(job) {
		log.Warn(LogMsgJobSkipped, "job", name)
		return
	}
	log.Debug(LogMsgJobEnqueued, "job", name)
}

// afterFunc registers a timer so Stop can cancel it
func (s *Scheduler) afterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped() {
		return
	}
	s.timers = append(s.timers, time.AfterFunc(d, f))
}

// daily re-arms itself after every run. Long waits go through a standby
// timer that wakes shortly before the run so clock drift cannot cause an
// early fire far ahead of time.
type daily struct {
	s            *Scheduler
	name         string
	hour, minute int
	loc          *time.Location
	job          worker.Job
}

func (d *daily) scheduleNext() {
	if d.s.stopped() {
		return
	}
	log := logger.FromContext(context.Background())
	now := d.s.now()
	wait := UntilNext(now, d.hour, d.minute, d.loc)

	if wait > standbyThreshold {
		standby := wait - standbyWake
		d.s.afterFunc(standby, d.scheduleNext)
		log.Info(LogMsgDailyStandby, "job", d.name, "next_check_at", now.Add(standby).UTC())
		return
	}

	d.s.afterFunc(wait, func() {
		if d.s.stopped() {
			return
		}
		// woke too early; re-arm for the remainder
		rem := UntilNext(d.s.now(), d.hour, d.minute, d.loc)
		if rem > earlyTolerance && rem < 23*time.Hour {
			d.scheduleNext()
			return
		}
		d.s.enqueue(d.name, d.job)
		d.scheduleNext()
	})
	log.Info(LogMsgDailyApproach, "job", d.name, "run_at", now.Add(wait).UTC())
}

// UntilNext returns the time from now to the next hour:minute in loc.
// A run exactly at now is scheduled for the following day.
func UntilNext(now time.Time, hour, minute int, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(local)
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
