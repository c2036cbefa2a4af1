package event

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

type retryItem struct {
	event   Event
	attempt int
	lastErr error
}

// ResilientPublisher wraps a Bus with background retries and a dead-letter file.
// The first attempt runs inline; failures are retried with exponential backoff
// so a misbehaving subscriber never fails the ledger write that raised the event.
type ResilientPublisher struct {
	inner      Bus
	maxRetries int
	baseDelay  time.Duration
	deadLetter *DeadLetterWriter

	queue     chan retryItem
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewResilientPublisher creates a publisher and starts its retry worker
func NewResilientPublisher(inner Bus, maxRetries int, baseDelay time.Duration, deadLetterPath string) (*ResilientPublisher, error) {
	dlw, err := NewDeadLetterWriter(deadLetterPath)
	if err != nil {
		return nil, err
	}

	p := &ResilientPublisher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		deadLetter: dlw,
		queue:      make(chan retryItem, RetryQueueBufferSize),
		done:       make(chan struct{}),
	}

	p.wg.Add(1)
	go p.retryWorker()
	return p, nil
}

// Publish implements Bus. It never returns an error; failed deliveries are retried.
func (p *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	p.PublishWithRetry(ctx, event)
	return nil
}

// Subscribe delegates to the inner bus
func (p *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	p.inner.Subscribe(eventType, handler)
}

// PublishWithRetry publishes once and queues the event for retry on failure
func (p *ResilientPublisher) PublishWithRetry(ctx context.Context, event Event) {
	err := p.inner.Publish(ctx, event)
	if err == nil {
		return
	}

	logger.FromContext(ctx).Warn(LogMsgEventPublishFailed, "event_type", event.Type, "error", err)

	item := retryItem{event: event, attempt: 1, lastErr: err}
	select {
	case <-p.done:
		p.writeDeadLetter(item)
	case p.queue <- item:
	default:
		logger.FromContext(ctx).Error(LogMsgRetryQueueFull, "event_type", event.Type)
		p.writeDeadLetter(item)
	}
}

func (p *ResilientPublisher) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case item := <-p.queue:
			p.retry(item)
		}
	}
}

func (p *ResilientPublisher) retry(item retryItem) {
	for item.attempt <= p.maxRetries {
		select {
		case <-p.done:
			p.writeDeadLetter(item)
			return
		case <-time.After(CalculateRetryDelay(p.baseDelay, item.attempt)):
		}

		err := p.inner.Publish(context.Background(), item.event)
		if err == nil {
			logger.Info(LogMsgEventRetrySucceeded, "event_type", item.event.Type, "attempt", item.attempt)
			return
		}

		logger.Warn(LogMsgEventRetryFailed, "event_type", item.event.Type, "attempt", item.attempt, "error", err)
		item.lastErr = err
		item.attempt++
	}

	logger.Error(LogMsgEventRetryExhausted, "event_type", item.event.Type, "attempts", item.attempt)
	p.writeDeadLetter(item)
}

func (p *ResilientPublisher) writeDeadLetter(item retryItem) {
	if err := p.deadLetter.Write(item.event, item.attempt, item.lastErr); err != nil {
		logger.Error(LogMsgDeadLetterWriteFailed, "event_type", item.event.Type, "error", err)
	}
}

// Shutdown stops the retry worker, dead-letters anything still queued and
// closes the dead-letter file.
func (p *ResilientPublisher) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.done) })

	stopped := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Warn(LogMsgShutdownTimeout)
		return ctx.Err()
	}

	drained := 0
	for {
		select {
		case item := <-p.queue:
			p.writeDeadLetter(item)
			drained++
		default:
			if drained > 0 {
				logger.Info(LogMsgQueueDrainedShutdown, "count", drained)
			}
			return p.deadLetter.Close()
		}
	}
}
