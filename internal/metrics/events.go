package metrics

import (
	"context"
	"strconv"

	"github.com/osse101/MallLoyalty_Go/internal/event"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all loyalty events
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range []event.Type{
		event.PointsCredited,
		event.PointsDebited,
		event.PointsExpired,
		event.TierChanged,
		event.DiscountApplied,
	} {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.PointsCredited, event.PointsDebited, event.PointsExpired:
		payload, err := event.DecodePayload[event.PointsPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
			return nil
		}
		recordPoints(evt.Type, payload)

	case event.TierChanged:
		payload, err := event.DecodePayload[event.TierChangedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
			return nil
		}
		from := payload.FromTier
		if from == "" {
			from = LabelValueNone
		}
		TierChanges.WithLabelValues(from, payload.ToTier).Inc()

	case event.DiscountApplied:
		payload, err := event.DecodePayload[event.DiscountAppliedPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadInvalid, "type", evt.Type, "error", err)
			return nil
		}
		OrderDiscounts.WithLabelValues(payload.DiscountType).Inc()
		if amount, err := strconv.ParseFloat(payload.Amount, 64); err == nil {
			OrderDiscountAmount.WithLabelValues(payload.DiscountType).Add(amount)
		}
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}

func recordPoints(eventType event.Type, payload event.PointsPayloadV1) {
	points := payload.Points
	if points < 0 {
		points = -points
	}
	switch eventType {
	case event.PointsCredited:
		PointsCredited.WithLabelValues(payload.TransactionType).Add(float64(points))
	case event.PointsDebited:
		PointsDebited.WithLabelValues(payload.TransactionType).Add(float64(points))
	case event.PointsExpired:
		PointsExpired.Add(float64(points))
	}
}
