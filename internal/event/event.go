package event

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Loyalty event types
const (
	PointsCredited  Type = "points.credited"
	PointsDebited   Type = "points.debited"
	PointsExpired   Type = "points.expired"
	TierChanged     Type = "membership.tier_changed"
	DiscountApplied Type = "order.discount_applied"
)

// PointsPayloadV1 is the typed payload for points credit, debit and expiry events
type PointsPayloadV1 struct {
	UserID          string `json:"user_id"`
	TransactionType string `json:"transaction_type"`
	Points          int    `json:"points"`
	BalanceAfter    int    `json:"balance_after"`
	ReferenceID     string `json:"reference_id,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}

// TierChangedPayloadV1 is the typed payload for tier change events
type TierChangedPayloadV1 struct {
	UserID   string `json:"user_id"`
	FromTier string `json:"from_tier,omitempty"`
	ToTier   string `json:"to_tier"`
	Reason   string `json:"reason"`
	Manual   bool   `json:"manual"`
	Upgrade  bool   `json:"upgrade"`
	Spending string `json:"spending"`
}

// DiscountAppliedPayloadV1 is the typed payload for order discount events
type DiscountAppliedPayloadV1 struct {
	OrderID      int64  `json:"order_id"`
	UserID       string `json:"user_id"`
	DiscountType string `json:"discount_type"`
	Amount       string `json:"amount"`
}

// NewPointsEvent creates a points ledger event. eventType must be one of
// PointsCredited, PointsDebited or PointsExpired.
func NewPointsEvent(eventType Type, userID, txType string, points, balanceAfter int, referenceID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    eventType,
		Payload: PointsPayloadV1{
			UserID:          userID,
			TransactionType: txType,
			Points:          points,
			BalanceAfter:    balanceAfter,
			ReferenceID:     referenceID,
			Timestamp:       time.Now().Unix(),
		},
		Metadata: map[string]interface{}{
			"user_id": userID,
		},
	}
}

// NewTierChangedEvent creates a tier change event
func NewTierChangedEvent(payload TierChangedPayloadV1) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    TierChanged,
		Payload: payload,
		Metadata: map[string]interface{}{
			"user_id": payload.UserID,
		},
	}
}

// NewDiscountAppliedEvent creates an order discount event
func NewDiscountAppliedEvent(orderID int64, userID, discountType, amount string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    DiscountApplied,
		Payload: DiscountAppliedPayloadV1{
			OrderID:      orderID,
			UserID:       userID,
			DiscountType: discountType,
			Amount:       amount,
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers.
// Handlers run synchronously in subscription order.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// NopBus drops every event. Used where publishing is optional.
type NopBus struct{}

// Publish implements Bus
func (NopBus) Publish(context.Context, Event) error { return nil }

// Subscribe implements Bus
func (NopBus) Subscribe(Type, Handler) {}
