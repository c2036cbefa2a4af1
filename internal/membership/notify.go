package membership

import (
	"context"

	"github.com/osse101/MallLoyalty_Go/internal/event"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

// Notifier tells members about tier changes. The default implementation
// only logs; delivery channels plug in behind the same subscription.
type Notifier struct{}

// Register subscribes the notifier to tier change events
func (n *Notifier) Register(bus event.Bus) {
	bus.Subscribe(event.TierChanged, n.HandleTierChanged)
}

// HandleTierChanged logs upgrades and downgrades. Account creation is skipped.
func (n *Notifier) HandleTierChanged(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.TierChangedPayloadV1](evt.Payload)
	if err != nil {
		return err
	}
	if payload.FromTier == "" {
		return nil
	}

	log := logger.FromContext(ctx)
	msg := LogMsgDowngradeNotice
	if payload.Upgrade {
		msg = LogMsgUpgradeNotice
	}
	log.Info(msg, "user_id", payload.UserID, "from", payload.FromTier, "to", payload.ToTier, "manual", payload.Manual)
	return nil
}
