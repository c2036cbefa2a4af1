package bootstrap

import (
	"log/slog"

	"github.com/osse101/MallLoyalty_Go/internal/event"
	"github.com/osse101/MallLoyalty_Go/internal/membership"
	"github.com/osse101/MallLoyalty_Go/internal/metrics"
)

// RegisterEventHandlers subscribes the event metrics collector and the tier
// change notifier to the bus.
func RegisterEventHandlers(bus event.Bus) {
	metrics.NewEventMetricsCollector().Register(bus)
	slog.Info(LogMsgMetricsCollectorRegistered)

	(&membership.Notifier{}).Register(bus)
	slog.Info(LogMsgTierNotifierRegistered)
}
