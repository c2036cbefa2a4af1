package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNamePointsCredited      = "points_credited_total"
	MetricNamePointsDebited       = "points_debited_total"
	MetricNamePointsExpired       = "points_expired_total"
	MetricNameTierChanges         = "tier_changes_total"
	MetricNameOrderDiscounts      = "order_discounts_total"
	MetricNameOrderDiscountAmount = "order_discount_amount_total"
	MetricNameExpirySweepDuration = "expiry_sweep_duration_seconds"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextPointsCredited      = "Total points credited to accounts"
	HelpTextPointsDebited       = "Total points redeemed or deducted"
	HelpTextPointsExpired       = "Total points expired by the sweep"
	HelpTextTierChanges         = "Total number of membership tier changes"
	HelpTextOrderDiscounts      = "Total number of order discounts applied"
	HelpTextOrderDiscountAmount = "Total currency discounted from orders"
	HelpTextExpirySweepDuration = "Duration of a full points expiry sweep in seconds"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelType     = "type"
	LabelFromTier = "from"
	LabelToTier   = "to"
)

// LabelValueNone marks a missing from-tier on the first assignment
const LabelValueNone = "none"

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// SweepDurationBuckets covers expiry sweeps from 10ms to about 10 minutes
var SweepDurationBuckets = []float64{.01, .1, .5, 1, 5, 15, 30, 60, 180, 600}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgEventPayloadInvalid = "Event payload could not be decoded"
	LogMsgMetricsRecorded     = "Metrics recorded for event"
)
