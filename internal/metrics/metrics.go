package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	PointsCredited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePointsCredited,
			Help: HelpTextPointsCredited,
		},
		[]string{LabelType},
	)

	PointsDebited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePointsDebited,
			Help: HelpTextPointsDebited,
		},
		[]string{LabelType},
	)

	PointsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePointsExpired,
			Help: HelpTextPointsExpired,
		},
	)

	TierChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTierChanges,
			Help: HelpTextTierChanges,
		},
		[]string{LabelFromTier, LabelToTier},
	)

	OrderDiscounts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameOrderDiscounts,
			Help: HelpTextOrderDiscounts,
		},
		[]string{LabelType},
	)

	OrderDiscountAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameOrderDiscountAmount,
			Help: HelpTextOrderDiscountAmount,
		},
		[]string{LabelType},
	)

	ExpirySweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricNameExpirySweepDuration,
			Help:    HelpTextExpirySweepDuration,
			Buckets: SweepDurationBuckets,
		},
	)
)
