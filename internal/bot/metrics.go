package bot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the price-ingestion and arbitrage pipeline,
// scraped by whatever /metrics endpoint the caller wires up; this package
// never reads them back.

var tickersProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "engine",
		Name:      "tickers_processed_total",
		Help:      "Total number of Tickers written through the price cache",
	},
	[]string{"venue", "pair"},
)

var opportunitiesDetected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "engine",
		Name:      "opportunities_detected_total",
		Help:      "Total number of emitted ArbitrageOpportunities",
	},
	[]string{"pair", "actionable"},
)

var tradesExecuted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "engine",
		Name:      "trades_executed_total",
		Help:      "Total number of TradeResults produced by the executor",
	},
	[]string{"pair", "status"},
)

var riskRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "engine",
		Name:      "risk_rejections_total",
		Help:      "Opportunities rejected by the risk gate, by reason",
	},
	[]string{"reason"},
)

var detectionLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "engine",
		Name:      "detection_latency_seconds",
		Help:      "Time from receiving a Ticker to emitting an Opportunity from it",
		Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12),
	},
)

var executionLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "engine",
		Name:      "execution_latency_seconds",
		Help:      "Time from an Opportunity's detection to its TradeResult being recorded",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
	},
)

var bufferOverflows = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "fanout",
		Name:      "buffer_overflow_total",
		Help:      "Fan-out sends dropped because the channel buffer was full",
	},
	[]string{"channel"},
)

// RecordTickerProcessed increments the per-(venue,pair) ticker counter.
func RecordTickerProcessed(venue, pair string) {
	tickersProcessed.WithLabelValues(venue, pair).Inc()
}

// RecordOpportunity increments the per-pair opportunity counter, split by
// actionability.
func RecordOpportunity(pair string, actionable bool) {
	label := "false"
	if actionable {
		label = "true"
	}
	opportunitiesDetected.WithLabelValues(pair, label).Inc()
}

// RecordTrade increments the per-(pair,status) trade counter.
func RecordTrade(pair, status string) {
	tradesExecuted.WithLabelValues(pair, status).Inc()
}

// RecordRiskRejection increments the rejection counter for reason (e.g.
// "daily_loss", "max_position").
func RecordRiskRejection(reason string) {
	riskRejections.WithLabelValues(reason).Inc()
}

// RecordBufferOverflow increments channel's drop counter.
func RecordBufferOverflow(channel string) {
	bufferOverflows.WithLabelValues(channel).Inc()
}

// RecordDetectionLatency observes one tick-to-opportunity duration.
func RecordDetectionLatency(d time.Duration) {
	detectionLatency.Observe(d.Seconds())
}

// RecordExecutionLatency observes one detection-to-trade duration.
func RecordExecutionLatency(d time.Duration) {
	executionLatency.Observe(d.Seconds())
}
