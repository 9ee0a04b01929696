package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// reconnects counts every transition into BACKOFF, per venue. Lives in this
// package (not internal/bot) because exchange must stay free of the bot
// package's imports: bot already depends on exchange for the Connector
// interface, and a reverse import would cycle.
var reconnects = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "connector",
		Name:      "reconnects_total",
		Help:      "Number of times a subscription transitioned into BACKOFF",
	},
	[]string{"venue"},
)

// RecordReconnect increments venue's reconnect counter.
func RecordReconnect(venue string) {
	reconnects.WithLabelValues(venue).Inc()
}
