package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		redemptionsTotal,
		redeemTxDurationMs,
	)
}

var (
	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Redemption attempts by outcome (success, code_already_consumed, no_visits_remaining, ...).",
		},
		[]string{"result"},
	)

	redeemTxDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "redeem_tx_duration_ms",
			Help:    "Redeem transaction latency distribution in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncRedemption(result string) {
	redemptionsTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveRedeemTx(latencyMs float64) {
	redeemTxDurationMs.Observe(latencyMs)
}
