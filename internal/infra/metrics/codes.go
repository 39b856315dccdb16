package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		codesIssuedTotal,
		codesPurgedTotal,
	)
}

var (
	codesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "validation_codes_issued_total",
			Help: "Total number of validation codes minted.",
		},
	)

	codesPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "validation_codes_purged_total",
			Help: "Total number of expired validation codes removed by the GC worker.",
		},
	)
)

func IncCodeIssued() { codesIssuedTotal.Inc() }

func IncCodesPurged(count int64) { codesPurgedTotal.Add(float64(count)) }
