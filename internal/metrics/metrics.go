package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RulesConverted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigma2padas_rules_converted_total",
			Help: "Rules converted, by output schema",
		}, []string{"schema"},
	)

	ConversionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigma2padas_conversion_errors_total",
			Help: "Failed conversions, by reason",
		}, []string{"reason"},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sigma2padas_batch_duration_seconds",
			Help:    "Duration of one batch conversion",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var registerOnce sync.Once

// MustRegister is idempotent so both the CLI and tests may call it.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RulesConverted, ConversionErrors, BatchDuration)
	})
}

func Handler() http.Handler { return promhttp.Handler() }
