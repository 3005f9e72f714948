package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
  outcomeMatched  = "matched"
  outcomeNotFound = "not_found"
  outcomeError    = "error"
)

var (
  scansCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
    Name: "switchbot_exporter_scans_total",
    Help: "Scans run on scrape, by outcome (matched, not_found, error).",
  }, []string{"outcome"})
  scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
    Name:    "switchbot_exporter_scan_duration_seconds",
    Help:    "Time spent scanning for the device on scrape.",
    Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
  })
  decodeFailuresCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "switchbot_exporter_decode_failures_total",
    Help: "Advertisements from the device whose payload could not be decoded.",
  })
)

func init() {
  for _, outcome := range []string{outcomeMatched, outcomeNotFound, outcomeError} {
    scansCounter.WithLabelValues(outcome)
  }
}

// RegisterMetrics exposes metamonitoring metrics about the scans themselves.
func RegisterMetrics(reg prometheus.Registerer) {
  reg.MustRegister(
    scansCounter,
    scanDuration,
    decodeFailuresCounter,
  )
}
