package store

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewSizeGauge exposes the number of stored uploads as a Prometheus gauge
func NewSizeGauge(s *MemoryStore) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "salespulse",
		Subsystem: "store",
		Name:      "uploads",
		Help:      "Number of uploads held in memory.",
	}, func() float64 {
		return float64(s.Len())
	})
}
