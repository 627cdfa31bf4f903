// Package metrics counts what the signer does. Nothing is served over the
// network; the offline host can dump the registry to a textfile for a
// node_exporter style collector to pick up later.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation labels
const (
	OpSign     = "sign"
	OpPayload  = "payload"
	OpAssemble = "assemble"
	OpDecode   = "decode"
)

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds all Prometheus metrics for the signer
type Metrics struct {
	registry *prometheus.Registry

	Operations     *prometheus.CounterVec
	PayloadBytes   prometheus.Histogram
	HashedPayloads prometheus.Counter
	SignLatency    prometheus.Histogram
}

// NewMetrics creates all metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airgap_operations_total",
			Help: "Extrinsic operations by kind and outcome",
		}, []string{"operation", "outcome"}),
		PayloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "airgap_signed_payload_bytes",
			Help:    "Size of encoded signing payloads before hashing",
			Buckets: []float64{64, 128, 256, 512, 1024, 4096},
		}),
		HashedPayloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airgap_hashed_payloads_total",
			Help: "Payloads longer than 256 bytes that were hashed before signing",
		}),
		SignLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "airgap_sign_latency_seconds",
			Help:    "Time spent producing a signature",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.Operations,
		m.PayloadBytes,
		m.HashedPayloads,
		m.SignLatency,
	)

	return m
}

// Observe records the outcome of one operation
func (m *Metrics) Observe(operation string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// ObservePayload records the size of a signing payload
func (m *Metrics) ObservePayload(size int, hashed bool) {
	m.PayloadBytes.Observe(float64(size))
	if hashed {
		m.HashedPayloads.Inc()
	}
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToTextfile writes the current values in the text exposition format
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
