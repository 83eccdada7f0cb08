package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "siolink"
	metricsSubsystem = "client"
)

// clientMetrics holds the Prometheus collectors for one client. A nil
// *clientMetrics disables recording, so every method is nil-safe.
type clientMetrics struct {
	packetsSent     *prometheus.CounterVec
	packetsReceived *prometheus.CounterVec
	decodeErrors    prometheus.Counter
	connects        prometheus.Counter
	disconnects     *prometheus.CounterVec
	probes          *prometheus.CounterVec
	pendingAcks     prometheus.Gauge
	ackRoundtrip    prometheus.Histogram
}

// newClientMetrics registers the client collectors on reg. Returns nil
// when reg is nil, which disables metrics entirely.
func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	if reg == nil {
		return nil
	}
	factory := promauto.With(reg)
	return &clientMetrics{
		packetsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "packets_sent_total",
			Help:      "Total packets written to the transport, by packet type.",
		}, []string{"type"}),
		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "packets_received_total",
			Help:      "Total packets decoded from the transport, by packet type.",
		}, []string{"type"}),
		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "decode_errors_total",
			Help:      "Total inbound frames dropped because they failed to decode.",
		}),
		connects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "connects_total",
			Help:      "Total completed engine handshakes.",
		}),
		disconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "disconnects_total",
			Help:      "Total connection teardowns, by initiator.",
		}, []string{"reason"}),
		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "probes_total",
			Help:      "Total ping probes, by outcome.",
		}, []string{"result"}),
		pendingAcks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "pending_acks",
			Help:      "Acknowledgements awaiting a server reply.",
		}),
		ackRoundtrip: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "ack_roundtrip_seconds",
			Help:      "Time from emitting an event to receiving its acknowledgement.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *clientMetrics) recordPacketSent(packetType string) {
	if m == nil {
		return
	}
	m.packetsSent.WithLabelValues(packetType).Inc()
}

func (m *clientMetrics) recordPacketReceived(packetType string) {
	if m == nil {
		return
	}
	m.packetsReceived.WithLabelValues(packetType).Inc()
}

func (m *clientMetrics) recordDecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *clientMetrics) recordConnect() {
	if m == nil {
		return
	}
	m.connects.Inc()
}

func (m *clientMetrics) recordDisconnect(reason string) {
	if m == nil {
		return
	}
	m.disconnects.WithLabelValues(reason).Inc()
}

func (m *clientMetrics) recordProbe(result string) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(result).Inc()
}

func (m *clientMetrics) setPendingAcks(n int) {
	if m == nil {
		return
	}
	m.pendingAcks.Set(float64(n))
}

func (m *clientMetrics) observeAckRoundtrip(d time.Duration) {
	if m == nil {
		return
	}
	m.ackRoundtrip.Observe(d.Seconds())
}
