package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	receiverPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pktframe",
			Subsystem: "receiver",
			Name:      "packets_total",
			Help:      "Packets classified by the receiver, by terminal result.",
		},
		[]string{"source", "result"},
	)
	receiverBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pktframe",
			Subsystem: "receiver",
			Name:      "bytes_total",
			Help:      "Bytes consumed from the byte source.",
		},
		[]string{"source"},
	)
	receiverDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pktframe",
			Subsystem: "receiver",
			Name:      "dropped_bytes_total",
			Help:      "Bytes consumed but discarded: invalid, stale, truncated or resynchronizing.",
		},
		[]string{"source"},
	)
	receiverPacketSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pktframe",
			Subsystem: "receiver",
			Name:      "packet_size_bytes",
			Help:      "Total wire size of valid packets.",
			Buckets:   prometheus.LinearBuckets(16, 16, 16),
		},
		[]string{"source"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pktframe",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pktframe",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			receiverPackets,
			receiverBytes,
			receiverDropped,
			receiverPacketSize,
			httpRequests,
			httpDuration,
		)
	})
}

// RecordPacket counts one terminal classification. size is only observed
// for valid packets.
func RecordPacket(source, result string, size int) {
	RegisterMetrics()
	receiverPackets.WithLabelValues(source, result).Inc()
	if result == "valid" {
		receiverPacketSize.WithLabelValues(source).Observe(float64(size))
	}
}

func RecordBytes(source string, n int) {
	RegisterMetrics()
	receiverBytes.WithLabelValues(source).Add(float64(n))
}

func RecordDropped(source string, n int) {
	RegisterMetrics()
	receiverDropped.WithLabelValues(source).Add(float64(n))
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}
