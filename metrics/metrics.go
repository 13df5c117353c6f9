// Package metrics defines the Prometheus collectors of linemq brokers.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Keys for linemq metrics.
const (
	Fail = "fail"
	Ok   = "ok"
)

// Collectors of broker connections and requests.
var (
	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "linemq_connections_total",
		Help: "Cumulative number of accepted client connections.",
	})
	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "linemq_connections_active",
		Help: "Number of client connections currently being served.",
	})
	ConnectionFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "linemq_connection_failures_total",
		Help: "Cumulative number of client connections closed due to an I/O error.",
	})
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linemq_requests_total",
		Help: "Cumulative number of served requests, by command and response status.",
	}, []string{"command", "status"})
)

// Collectors of topic messages.
var (
	ProducedMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linemq_produced_messages_total",
		Help: "Cumulative number of messages produced, by topic.",
	}, []string{"topic"})
	ProducedBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linemq_produced_bytes_total",
		Help: "Cumulative number of message content bytes produced, by topic.",
	}, []string{"topic"})
	ConsumedMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linemq_consumed_messages_total",
		Help: "Cumulative number of messages consumed, by topic.",
	}, []string{"topic"})
	ConsumeWaitSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linemq_consume_wait_seconds",
		Help:    "Duration a consume spent blocked awaiting a message, by topic.",
		Buckets: []float64{.001, .01, .1, 1, 10, 60, 600},
	}, []string{"topic"})
)

// Descriptors of per-partition gauges, which are collected from the broker
// topic registry at scrape time.
var (
	PartitionDepthDesc = prometheus.NewDesc(
		"linemq_partition_depth",
		"Number of messages queued in the partition.",
		[]string{"topic", "partition"}, nil)
	PartitionBytesDesc = prometheus.NewDesc(
		"linemq_partition_bytes",
		"Number of message content bytes queued in the partition.",
		[]string{"topic", "partition"}, nil)
	PartitionBlockedConsumersDesc = prometheus.NewDesc(
		"linemq_partition_blocked_consumers",
		"Number of consumers blocked awaiting a message of the partition.",
		[]string{"topic", "partition"}, nil)
)

// BrokerCollectors returns the package collectors used by linemq brokers.
func BrokerCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		ConnectionsTotal,
		ConnectionsActive,
		ConnectionFailuresTotal,
		RequestsTotal,
		ProducedMessagesTotal,
		ProducedBytesTotal,
		ConsumedMessagesTotal,
		ConsumeWaitSeconds,
	}
}
