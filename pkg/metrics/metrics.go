package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы заказов.
var (
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_orders_total",
			Help: "Number of processed orders by final status and error code",
		},
		[]string{"status", "error_code"},
	)
	HomeAssistantRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ha_request_duration_seconds",
			Help:    "Duration of Home Assistant service calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"domain", "outcome"}, // outcome: success|http_error|transport_error|...
	)
)

var (
	KafkaMessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Number of messages fetched from Kafka",
		},
		[]string{"topic"},
	)
	KafkaMessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Number of orders from Kafka executed successfully",
		},
		[]string{"topic"},
	)
	KafkaMessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_failed_total",
			Help: "Number of orders from Kafka rejected or failed",
		},
		[]string{"topic"},
	)
	KafkaResultsPublishFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_results_publish_failed_total",
			Help: "Number of result envelopes that could not be published",
		},
		[]string{"topic"},
	)
)

var registerOnce sync.Once

// MustRegister — регистрирует метрики в default registry; повторный вызов безопасен.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			OrdersTotal,
			HomeAssistantRequestDuration,
			KafkaMessagesConsumed,
			KafkaMessagesProcessed,
			KafkaMessagesFailed,
			KafkaResultsPublishFailed,
		)
	})
}
