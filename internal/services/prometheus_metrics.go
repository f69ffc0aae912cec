package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	transactionsTotal         *prometheus.CounterVec
	transactionDuration       *prometheus.HistogramVec
	balanceDeltaAmount        prometheus.Histogram
	categoriesDeletedTotal    prometheus.Counter
	cascadedTransactionsTotal prometheus.Counter
	exportsTotal              *prometheus.CounterVec
	exportDuration            prometheus.Histogram
	exportRows                prometheus.Histogram
	avatarOperationsTotal     *prometheus.CounterVec
	balanceDriftTotal         prometheus.Counter
	balanceRepairsTotal       prometheus.Counter
	usersReconciled           prometheus.Gauge
	authenticationEventsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg. cmd/api passes
// prometheus.DefaultRegisterer so the collectors show up on /metrics.
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_total",
				Help: "Total number of transaction mutations",
			},
			[]string{"operation", "status"},
		),
		transactionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transaction_mutation_duration_milliseconds",
				Help:    "Duration of balance-affecting mutations in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"operation"},
		),
		balanceDeltaAmount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "balance_delta_amount",
				Help:    "Absolute size of balance deltas applied to users",
				Buckets: prometheus.ExponentialBuckets(1, 10, 8),
			},
		),
		categoriesDeletedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "categories_deleted_total",
				Help: "Total number of categories deleted",
			},
		),
		cascadedTransactionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "category_cascaded_transactions_total",
				Help: "Total number of transactions removed by category deletes",
			},
		),
		exportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exports_total",
				Help: "Total number of transaction exports",
			},
			[]string{"format", "status"},
		),
		exportDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "export_duration_seconds",
				Help:    "Export rendering duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		exportRows: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "export_rows",
				Help:    "Number of rows per export",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		avatarOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "avatar_operations_total",
				Help: "Total number of avatar uploads and deletions",
			},
			[]string{"operation"},
		),
		balanceDriftTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "balance_drift_total",
				Help: "Total number of users found with a drifted cached balance",
			},
		),
		balanceRepairsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "balance_repairs_total",
				Help: "Total number of cached balances rewritten by reconciliation",
			},
		),
		usersReconciled: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "balance_reconciled_users",
				Help: "Number of users checked by the last reconciliation run",
			},
		),
		authenticationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	operation := tags["operation"]
	status := tags["status"]
	if status == "" {
		status = "success"
	}

	switch name {
	case "transaction_mutation":
		if operation != "" {
			m.transactionsTotal.WithLabelValues(operation, status).Inc()
		}
	case "category_deleted":
		m.categoriesDeletedTotal.Inc()
	case "export_generated":
		if format := tags["format"]; format != "" {
			m.exportsTotal.WithLabelValues(format, status).Inc()
		}
	case "avatar_operation":
		if operation != "" {
			m.avatarOperationsTotal.WithLabelValues(operation).Inc()
		}
	case "balance_drift":
		m.balanceDriftTotal.Inc()
	case "balance_repaired":
		m.balanceRepairsTotal.Inc()
	case "authentication_event":
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEventsTotal.WithLabelValues(eventType).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case "transaction_create", "transaction_update", "transaction_delete", "category_delete":
		m.transactionDuration.WithLabelValues(name).Observe(float64(duration.Milliseconds()))
	case "export":
		m.exportDuration.Observe(duration.Seconds())
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case "balance_delta":
		if value < 0 {
			value = -value
		}
		m.balanceDeltaAmount.Observe(value)
	case "category_cascaded_transactions":
		m.cascadedTransactionsTotal.Add(value)
	case "export_rows":
		m.exportRows.Observe(value)
	case "reconciled_users":
		m.usersReconciled.Set(value)
	}
}
