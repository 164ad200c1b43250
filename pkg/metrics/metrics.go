// Package metrics Prometheus-метрики агента синхронизации.
// Все методы безопасны для nil-получателя: при выключенных метриках
// сервисы получают nil и ничего не пишут.
package metrics

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор коллекторов сервиса
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration    *prometheus.HistogramVec
	DBOpenConnections  prometheus.Gauge
	DBInUseConnections prometheus.Gauge
	DBWaitCount        prometheus.Gauge

	SyncCyclesTotal   *prometheus.CounterVec
	SyncCycleDuration prometheus.Histogram
	SyncAreaErrors    *prometheus.CounterVec
	SyncedRecords     *prometheus.CounterVec

	QueueDepth       prometheus.Gauge
	QueueAttempts    *prometheus.CounterVec
	QueueEvictions   prometheus.Counter
	UnsyncedRecords  prometheus.Gauge
	ConnectivityUp   prometheus.Gauge
	RemoteAPILatency *prometheus.HistogramVec
}

// New создает и регистрирует коллекторы в собственном реестре
func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of local API requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Local API request duration",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Local store query duration",
			ConstLabels: labels,
			Buckets:     []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation"}),
		DBOpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Open connections to the local store",
			ConstLabels: labels,
		}),
		DBInUseConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Connections currently in use",
			ConstLabels: labels,
		}),
		DBWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: labels,
		}),
		SyncCyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "washsync_sync_cycles_total",
			Help:        "Sync cycles by outcome",
			ConstLabels: labels,
		}, []string{"result"}),
		SyncCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "washsync_sync_cycle_duration_seconds",
			Help:        "Duration of a full sync cycle",
			ConstLabels: labels,
			Buckets:     []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		SyncAreaErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "washsync_sync_area_errors_total",
			Help:        "Errors per sync area",
			ConstLabels: labels,
		}, []string{"area", "class"}),
		SyncedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "washsync_synced_records_total",
			Help:        "Records written by sync areas",
			ConstLabels: labels,
		}, []string{"area"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "washsync_queue_depth",
			Help:        "Pending entries in the sync queue",
			ConstLabels: labels,
		}),
		QueueAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "washsync_queue_attempts_total",
			Help:        "Queue drain attempts by payload kind and outcome",
			ConstLabels: labels,
		}, []string{"kind", "result"}),
		QueueEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "washsync_queue_evictions_total",
			Help:        "Entries dropped after reaching the retry ceiling",
			ConstLabels: labels,
		}),
		UnsyncedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "washsync_unsynced_records",
			Help:        "Local bookings and wallets not yet confirmed by the server",
			ConstLabels: labels,
		}),
		ConnectivityUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "washsync_online",
			Help:        "1 when the device is online",
			ConstLabels: labels,
		}),
		RemoteAPILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "washsync_remote_api_duration_seconds",
			Help:        "Remote API call duration by endpoint and envelope status",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBWaitCount,
		m.SyncCyclesTotal,
		m.SyncCycleDuration,
		m.SyncAreaErrors,
		m.SyncedRecords,
		m.QueueDepth,
		m.QueueAttempts,
		m.QueueEvictions,
		m.UnsyncedRecords,
		m.ConnectivityUp,
		m.RemoteAPILatency,
	)

	return m
}

// Handler HTTP-обработчик для /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry реестр коллекторов
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveQuery(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveSyncCycle(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncCyclesTotal.WithLabelValues(result).Inc()
	m.SyncCycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SyncAreaError(area, class string) {
	if m == nil {
		return
	}
	m.SyncAreaErrors.WithLabelValues(area, class).Inc()
}

func (m *Metrics) RecordsSynced(area string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SyncedRecords.WithLabelValues(area).Add(float64(n))
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) QueueAttempt(kind, result string) {
	if m == nil {
		return
	}
	m.QueueAttempts.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) QueueEvicted() {
	if m == nil {
		return
	}
	m.QueueEvictions.Inc()
}

func (m *Metrics) SetUnsynced(n int) {
	if m == nil {
		return
	}
	m.UnsyncedRecords.Set(float64(n))
}

func (m *Metrics) SetOnline(online bool) {
	if m == nil {
		return
	}
	if online {
		m.ConnectivityUp.Set(1)
		return
	}
	m.ConnectivityUp.Set(0)
}

func (m *Metrics) ObserveRemoteCall(endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RemoteAPILatency.WithLabelValues(endpoint, status).Observe(d.Seconds())
}

// SetPoolStats публикует статистику пула соединений локального хранилища
func (m *Metrics) SetPoolStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBOpenConnections.Set(float64(stats.OpenConnections))
	m.DBInUseConnections.Set(float64(stats.InUse))
	m.DBWaitCount.Set(float64(stats.WaitCount))
}
