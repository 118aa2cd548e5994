// Package metrics exposes Prometheus metrics for the planter server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/afroash/smart-planter/internal/trend"
)

const metricPrefix = "planter_"

// Alert label values
const (
	alertLowWater    = "low_water"
	alertLowMoisture = "low_moisture"
)

// Metrics holds all collectors. Create one per registry.
type Metrics struct {
	snapshotsLoaded *prometheus.CounterVec
	sourceErrors    *prometheus.CounterVec
	alertActive     *prometheus.GaugeVec
	wateringEvents  *prometheus.GaugeVec
	samples         *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	streamClients   prometheus.Gauge
	streamDropped   prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		snapshotsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshots_loaded_total",
				Help: "New snapshots accepted from a source.",
			},
			[]string{"plant_id"},
		),
		sourceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "source_errors_total",
				Help: "Failed source loads.",
			},
			[]string{"plant_id"},
		),
		alertActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "alert_active",
				Help: "1 when the alert is raised for the latest reading.",
			},
			[]string{"plant_id", "alert"},
		),
		wateringEvents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "watering_events",
				Help: "Watering events in the current trend.",
			},
			[]string{"plant_id"},
		),
		samples: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "trend_samples",
				Help: "Samples in the current trend.",
			},
			[]string{"plant_id"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"route"},
		),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "stream_clients",
			Help: "Connected stream clients.",
		}),
		streamDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "stream_dropped_total",
			Help: "Stream updates dropped for slow clients.",
		}),
	}

	reg.MustRegister(
		m.snapshotsLoaded,
		m.sourceErrors,
		m.alertActive,
		m.wateringEvents,
		m.samples,
		m.httpRequests,
		m.httpLatency,
		m.streamClients,
		m.streamDropped,
	)
	return m
}

// ObserveSnapshot records a new snapshot and the view derived from it
func (m *Metrics) ObserveSnapshot(plantID string, d trend.Dashboard) {
	m.snapshotsLoaded.WithLabelValues(plantID).Inc()
	m.alertActive.WithLabelValues(plantID, alertLowWater).Set(boolGauge(d.Home.Alerts.LowWater))
	m.alertActive.WithLabelValues(plantID, alertLowMoisture).Set(boolGauge(d.Home.Alerts.LowMoisture))
	m.wateringEvents.WithLabelValues(plantID).Set(float64(len(d.Trend.Events)))
	m.samples.WithLabelValues(plantID).Set(float64(len(d.Trend.Samples)))
}

// SourceError counts a failed load
func (m *Metrics) SourceError(plantID string) {
	m.sourceErrors.WithLabelValues(plantID).Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// StreamConnected adjusts the connected client gauge by delta
func (m *Metrics) StreamConnected(delta int) {
	m.streamClients.Add(float64(delta))
}

// StreamDropped counts an update skipped for a slow client
func (m *Metrics) StreamDropped() {
	m.streamDropped.Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
