package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/faultdrill/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig controls metric collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Textfile, when set, receives the metrics in the node-exporter
	// textfile format after every flush.
	Textfile  string `yaml:"textfile"`
	Namespace string `yaml:"namespace" validate:"omitempty,alphanum"`
}

// DefaultMetricsConfig collects metrics without writing them anywhere.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Enabled: true, Namespace: "faultdrill"}
}

var siteStatuses = []models.SiteStatus{models.SiteNormal, models.SiteWatch, models.SiteStopWork}

// Metrics holds the faultdrill collectors. A nil *Metrics, or one built
// with Enabled false, discards every observation.
type Metrics struct {
	config MetricsConfig

	workOrdersCreated *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	breachesDetected  *prometheus.CounterVec
	incidents         *prometheus.CounterVec
	lastBreaches      prometheus.Gauge
	siteStatus        *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics set on a private registry.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	ns := cfg.Namespace
	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),

		workOrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "work_orders_created_total",
			Help:      "Work orders generated from escalated incidents",
		}, []string{"priority"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "work_order_transitions_total",
			Help:      "Work-order status changes made by technicians or supervisors",
		}, []string{"status"}),
		breachesDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "sla_breaches_detected_total",
			Help:      "Work orders promoted to BREACHED by a scan",
		}, []string{"priority"}),
		incidents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "incidents_total",
			Help:      "Resolved incidents by technician result",
		}, []string{"result"}),
		lastBreaches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "scan_sla_breaches",
			Help:      "Work orders promoted to BREACHED by the last scan",
		}),
		siteStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "site_status",
			Help:      "1 for the current site status, 0 otherwise",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		m.workOrdersCreated, m.transitions, m.breachesDetected,
		m.incidents, m.lastBreaches, m.siteStatus,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	m.setSite(models.SiteNormal)
	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

// Registry exposes the underlying registry, or nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.enabled() {
		return nil
	}
	return m.registry
}

// WorkOrderCreated counts a generated work order.
func (m *Metrics) WorkOrderCreated(priority models.Priority) {
	if m.enabled() {
		m.workOrdersCreated.WithLabelValues(string(priority)).Inc()
	}
}

// WorkOrderTransition counts a status change.
func (m *Metrics) WorkOrderTransition(to models.Status) {
	if m.enabled() {
		m.transitions.WithLabelValues(string(to)).Inc()
	}
}

// BreachDetected counts a newly breached order.
func (m *Metrics) BreachDetected(priority models.Priority) {
	if m.enabled() {
		m.breachesDetected.WithLabelValues(string(priority)).Inc()
	}
}

// ObserveScan records the outcome of a breach scan.
func (m *Metrics) ObserveScan(breaches int, site models.SiteStatus) {
	if !m.enabled() {
		return
	}
	m.lastBreaches.Set(float64(breaches))
	m.setSite(site)
}

// IncidentResolved counts a technician decision.
func (m *Metrics) IncidentResolved(result models.Result) {
	if m.enabled() {
		m.incidents.WithLabelValues(string(result)).Inc()
	}
}

func (m *Metrics) setSite(site models.SiteStatus) {
	for _, s := range siteStatuses {
		v := 0.0
		if s == site {
			v = 1
		}
		m.siteStatus.WithLabelValues(string(s)).Set(v)
	}
}

// Flush writes the textfile if one is configured.
func (m *Metrics) Flush() error {
	if !m.enabled() || m.config.Textfile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.config.Textfile), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(m.config.Textfile, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
