package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/craftwire/pkg/packet"
)

// MetricsConfig configures connection metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "craftwire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "client").
	Subsystem string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Registry is where metrics are registered (default: prometheus.DefaultRegisterer).
	Registry prometheus.Registerer
}

// MetricsOption configures MetricsConfig.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets labels added to every metric.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "craftwire",
		Subsystem: "client",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for connections. One Metrics may
// be shared by many connections; all methods accept a nil receiver.
type Metrics struct {
	packetsReceived *prometheus.CounterVec
	packetsSent     *prometheus.CounterVec
	bytesReceived   prometheus.Counter
	bytesSent       prometheus.Counter
	listenerErrors  *prometheus.CounterVec
	readTimeouts    prometheus.Counter
	connects        *prometheus.CounterVec
	state           prometheus.Gauge
}

// NewMetrics creates and registers connection metrics.
//
// Metrics collected (default namespace and subsystem):
//   - craftwire_client_packets_received_total: by state and packet type
//   - craftwire_client_packets_sent_total: by state and packet type
//   - craftwire_client_bytes_received_total / bytes_sent_total: wire bytes
//   - craftwire_client_listener_errors_total: by direction
//   - craftwire_client_read_timeouts_total
//   - craftwire_client_connects_total: by result
//   - craftwire_client_state: protocol state of the last transition
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "packets_received_total",
			Help:        "Total number of packets received",
			ConstLabels: config.ConstLabels,
		}, []string{"state", "type"}),

		packetsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "packets_sent_total",
			Help:        "Total number of packets sent",
			ConstLabels: config.ConstLabels,
		}, []string{"state", "type"}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_received_total",
			Help:        "Total bytes read from the socket",
			ConstLabels: config.ConstLabels,
		}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_sent_total",
			Help:        "Total bytes written to the socket",
			ConstLabels: config.ConstLabels,
		}),

		listenerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listener_errors_total",
			Help:        "Total listener errors and panics",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		readTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "read_timeouts_total",
			Help:        "Total read deadlines that passed without data",
			ConstLabels: config.ConstLabels,
		}),

		connects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connects_total",
			Help:        "Total Connect and Ping attempts by result",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "result"}),

		state: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "state",
			Help:        "Protocol state of the most recent transition (0 handshaking, 1 status, 2 login, 3 play)",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) packetReceived(state packet.State, p packet.Packet) {
	if m == nil {
		return
	}
	m.packetsReceived.WithLabelValues(state.String(), p.Type().Name()).Inc()
}

func (m *Metrics) packetSent(state packet.State, p packet.Packet) {
	if m == nil {
		return
	}
	m.packetsSent.WithLabelValues(state.String(), p.Type().Name()).Inc()
}

func (m *Metrics) received(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesReceived.Add(float64(n))
}

func (m *Metrics) sent(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesSent.Add(float64(n))
}

func (m *Metrics) listenerError(outgoing bool, n int) {
	if m == nil {
		return
	}
	dir := "inbound"
	if outgoing {
		dir = "outgoing"
	}
	m.listenerErrors.WithLabelValues(dir).Add(float64(n))
}

func (m *Metrics) readTimeout() {
	if m == nil {
		return
	}
	m.readTimeouts.Inc()
}

func (m *Metrics) connectResult(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = errorClass(err)
	}
	m.connects.WithLabelValues(op, result).Inc()
}

func (m *Metrics) stateChanged(s packet.State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}
