// Package metrics exposes Prometheus collectors for the snapshot codecs.
//
// A nil *Metrics is valid and records nothing, so codecs can take one
// unconditionally.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "snapwire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for frame sizes in bytes.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the frame size histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "snapwire",
		// up to one full datagram
		Buckets:  []float64{16, 64, 128, 256, 512, 1024, 1400},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics holds the codec collectors.
type Metrics struct {
	overflows      *prometheus.CounterVec
	entityDeltas   *prometheus.CounterVec
	entityRemoves  prometheus.Counter
	frames         prometheus.Counter
	frameBytes     prometheus.Histogram
	frameEntities  prometheus.Histogram
	infoRejections *prometheus.CounterVec
	demoMessages   prometheus.Counter
	demoBytes      prometheus.Counter
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		overflows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "buffer_overflows_total",
			Help:        "Message buffer overflows by overflow policy",
			ConstLabels: config.ConstLabels,
		}, []string{"policy"}),

		entityDeltas: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "entity_deltas_total",
			Help:        "Entity delta records written, by mask length in bytes",
			ConstLabels: config.ConstLabels,
		}, []string{"mask_bytes"}),

		entityRemoves: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "entity_removes_total",
			Help:        "Entity remove records written",
			ConstLabels: config.ConstLabels,
		}),

		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_total",
			Help:        "Packet-entities frames encoded",
			ConstLabels: config.ConstLabels,
		}),

		frameBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_bytes",
			Help:        "Size of encoded packet-entities frames in bytes",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		frameEntities: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frame_entities",
			Help:        "Entities present in encoded frames",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 8, 32, 128, 512, 1024},
		}),

		infoRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "info_rejections_total",
			Help:        "Rejected info string writes by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		demoMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "demo_messages_total",
			Help:        "Messages written to demo recordings",
			ConstLabels: config.ConstLabels,
		}),

		demoBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "demo_bytes_total",
			Help:        "Message bytes written to demo recordings",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// RecordOverflow records a buffer overflow. Its signature matches
// sizebuf.OverflowFunc so it can be installed directly as a buffer hook.
func (m *Metrics) RecordOverflow(capacity, need int, allowed bool) {
	if m == nil {
		return
	}
	policy := "fatal"
	if allowed {
		policy = "discard"
	}
	m.overflows.WithLabelValues(policy).Inc()
}

// RecordEntityDelta records one entity delta with the given mask length.
func (m *Metrics) RecordEntityDelta(maskBytes int) {
	if m == nil {
		return
	}
	m.entityDeltas.WithLabelValues(strconv.Itoa(maskBytes)).Inc()
}

// RecordEntityRemove records one remove record.
func (m *Metrics) RecordEntityRemove() {
	if m == nil {
		return
	}
	m.entityRemoves.Inc()
}

// RecordFrame records an encoded frame.
func (m *Metrics) RecordFrame(bytes, entities int) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.frameBytes.Observe(float64(bytes))
	m.frameEntities.Observe(float64(entities))
}

// RecordInfoRejection records a rejected info string write.
func (m *Metrics) RecordInfoRejection(reason string) {
	if m == nil || reason == "" {
		return
	}
	m.infoRejections.WithLabelValues(reason).Inc()
}

// RecordDemoMessage records a message appended to a demo.
func (m *Metrics) RecordDemoMessage(bytes int) {
	if m == nil {
		return
	}
	m.demoMessages.Inc()
	m.demoBytes.Add(float64(bytes))
}
