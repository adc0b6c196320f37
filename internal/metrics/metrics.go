// Package metrics exports chord engine activity as Prometheus metrics.
//
// Metrics are fed from engine lifecycle hooks, so the engine itself stays
// free of any metrics dependency:
//
//	m := metrics.New(chordNames)
//	eng, err := engine.New(cat, window, engine.WithHooks(m.Hooks()))
package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/keychord/internal/engine"
)

// Metrics holds the engine counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	names    []string

	activations *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	releases    *prometheus.CounterVec
	timeouts    prometheus.Counter
	evictions   prometheus.Counter
	deliveryAge prometheus.Histogram
}

// New creates metrics for a catalog. names[i] labels catalog entry i.
func New(names []string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		names:    names,
		activations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keychord_chord_activations_total",
				Help: "Total number of chord matches",
			},
			[]string{"chord"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keychord_chord_deliveries_total",
				Help: "Total number of chords handed to the layout engine",
			},
			[]string{"chord", "tap"},
		),
		releases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keychord_chord_releases_total",
				Help: "Total number of virtual chord releases",
			},
			[]string{"chord"},
		),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keychord_timeouts_total",
			Help: "Total number of presses that left the chord queue unmatched",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keychord_queue_evictions_total",
			Help: "Total number of events dropped by chord queue overflow",
		}),
		deliveryAge: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "keychord_delivery_age_ticks",
			Help:    "Ticks between chord activation and delivery",
			Buckets: []float64{0, 1, 2, 4, 8, 16},
		}),
	}

	m.registry.MustRegister(
		m.activations,
		m.deliveries,
		m.releases,
		m.timeouts,
		m.evictions,
		m.deliveryAge,
	)
	return m
}

// Hooks returns engine hooks that update the metrics.
func (m *Metrics) Hooks() engine.Hooks {
	return engine.Hooks{
		OnActivate: func(ev engine.ChordEvent) {
			m.activations.WithLabelValues(m.name(ev.Chord)).Inc()
		},
		OnDeliver: func(ev engine.ChordEvent, alsoRelease bool) {
			m.deliveries.WithLabelValues(m.name(ev.Chord), strconv.FormatBool(alsoRelease)).Inc()
			m.deliveryAge.Observe(float64(ev.Age))
		},
		OnRelease: func(ev engine.ChordEvent) {
			m.releases.WithLabelValues(m.name(ev.Chord)).Inc()
		},
		OnTimeout: func(engine.Queued) {
			m.timeouts.Inc()
		},
		OnEvict: func(engine.Queued) {
			m.evictions.Inc()
		},
	}
}

// name labels catalog entry i, falling back to its index.
func (m *Metrics) name(i int) string {
	if i >= 0 && i < len(m.names) {
		return m.names[i]
	}
	return "chord" + strconv.Itoa(i)
}

// WriteText writes the current metrics in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
