package world

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the diagnostics surface for failures the simulation absorbs
// silently: generation panics, rejected mutations and corrupt snapshots
// degrade to no-ops but stay observable here.
type Metrics struct {
	GenerationFailures prometheus.Counter
	RejectedMutations  prometheus.Counter
	CorruptSnapshots   prometheus.Counter

	ChunkLoads     prometheus.Counter
	ChunkEvictions prometheus.Counter
	LoadedChunks   prometheus.Gauge

	StepDuration prometheus.Histogram
}

// NewMetrics builds the metric set and registers it on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GenerationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "generation_failures_total",
			Help:      "Chunk generation passes that panicked and degraded to an empty chunk.",
		}),
		RejectedMutations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "rejected_mutations_total",
			Help:      "Place/remove requests ignored (invalid material, out-of-range height, unloaded chunk).",
		}),
		CorruptSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "corrupt_snapshots_total",
			Help:      "Snapshot restores abandoned because the payload failed validation.",
		}),
		ChunkLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "chunk_loads_total",
			Help:      "Chunks generated or re-entered into the streaming set.",
		}),
		ChunkEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "world",
			Name:      "chunk_evictions_total",
			Help:      "Chunks dropped for leaving the streaming radius.",
		}),
		LoadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "world",
			Name:      "loaded_chunks",
			Help:      "Chunks currently cached.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "world",
			Name:      "step_duration_seconds",
			Help:      "Simulation step wall time.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.GenerationFailures, m.RejectedMutations, m.CorruptSnapshots,
			m.ChunkLoads, m.ChunkEvictions, m.LoadedChunks, m.StepDuration,
		)
	}
	return m
}
