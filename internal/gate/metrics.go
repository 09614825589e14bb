package gate

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	configpkg "github.com/pageloom/eventgate/internal/gate/config"
)

// Result labels used on the emissions counter.
const (
	emitResultValidated = "validated"
	emitResultForwarded = "forwarded"
	emitResultRejected  = "rejected"
)

// EmissionMetrics tracks per-event-type emission statistics alongside
// Prometheus collectors.
type EmissionMetrics struct {
	mu sync.RWMutex

	types        map[string]*TypeMetrics
	uncatalogued uint64
	latency      *latencyWindow
	resources    *resourceTracker

	emissionsTotal    *prometheus.CounterVec
	validationSeconds *prometheus.HistogramVec
	validationAvg     *prometheus.GaugeVec
	uncataloguedTotal *prometheus.CounterVec

	registerer prometheus.Registerer
	registered bool
}

// TypeMetrics holds the counters recorded for a single event type.
type TypeMetrics struct {
	Count             uint64    `json:"count"`
	Validated         uint64    `json:"validated"`
	Failures          uint64    `json:"failures"`
	TotalValidationNs int64     `json:"total_validation_ns"`
	AvgValidationNs   int64     `json:"avg_validation_ns"`
	FirstEmittedAt    time.Time `json:"first_emitted_at,omitempty"`
	LastEmittedAt     time.Time `json:"last_emitted_at,omitempty"`
	LastError         string    `json:"last_error,omitempty"`
}

// TypeSnapshot pairs an event type with a copy of its metrics.
type TypeSnapshot struct {
	EventType string `json:"event_type"`
	TypeMetrics
}

// EmissionSnapshot provides a point-in-time view of all emission metrics.
// Mode and CatalogSize are stamped by the emitter's Metrics method; snapshots
// taken directly from an EmissionMetrics leave them zero.
type EmissionSnapshot struct {
	Mode          configpkg.Mode `json:"mode,omitempty"`
	CatalogSize   int            `json:"catalog_size,omitempty"`
	Uncatalogued  uint64         `json:"uncatalogued"`
	TotalCount    uint64         `json:"total_count"`
	TotalFailures uint64         `json:"total_failures"`
	Types         []TypeSnapshot `json:"types"`
	Validation    LatencyMetrics `json:"validation"`
	Resource      ResourceUsage  `json:"resource"`
	CollectedAt   time.Time      `json:"collected_at"`
}

// newEmitterCounterVec creates a counter vec under the eventgate/emitter namespace.
func newEmitterCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventgate",
			Subsystem: "emitter",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// newEmitterGaugeVec creates a gauge vec under the eventgate/emitter namespace.
func newEmitterGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "eventgate",
			Subsystem: "emitter",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// newEmitterHistogramVec creates a histogram vec under the eventgate/emitter namespace.
func newEmitterHistogramVec(name, help string, buckets []float64, labels []string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventgate",
			Subsystem: "emitter",
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}

// NewEmissionMetrics creates a new emission metrics store.
func NewEmissionMetrics(registerer prometheus.Registerer) *EmissionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &EmissionMetrics{
		types:             make(map[string]*TypeMetrics),
		latency:           newLatencyWindow(latencySampleSize),
		resources:         newResourceTracker(),
		registerer:        registerer,
		emissionsTotal:    newEmitterCounterVec("emissions_total", "Total number of emissions by event type and result", []string{"type", "result"}),
		validationSeconds: newEmitterHistogramVec("validation_seconds", "Time spent normalizing and validating payloads", []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}, []string{"type"}),
		validationAvg:     newEmitterGaugeVec("validation_avg_seconds", "Running average validation time by event type", []string{"type"}),
		uncataloguedTotal: newEmitterCounterVec("uncatalogued_total", "Total number of emissions whose event type has no schema", []string{"type"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple times.
func (m *EmissionMetrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.emissionsTotal,
		m.validationSeconds,
		m.validationAvg,
		m.uncataloguedTotal,
	}

	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

// RecordSuccess records a forwarded emission. A positive elapsed duration
// marks a validated emission and feeds the validation timing accounts; pass
// zero for forwards that skipped validation so the running average stays an
// average over validated emissions only.
func (m *EmissionMetrics) RecordSuccess(eventType string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateTypeMetrics(eventType)
	metrics.Count++
	now := time.Now().UTC()
	if metrics.FirstEmittedAt.IsZero() {
		metrics.FirstEmittedAt = now
	}
	metrics.LastEmittedAt = now

	if elapsed <= 0 {
		m.emissionsTotal.WithLabelValues(eventType, emitResultForwarded).Inc()
		return
	}

	metrics.Validated++
	metrics.TotalValidationNs += int64(elapsed)
	metrics.AvgValidationNs = metrics.TotalValidationNs / int64(metrics.Validated)
	m.latency.Add(elapsed)

	m.emissionsTotal.WithLabelValues(eventType, emitResultValidated).Inc()
	m.validationSeconds.WithLabelValues(eventType).Observe(elapsed.Seconds())
	m.validationAvg.WithLabelValues(eventType).Set(float64(metrics.AvgValidationNs) / float64(time.Second))
}

// RecordFailure records a rejected emission. The validation average only
// covers successes, so failures leave the timing accounts untouched.
func (m *EmissionMetrics) RecordFailure(eventType string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateTypeMetrics(eventType)
	metrics.Failures++
	if err != nil {
		metrics.LastError = err.Error()
	}

	m.emissionsTotal.WithLabelValues(eventType, emitResultRejected).Inc()
}

// RecordUncatalogued records an emission whose event type has no schema. The
// per-type tally lives only in Prometheus; the store keeps a single global
// counter.
func (m *EmissionMetrics) RecordUncatalogued(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uncatalogued++
	m.uncataloguedTotal.WithLabelValues(eventType).Inc()
}

// Snapshot returns a point-in-time copy of all emission metrics with types
// sorted by name.
func (m *EmissionMetrics) Snapshot() EmissionSnapshot {
	m.mu.RLock()

	snapshot := EmissionSnapshot{
		Uncatalogued: m.uncatalogued,
		Types:        make([]TypeSnapshot, 0, len(m.types)),
		Validation:   m.latency.Snapshot(),
		CollectedAt:  time.Now().UTC(),
	}

	for eventType, metrics := range m.types {
		snapshot.Types = append(snapshot.Types, TypeSnapshot{
			EventType:   eventType,
			TypeMetrics: *metrics,
		})
		snapshot.TotalCount += metrics.Count
		snapshot.TotalFailures += metrics.Failures
	}
	resources := m.resources
	m.mu.RUnlock()

	sort.Slice(snapshot.Types, func(i, j int) bool {
		return snapshot.Types[i].EventType < snapshot.Types[j].EventType
	})

	snapshot.Resource = resources.Snapshot()
	return snapshot
}

// GetTypeMetrics returns a copy of the metrics for a specific event type, or
// nil when nothing has been recorded for it.
func (m *EmissionMetrics) GetTypeMetrics(eventType string) *TypeMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if metrics, ok := m.types[eventType]; ok {
		clone := *metrics
		return &clone
	}
	return nil
}

// Uncatalogued returns the global uncatalogued emission counter.
func (m *EmissionMetrics) Uncatalogued() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uncatalogued
}

func (m *EmissionMetrics) getOrCreateTypeMetrics(eventType string) *TypeMetrics {
	if metrics, ok := m.types[eventType]; ok {
		return metrics
	}
	metrics := &TypeMetrics{}
	m.types[eventType] = metrics
	return metrics
}

// Reset resets all metrics (useful for testing).
func (m *EmissionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.types = make(map[string]*TypeMetrics)
	m.uncatalogued = 0
	m.latency = newLatencyWindow(latencySampleSize)
	m.emissionsTotal.Reset()
	m.validationSeconds.Reset()
	m.validationAvg.Reset()
	m.uncataloguedTotal.Reset()
}

// WriteSummary writes an aligned human-readable digest of the snapshot.
func (s EmissionSnapshot) WriteSummary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "EMISSION SUMMARY")
	if s.Mode != "" {
		fmt.Fprintf(tw, "  mode=%s", s.Mode)
	}
	if s.CatalogSize > 0 {
		fmt.Fprintf(tw, "  catalog=%d types", s.CatalogSize)
	}
	fmt.Fprintf(tw, "  uncatalogued=%d\n", s.Uncatalogued)
	if !s.CollectedAt.IsZero() {
		fmt.Fprintf(tw, "collected %s\n", s.CollectedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintln(tw)

	if len(s.Types) == 0 {
		fmt.Fprintln(tw, "(no emissions recorded)")
		return tw.Flush()
	}

	fmt.Fprintln(tw, "TYPE\tCOUNT\tFAILED\tAVG MS\tLAST EMITTED")
	for _, ts := range s.Types {
		last := "-"
		if !ts.LastEmittedAt.IsZero() {
			last = ts.LastEmittedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.3f\t%s\n",
			ts.EventType, ts.Count, ts.Failures, float64(ts.AvgValidationNs)/1e6, last)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t\t\n", s.TotalCount, s.TotalFailures)

	if s.Resource.Goroutines > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "goroutines=%d  mem=%.1f MiB  cpu=%.1f%%\n",
			s.Resource.Goroutines, float64(s.Resource.MemoryBytes)/(1<<20), s.Resource.CPUPercent)
	}

	return tw.Flush()
}
