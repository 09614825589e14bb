package gate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	schemapkg "github.com/pageloom/eventgate/internal/gate/schema"
)

const latencySampleSize = 256

// ValidationError reports a payload that failed schema validation. The bus is
// never invoked for the offending emission.
type ValidationError struct {
	EventType string
	Issues    []schemapkg.Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("eventgate: invalid payload for %q: %s", e.EventType, joinIssues(e.Issues))
}

// UncataloguedTypeError reports an emission whose event type has no schema in
// the catalog. Strict mode panics with this error unless the type is
// allowlisted; soft mode never raises it.
type UncataloguedTypeError struct {
	EventType string
	Strict    bool
}

func (e *UncataloguedTypeError) Error() string {
	if e.Strict {
		return fmt.Sprintf("eventgate: event type %q is not in the schema catalog (strict validation)", e.EventType)
	}
	return fmt.Sprintf("eventgate: event type %q is not in the schema catalog", e.EventType)
}

func joinIssues(issues []schemapkg.Issue) string {
	if len(issues) == 0 {
		return "no issues reported"
	}
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

// LatencyMetrics summarizes validation latency over a sliding sample window.
type LatencyMetrics struct {
	AverageNs  int64 `json:"average_ns"`
	P50Ns      int64 `json:"p50_ns"`
	P95Ns      int64 `json:"p95_ns"`
	P99Ns      int64 `json:"p99_ns"`
	LastNs     int64 `json:"last_ns"`
	SampleSize int   `json:"sample_size"`
}

// ResourceUsage captures coarse process-level usage at snapshot time.
type ResourceUsage struct {
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryBytes uint64  `json:"memory_bytes"`
	Goroutines  int     `json:"goroutines"`
}

type latencyWindow struct {
	samples []int64
	next    int
	filled  int
	last    int64
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = latencySampleSize
	}
	return &latencyWindow{samples: make([]int64, size)}
}

func (lw *latencyWindow) Add(d time.Duration) {
	if lw == nil || len(lw.samples) == 0 {
		return
	}
	lw.samples[lw.next] = int64(d)
	lw.last = int64(d)
	lw.next = (lw.next + 1) % len(lw.samples)
	if lw.filled < len(lw.samples) {
		lw.filled++
	}
}

func (lw *latencyWindow) Snapshot() LatencyMetrics {
	var metrics LatencyMetrics
	if lw == nil {
		return metrics
	}
	if lw.filled == 0 {
		metrics.LastNs = lw.last
		return metrics
	}
	samples := make([]int64, lw.filled)
	for i := 0; i < lw.filled; i++ {
		idx := lw.next - lw.filled + i
		if idx < 0 {
			idx += len(lw.samples)
		}
		samples[i] = lw.samples[idx]
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	metrics.SampleSize = lw.filled
	metrics.P50Ns = percentile(samples, 0.50)
	metrics.P95Ns = percentile(samples, 0.95)
	metrics.P99Ns = percentile(samples, 0.99)
	var sum int64
	for _, v := range samples {
		sum += v
	}
	metrics.AverageNs = sum / int64(len(samples))
	metrics.LastNs = lw.last
	return metrics
}

func percentile(samples []int64, quantile float64) int64 {
	if len(samples) == 0 {
		return 0
	}
	if quantile <= 0 {
		return samples[0]
	}
	if quantile >= 1 {
		return samples[len(samples)-1]
	}
	pos := quantile * float64(len(samples)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return samples[lower]
	}
	frac := pos - float64(lower)
	return samples[lower] + int64(float64(samples[upper]-samples[lower])*frac)
}
