package gate

import (
	"strings"
	"testing"
	"time"

	schemapkg "github.com/pageloom/eventgate/internal/gate/schema"
)

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{
		EventType: "system.health_check",
		Issues: []schemapkg.Issue{
			schemapkg.Issuef("status", "must be one of ok, degraded, error"),
			schemapkg.Issuef("timestamp", "timestamp is required"),
		},
	}

	msg := err.Error()
	for _, want := range []string{"system.health_check", "status:", "timestamp:"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message missing %q: %s", want, msg)
		}
	}
}

func TestValidationErrorWithoutIssues(t *testing.T) {
	err := &ValidationError{EventType: "ui.theme_changed"}
	if !strings.Contains(err.Error(), "no issues reported") {
		t.Errorf("message = %s", err.Error())
	}
}

func TestUncataloguedTypeErrorMessage(t *testing.T) {
	strict := &UncataloguedTypeError{EventType: "made.up.event", Strict: true}
	if !strings.Contains(strict.Error(), "strict validation") {
		t.Errorf("strict message = %s", strict.Error())
	}

	soft := &UncataloguedTypeError{EventType: "made.up.event"}
	if strings.Contains(soft.Error(), "strict") {
		t.Errorf("soft message = %s", soft.Error())
	}
}

func TestLatencyWindowPercentiles(t *testing.T) {
	lw := newLatencyWindow(8)
	for i := 1; i <= 8; i++ {
		lw.Add(time.Duration(i) * time.Millisecond)
	}

	s := lw.Snapshot()
	if s.SampleSize != 8 {
		t.Fatalf("sample size = %d", s.SampleSize)
	}
	if s.LastNs != int64(8*time.Millisecond) {
		t.Errorf("last = %d", s.LastNs)
	}
	if s.P50Ns < int64(4*time.Millisecond) || s.P50Ns > int64(5*time.Millisecond) {
		t.Errorf("p50 = %d", s.P50Ns)
	}
	if s.P99Ns > int64(8*time.Millisecond) {
		t.Errorf("p99 = %d", s.P99Ns)
	}
	if want := int64(4500 * time.Microsecond); s.AverageNs != want {
		t.Errorf("average = %d, want %d", s.AverageNs, want)
	}
}

func TestLatencyWindowWrapsAround(t *testing.T) {
	lw := newLatencyWindow(4)
	for i := 1; i <= 10; i++ {
		lw.Add(time.Duration(i) * time.Millisecond)
	}

	s := lw.Snapshot()
	if s.SampleSize != 4 {
		t.Fatalf("sample size = %d", s.SampleSize)
	}
	// Only the last four samples (7..10ms) remain.
	if s.AverageNs != int64(8500*time.Microsecond) {
		t.Errorf("average = %d", s.AverageNs)
	}
}

func TestLatencyWindowEmpty(t *testing.T) {
	s := newLatencyWindow(4).Snapshot()
	if s.SampleSize != 0 || s.AverageNs != 0 {
		t.Errorf("empty snapshot = %+v", s)
	}
}
