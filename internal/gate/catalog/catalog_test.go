package catalog

import (
	"errors"
	"strings"
	"testing"

	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
	schemapkg "github.com/pageloom/eventgate/internal/gate/schema"
)

type healthCheck struct {
	schemapkg.Envelope
	Status string `json:"status"`
}

func healthCheckSchema() schemapkg.Schema {
	return schemapkg.MustJSON("system.health_check", func(p *healthCheck) []schemapkg.Issue {
		switch p.Status {
		case "ok", "degraded", "error":
			return nil
		default:
			return []schemapkg.Issue{schemapkg.Issuef("status", "must be ok, degraded, or error, got %q", p.Status)}
		}
	})
}

type stubSchema struct {
	eventType string
}

func (s stubSchema) EventType() string { return s.eventType }

func (s stubSchema) Parse([]byte) (any, []schemapkg.Issue) { return struct{}{}, nil }

func TestNewPreservesDeclarationOrder(t *testing.T) {
	cat, err := New(
		stubSchema{eventType: "ui.theme_changed"},
		stubSchema{eventType: "account.signed_in"},
		stubSchema{eventType: "system.health_check"},
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	want := []string{"ui.theme_changed", "account.signed_in", "system.health_check"}
	got := cat.Types()
	if len(got) != len(want) {
		t.Fatalf("Types() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Types() = %v, want %v", got, want)
		}
	}
	if cat.Len() != 3 {
		t.Errorf("Len() = %d, want 3", cat.Len())
	}
}

func TestTypesReturnsCopy(t *testing.T) {
	cat := MustNew(stubSchema{eventType: "a"}, stubSchema{eventType: "b"})

	types := cat.Types()
	types[0] = "mutated"

	if cat.Types()[0] != "a" {
		t.Error("mutating the returned slice should not affect the catalog")
	}
}

func TestNewRejectsDuplicateTypes(t *testing.T) {
	_, err := New(stubSchema{eventType: "a"}, stubSchema{eventType: "a"})
	if err == nil {
		t.Fatal("expected error for duplicate event type")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention the duplicate, got %v", err)
	}
}

func TestNewRejectsEmptyEventType(t *testing.T) {
	_, err := New(stubSchema{})
	if !errors.Is(err, errspkg.ErrSchemaTypeRequired) {
		t.Fatalf("expected schema type required error, got %v", err)
	}
}

func TestNewRejectsNilSchema(t *testing.T) {
	_, err := New(stubSchema{eventType: "a"}, nil)
	if err == nil {
		t.Fatal("expected error for nil schema")
	}
}

func TestMustNewPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustNew(stubSchema{eventType: "a"}, stubSchema{eventType: "a"})
}

func TestSchemaLookup(t *testing.T) {
	cat := MustNew(healthCheckSchema())

	s, ok := cat.Schema("system.health_check")
	if !ok {
		t.Fatal("expected schema for system.health_check")
	}
	if s.EventType() != "system.health_check" {
		t.Errorf("EventType() = %q", s.EventType())
	}

	if _, ok := cat.Schema("made.up.event"); ok {
		t.Error("expected no schema for made.up.event")
	}
}

func TestValidateKnownType(t *testing.T) {
	cat := MustNew(healthCheckSchema())

	res := cat.Validate("system.health_check", []byte(`{"type":"system.health_check","timestamp":"2024-05-01T10:00:00Z","status":"ok"}`))
	if !res.OK {
		t.Fatalf("expected OK result, got %+v", res)
	}
	typed, ok := res.Payload.(*healthCheck)
	if !ok {
		t.Fatalf("payload type = %T, want *healthCheck", res.Payload)
	}
	if typed.Status != "ok" {
		t.Errorf("Status = %q, want ok", typed.Status)
	}
}

func TestValidateRejectsBadPayload(t *testing.T) {
	cat := MustNew(healthCheckSchema())

	res := cat.Validate("system.health_check", []byte(`{"type":"system.health_check","timestamp":"2024-05-01T10:00:00Z","status":"bogus"}`))
	if res.OK || res.Unknown {
		t.Fatalf("expected a failed result, got %+v", res)
	}
	if len(res.Issues) != 1 || res.Issues[0].Path != "status" {
		t.Fatalf("expected a status issue, got %v", res.Issues)
	}
}

func TestValidateUnknownTypeIsNotAFailure(t *testing.T) {
	cat := MustNew(healthCheckSchema())

	res := cat.Validate("made.up.event", []byte(`{}`))
	if !res.Unknown {
		t.Fatalf("expected Unknown result, got %+v", res)
	}
	if res.OK || len(res.Issues) != 0 {
		t.Fatalf("unknown type should carry no issues, got %+v", res)
	}
}
