package schema

import (
	"errors"
	"strings"
	"testing"
	"time"

	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
)

type themeChanged struct {
	Envelope
	Theme string `json:"theme"`
}

func themeCheck(p *themeChanged) []Issue {
	if p.Theme == "" {
		return []Issue{Issuef("theme", "theme is required")}
	}
	return nil
}

func TestJSONSchemaAcceptsValidPayload(t *testing.T) {
	s := MustJSON("ui.theme_changed", themeCheck)

	payload, issues := s.Parse([]byte(`{"type":"ui.theme_changed","timestamp":"2024-05-01T10:00:00Z","theme":"dark"}`))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	typed, ok := payload.(*themeChanged)
	if !ok {
		t.Fatalf("payload type = %T, want *themeChanged", payload)
	}
	if typed.Theme != "dark" {
		t.Errorf("Theme = %q, want %q", typed.Theme, "dark")
	}
	if typed.Type != "ui.theme_changed" {
		t.Errorf("envelope Type = %q", typed.Type)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if !typed.Timestamp.Equal(want) {
		t.Errorf("envelope Timestamp = %v, want %v", typed.Timestamp, want)
	}
}

func TestJSONSchemaRejectsTypeMismatch(t *testing.T) {
	s := MustJSON("ui.theme_changed", themeCheck)

	payload, issues := s.Parse([]byte(`{"type":"ui.other","timestamp":"2024-05-01T10:00:00Z","theme":"dark"}`))
	if payload != nil {
		t.Fatalf("expected nil payload, got %#v", payload)
	}
	if len(issues) != 1 || issues[0].Path != "type" {
		t.Fatalf("expected a type issue, got %v", issues)
	}
}

func TestJSONSchemaRequiresTimestamp(t *testing.T) {
	s := MustJSON("ui.theme_changed", themeCheck)

	_, issues := s.Parse([]byte(`{"type":"ui.theme_changed","theme":"dark"}`))
	if len(issues) != 1 || issues[0].Path != "timestamp" {
		t.Fatalf("expected a timestamp issue, got %v", issues)
	}
}

func TestJSONSchemaRejectsMalformedJSON(t *testing.T) {
	s := MustJSON("ui.theme_changed", themeCheck)

	payload, issues := s.Parse([]byte(`{not-json`))
	if payload != nil {
		t.Fatalf("expected nil payload, got %#v", payload)
	}
	if len(issues) == 0 || !strings.Contains(issues[0].Message, "invalid JSON") {
		t.Fatalf("expected an invalid JSON issue, got %v", issues)
	}
}

func TestJSONSchemaRunsCheck(t *testing.T) {
	s := MustJSON("ui.theme_changed", themeCheck)

	_, issues := s.Parse([]byte(`{"type":"ui.theme_changed","timestamp":"2024-05-01T10:00:00Z"}`))
	if len(issues) != 1 || issues[0].Path != "theme" {
		t.Fatalf("expected the check to flag the missing theme, got %v", issues)
	}
}

func TestJSONSchemaNilCheck(t *testing.T) {
	s := MustJSON[themeChanged]("ui.theme_changed", nil)

	_, issues := s.Parse([]byte(`{"type":"ui.theme_changed","timestamp":"2024-05-01T10:00:00Z"}`))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues with nil check: %v", issues)
	}
}

func TestNewJSONRequiresEventType(t *testing.T) {
	_, err := NewJSON("", themeCheck)
	if !errors.Is(err, errspkg.ErrSchemaTypeRequired) {
		t.Fatalf("expected schema type required error, got %v", err)
	}
}

func TestNewJSONRequiresEnvelope(t *testing.T) {
	type bare struct {
		Theme string `json:"theme"`
	}

	_, err := NewJSON[bare]("ui.theme_changed", nil)
	if err == nil {
		t.Fatal("expected error for payload without Envelope")
	}
	if !strings.Contains(err.Error(), "Envelope") {
		t.Errorf("error should name the missing Envelope, got %v", err)
	}
}

func TestMustJSONPanicsOnInvalidSchema(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustJSON[themeChanged]("", nil)
}

func TestJSONSchemaEventType(t *testing.T) {
	s := MustJSON[themeChanged]("ui.theme_changed", nil)
	if got := s.EventType(); got != "ui.theme_changed" {
		t.Errorf("EventType() = %q", got)
	}
}
