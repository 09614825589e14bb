package schema

import (
	"errors"
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
)

func errorReportedCheck(p *structpb.Struct) []Issue {
	if p.GetFields()["message"].GetStringValue() == "" {
		return []Issue{Issuef("message", "message is required")}
	}
	return nil
}

func TestProtoSchemaAcceptsValidPayload(t *testing.T) {
	s := MustProto("system.error_reported", errorReportedCheck)

	payload, issues := s.Parse([]byte(`{"message":"boom","severity":"error"}`))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	typed, ok := payload.(*structpb.Struct)
	if !ok {
		t.Fatalf("payload type = %T, want *structpb.Struct", payload)
	}
	if got := typed.GetFields()["message"].GetStringValue(); got != "boom" {
		t.Errorf("message field = %q, want %q", got, "boom")
	}
}

func TestProtoSchemaRunsCheck(t *testing.T) {
	s := MustProto("system.error_reported", errorReportedCheck)

	payload, issues := s.Parse([]byte(`{"severity":"error"}`))
	if payload != nil {
		t.Fatalf("expected nil payload, got %#v", payload)
	}
	if len(issues) != 1 || issues[0].Path != "message" {
		t.Fatalf("expected a message issue, got %v", issues)
	}
}

func TestProtoSchemaRejectsMalformedPayload(t *testing.T) {
	s := MustProto("system.error_reported", errorReportedCheck)

	_, issues := s.Parse([]byte(`{invalid`))
	if len(issues) == 0 || !strings.Contains(issues[0].Message, "invalid payload") {
		t.Fatalf("expected an invalid payload issue, got %v", issues)
	}
}

func TestProtoSchemaDiscardsUnknownFields(t *testing.T) {
	// Normalization injects envelope keys the message does not declare; the
	// parser must tolerate them.
	s := MustProto[*emptypb.Empty]("system.ping", nil)

	payload, issues := s.Parse([]byte(`{"type":"system.ping","timestamp":"2024-05-01T10:00:00Z"}`))
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if _, ok := payload.(*emptypb.Empty); !ok {
		t.Fatalf("payload type = %T, want *emptypb.Empty", payload)
	}
}

func TestNewProtoRequiresEventType(t *testing.T) {
	_, err := NewProto[*structpb.Struct]("", nil)
	if !errors.Is(err, errspkg.ErrSchemaTypeRequired) {
		t.Fatalf("expected schema type required error, got %v", err)
	}
}

func TestMustProtoPanicsOnInvalidSchema(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustProto[*structpb.Struct]("", nil)
}

func TestProtoSchemaEventType(t *testing.T) {
	s := MustProto[*structpb.Struct]("system.error_reported", nil)
	if got := s.EventType(); got != "system.error_reported" {
		t.Errorf("EventType() = %q", got)
	}
}
