package schema

import (
	"fmt"

	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
	jsoncodec "github.com/pageloom/eventgate/internal/gate/jsoncodec"
)

// JSON validates payloads for one event type by unmarshalling them into T and
// checking the envelope fields. T must embed Envelope. An optional check
// function adds type-specific rules on top.
type JSON[T any] struct {
	eventType string
	check     func(*T) []Issue
}

// NewJSON builds a JSON schema for eventType. The check function may be nil.
func NewJSON[T any](eventType string, check func(*T) []Issue) (*JSON[T], error) {
	if eventType == "" {
		return nil, errspkg.ErrSchemaTypeRequired
	}
	var probe T
	if _, ok := any(&probe).(Enveloped); !ok {
		return nil, fmt.Errorf("eventgate: payload type %T must embed schema.Envelope", probe)
	}
	return &JSON[T]{eventType: eventType, check: check}, nil
}

// MustJSON is NewJSON that panics on error, for static catalog declarations.
func MustJSON[T any](eventType string, check func(*T) []Issue) *JSON[T] {
	s, err := NewJSON(eventType, check)
	if err != nil {
		panic(err)
	}
	return s
}

// EventType implements Schema.
func (s *JSON[T]) EventType() string { return s.eventType }

// Parse unmarshals data into a fresh T, verifies the envelope carries the
// schema's event type and a timestamp, then runs the check function. The
// returned payload is a *T.
func (s *JSON[T]) Parse(data []byte) (any, []Issue) {
	var payload T
	if err := jsoncodec.Unmarshal(data, &payload); err != nil {
		return nil, []Issue{Issuef("", "invalid JSON: %v", err)}
	}

	env := any(&payload).(Enveloped).EventEnvelope()
	var issues []Issue
	if env.Type != s.eventType {
		issues = append(issues, Issuef("type", "expected %q, got %q", s.eventType, env.Type))
	}
	if env.Timestamp.IsZero() {
		issues = append(issues, Issuef("timestamp", "timestamp is required"))
	}
	if len(issues) > 0 {
		return nil, issues
	}

	if s.check != nil {
		if issues := s.check(&payload); len(issues) > 0 {
			return nil, issues
		}
	}
	return &payload, nil
}
