package schema

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
)

// Proto validates payloads against a protobuf message type via protojson.
// Unknown JSON keys are discarded, so envelope fields injected during
// normalization pass through without tripping the parser.
type Proto[T proto.Message] struct {
	eventType string
	prototype T
	check     func(T) []Issue
}

// NewProto builds a protobuf-backed schema for eventType. The message
// prototype is materialized from the type parameter, so T must be a pointer
// message type. The check function may be nil.
func NewProto[T proto.Message](eventType string, check func(T) []Issue) (*Proto[T], error) {
	if eventType == "" {
		return nil, errspkg.ErrSchemaTypeRequired
	}
	var zero T
	prototype, err := ensurePrototype(zero)
	if err != nil {
		return nil, err
	}
	return &Proto[T]{eventType: eventType, prototype: prototype, check: check}, nil
}

// MustProto is NewProto that panics on error, for static catalog declarations.
func MustProto[T proto.Message](eventType string, check func(T) []Issue) *Proto[T] {
	s, err := NewProto[T](eventType, check)
	if err != nil {
		panic(err)
	}
	return s
}

// EventType implements Schema.
func (s *Proto[T]) EventType() string { return s.eventType }

// Parse unmarshals data into a fresh message and runs the check function. The
// returned payload has the schema's message type.
func (s *Proto[T]) Parse(data []byte) (any, []Issue) {
	msg := s.prototype.ProtoReflect().New().Interface()

	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, msg); err != nil {
		return nil, []Issue{Issuef("", "invalid payload: %v", err)}
	}

	typed, ok := msg.(T)
	if !ok {
		return nil, []Issue{Issuef("", "unexpected message type %T", msg)}
	}

	if s.check != nil {
		if issues := s.check(typed); len(issues) > 0 {
			return nil, issues
		}
	}
	return typed, nil
}

func ensurePrototype[T proto.Message](candidate T) (T, error) {
	if !isNilProto(candidate) {
		return candidate, nil
	}

	var zero T
	typ := reflect.TypeOf(candidate)
	if typ == nil {
		return zero, fmt.Errorf("eventgate: proto schema requires a concrete message type")
	}
	if typ.Kind() != reflect.Ptr {
		return zero, fmt.Errorf("eventgate: proto schema message type must be a pointer, got %s", typ)
	}

	inst := reflect.New(typ.Elem()).Interface()
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("eventgate: unexpected prototype type %s", typ)
	}
	return typed, nil
}

func isNilProto[T proto.Message](prototype T) bool {
	msg := proto.Message(prototype)
	if msg == nil {
		return true
	}

	val := reflect.ValueOf(msg)
	switch val.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}
