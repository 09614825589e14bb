// Package schema defines payload schemas for the event layer: the envelope
// fields shared by every event, the Schema interface the catalog dispatches
// on, and generic JSON and protobuf schema implementations.
package schema

import "fmt"

// Issue describes one field-level validation problem.
type Issue struct {
	// Path locates the offending field, e.g. "status" or "items[2].sku".
	// Empty means the payload as a whole.
	Path    string
	Message string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Issuef builds an Issue with a formatted message.
func Issuef(path, format string, args ...any) Issue {
	return Issue{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Result describes the outcome of validating one payload against the catalog.
type Result struct {
	// OK reports that the payload parsed and passed every check.
	OK bool
	// Unknown reports that no schema is catalogued for the event type. It is
	// distinct from a validation failure.
	Unknown bool
	// Payload holds the parsed, typed payload when OK.
	Payload any
	// Issues lists the problems found when OK is false.
	Issues []Issue
}

// Schema validates raw payload bytes for a single event type.
//
// Parse returns the typed payload and no issues on success, or a nil payload
// and at least one issue on failure. Parse never panics and has no side
// effects.
type Schema interface {
	EventType() string
	Parse(data []byte) (any, []Issue)
}
