// Package catalog holds the immutable mapping from event-type names to their
// payload schemas. A catalog is built once at process start and is read-only
// afterwards, so lookups need no locking.
package catalog

import (
	"fmt"

	errspkg "github.com/pageloom/eventgate/internal/gate/errors"
	schemapkg "github.com/pageloom/eventgate/internal/gate/schema"
)

// Catalog maps event-type names to schemas. Keys always equal the schema's
// own EventType, so the mapping cannot drift from the schema declarations.
type Catalog struct {
	schemas map[string]schemapkg.Schema
	types   []string
}

// New builds a catalog from the given schemas. Schemas with an empty event
// type, nil schemas, and duplicate event types are rejected.
func New(schemas ...schemapkg.Schema) (*Catalog, error) {
	c := &Catalog{
		schemas: make(map[string]schemapkg.Schema, len(schemas)),
		types:   make([]string, 0, len(schemas)),
	}
	for i, s := range schemas {
		if s == nil {
			return nil, fmt.Errorf("eventgate: catalog schema %d is nil", i)
		}
		eventType := s.EventType()
		if eventType == "" {
			return nil, errspkg.ErrSchemaTypeRequired
		}
		if _, dup := c.schemas[eventType]; dup {
			return nil, fmt.Errorf("eventgate: duplicate schema for event type %q", eventType)
		}
		c.schemas[eventType] = s
		c.types = append(c.types, eventType)
	}
	return c, nil
}

// MustNew is New that panics on error, for static catalog declarations.
func MustNew(schemas ...schemapkg.Schema) *Catalog {
	c, err := New(schemas...)
	if err != nil {
		panic(err)
	}
	return c
}

// Schema returns the schema for the given event type.
func (c *Catalog) Schema(eventType string) (schemapkg.Schema, bool) {
	s, ok := c.schemas[eventType]
	return s, ok
}

// Types returns the catalogued event types in declaration order. The slice is
// a copy.
func (c *Catalog) Types() []string {
	types := make([]string, len(c.types))
	copy(types, c.types)
	return types
}

// Len returns the number of catalogued event types.
func (c *Catalog) Len() int { return len(c.types) }

// Validate checks data against the schema for eventType. An uncatalogued
// type yields Result{Unknown: true}, which is distinct from a validation
// failure. Validate never panics.
func (c *Catalog) Validate(eventType string, data []byte) schemapkg.Result {
	s, ok := c.schemas[eventType]
	if !ok {
		return schemapkg.Result{Unknown: true}
	}

	payload, issues := s.Parse(data)
	if len(issues) > 0 {
		return schemapkg.Result{Issues: issues}
	}
	return schemapkg.Result{OK: true, Payload: payload}
}
