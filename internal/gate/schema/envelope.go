package schema

import "time"

// Envelope carries the fields shared by every event payload. Payload structs
// embed it before their type-specific fields:
//
//	type ThemeChanged struct {
//		schema.Envelope
//		Theme string `json:"theme"`
//	}
//
// Type and Timestamp are required on the wire; the emitter stamps them during
// normalization when the caller omits them. ID, Origin, and CorrelationID are
// optional tracing fields.
type Envelope struct {
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	ID            string    `json:"id,omitempty"`
	Origin        string    `json:"origin,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventEnvelope returns the envelope itself so embedding types satisfy
// Enveloped through method promotion.
func (e *Envelope) EventEnvelope() *Envelope { return e }

// Enveloped is implemented by payload types that embed Envelope.
type Enveloped interface {
	EventEnvelope() *Envelope
}
