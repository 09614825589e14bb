// Package errors defines the sentinel errors surfaced by the event layer.
package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrEmitterRequired    = sterrors.New("eventgate: emitter is required")
	ErrListenerRequired   = sterrors.New("eventgate: listener function is required")
	ErrEventTypeRequired  = sterrors.New("eventgate: event type is required")
	ErrPayloadRequired    = sterrors.New("eventgate: event payload is required")
	ErrPublisherRequired  = sterrors.New("eventgate: publisher is required")
	ErrLoggerRequired     = sterrors.New("eventgate: logger is required")
	ErrCatalogRequired    = sterrors.New("eventgate: schema catalog is required")
	ErrConfigRequired     = sterrors.New("eventgate: configuration is required")
	ErrSchemaTypeRequired = sterrors.New("eventgate: schema event type is required")
)

// ConfigValidationError wraps the reasons a configuration failed validation.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("eventgate: invalid configuration: %v", e.Err)
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError returns nil when err is nil so callers can wrap
// unconditionally.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
