package errors

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors have expected messages
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrEmitterRequired", ErrEmitterRequired, "eventgate: emitter is required"},
		{"ErrListenerRequired", ErrListenerRequired, "eventgate: listener function is required"},
		{"ErrEventTypeRequired", ErrEventTypeRequired, "eventgate: event type is required"},
		{"ErrPayloadRequired", ErrPayloadRequired, "eventgate: event payload is required"},
		{"ErrPublisherRequired", ErrPublisherRequired, "eventgate: publisher is required"},
		{"ErrLoggerRequired", ErrLoggerRequired, "eventgate: logger is required"},
		{"ErrCatalogRequired", ErrCatalogRequired, "eventgate: schema catalog is required"},
		{"ErrConfigRequired", ErrConfigRequired, "eventgate: configuration is required"},
		{"ErrSchemaTypeRequired", ErrSchemaTypeRequired, "eventgate: schema event type is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigValidationError(t *testing.T) {
	inner := errors.New("invalid port")
	err := ConfigValidationError{Err: inner}

	// Test Error()
	want := "eventgate: invalid configuration: invalid port"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// Test Unwrap()
	if unwrapped := err.Unwrap(); unwrapped != inner {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, inner)
	}
}

func TestNewConfigValidationError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		err := NewConfigValidationError(nil)
		if err != nil {
			t.Errorf("NewConfigValidationError(nil) = %v, want nil", err)
		}
	})

	t.Run("wraps error correctly", func(t *testing.T) {
		inner := errors.New("bad config")
		err := NewConfigValidationError(inner)

		var cfgErr ConfigValidationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigValidationError, got %T", err)
		}
		if cfgErr.Err != inner {
			t.Errorf("wrapped error = %v, want %v", cfgErr.Err, inner)
		}
	})

	t.Run("errors.Is works with wrapped error", func(t *testing.T) {
		inner := errors.New("specific error")
		err := NewConfigValidationError(inner)

		if !errors.Is(err, inner) {
			t.Error("errors.Is should match wrapped error")
		}
	})
}
