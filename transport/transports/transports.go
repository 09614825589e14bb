// Package transports imports all built-in transports for auto-registration.
// Import this package to have all transports registered with the default registry.
package transports

import (
	// Import all transports for side-effect registration
	_ "github.com/pageloom/eventgate/transport/aws"
	_ "github.com/pageloom/eventgate/transport/channel"
	_ "github.com/pageloom/eventgate/transport/http"
	_ "github.com/pageloom/eventgate/transport/jetstream"
	_ "github.com/pageloom/eventgate/transport/kafka"
	_ "github.com/pageloom/eventgate/transport/nats"
	_ "github.com/pageloom/eventgate/transport/rabbitmq"
)
