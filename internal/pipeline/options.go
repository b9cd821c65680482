package pipeline

import (
	"github.com/0fflineDocs/Cipher/internal/event"
	"github.com/0fflineDocs/Cipher/internal/logging"
)

// Option configures a controller.
type Option func(*controllerConfig)

type controllerConfig struct {
	logger *logging.Logger
	bus    *event.Bus
}

// WithLogger sets the controller's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *controllerConfig) {
		c.logger = logger
	}
}

// WithBus publishes send lifecycle and debate progress events on bus.
func WithBus(bus *event.Bus) Option {
	return func(c *controllerConfig) {
		c.bus = bus
	}
}

func newControllerConfig(pipeline string, opts []Option) controllerConfig {
	var c controllerConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.logger == nil {
		c.logger = logging.NopLogger()
	}
	c.logger = c.logger.WithPipeline(pipeline)
	return c
}
