package florasynth

import (
	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/modules"
)

// Option is a function that configures a Florasynth instance.
type Option func(*config) error

// config collects construction-time settings.
type config struct {
	registry *modules.Registry
	enabled  []string
	sink     Sink
}

// WithRegistry supplies the module registry to load from. Required.
func WithRegistry(registry *modules.Registry) Option {
	return func(c *config) error {
		if registry == nil {
			return errors.NewConfigError("florasynth", "nil registry", nil)
		}
		c.registry = registry
		return nil
	}
}

// WithEnabled restricts the pipeline to the named modules. The default is
// every registered module. The set must be dependency-closed; loading fails
// otherwise.
func WithEnabled(ids ...string) Option {
	return func(c *config) error {
		c.enabled = ids
		return nil
	}
}

// WithSink directs valid records to a destination. Without a sink, records
// are only returned to the caller.
func WithSink(sink Sink) Option {
	return func(c *config) error {
		c.sink = sink
		return nil
	}
}
