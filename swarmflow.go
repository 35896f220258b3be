// Package swarmflow provides a top-level convenience entry point for
// creating a multi-agent task coordinator with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/swarmflow"
//
//	c, err := swarmflow.New(swarmflow.WithInvoker(myInvoker))
//	c, err := swarmflow.New(
//	    swarmflow.WithConfigFile("config.yaml"),
//	    swarmflow.WithInvoker(myInvoker),
//	    swarmflow.WithSupervisor(mySupervisor),
//	)
//
// This is a thin wrapper around [coordinator.New]; both produce identical
// results. Use this package when you prefer the shorter import path.
package swarmflow

import (
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/config"
	"github.com/BaSui01/swarmflow/coordinator"
	"github.com/BaSui01/swarmflow/memory"
	"github.com/BaSui01/swarmflow/supervisor"
	"github.com/BaSui01/swarmflow/types"
)

// Option configures the coordinator created by [New].
type Option func(*builder) error

type builder struct {
	cfg        *config.Config
	supervisor supervisor.Supervisor
	invoker    coordinator.AgentInvoker
	store      memory.Store
	metrics    *coordinator.Collector
	logger     *zap.Logger
}

// WithConfig sets an explicit configuration.
func WithConfig(cfg *config.Config) Option {
	return func(b *builder) error {
		b.cfg = cfg
		return nil
	}
}

// WithConfigFile loads configuration from a YAML file with environment
// overrides.
func WithConfigFile(path string) Option {
	return func(b *builder) error {
		cfg, err := config.NewLoader().WithConfigPath(path).Load()
		if err != nil {
			return err
		}
		b.cfg = cfg
		return nil
	}
}

// WithSupervisor sets the frontier supervisor. Defaults to the scripted
// supervisor when omitted.
func WithSupervisor(s supervisor.Supervisor) Option {
	return func(b *builder) error {
		b.supervisor = s
		return nil
	}
}

// WithInvoker sets the agent invoker. Required.
func WithInvoker(invoker coordinator.AgentInvoker) Option {
	return func(b *builder) error {
		b.invoker = invoker
		return nil
	}
}

// WithStore sets the memory store. Defaults to an in-memory store.
func WithStore(store memory.Store) Option {
	return func(b *builder) error {
		b.store = store
		return nil
	}
}

// WithRedisStore connects a Redis-backed memory store using the
// configuration's Redis section.
func WithRedisStore() Option {
	return func(b *builder) error {
		cfg := b.cfg
		if cfg == nil {
			cfg = config.DefaultConfig()
			b.cfg = cfg
		}
		store, err := memory.NewRedisStore(cfg.Redis, b.logger)
		if err != nil {
			return err
		}
		b.store = store
		return nil
	}
}

// WithMetrics sets the Prometheus collector.
func WithMetrics(collector *coordinator.Collector) Option {
	return func(b *builder) error {
		b.metrics = collector
		return nil
	}
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *builder) error {
		b.logger = logger
		return nil
	}
}

// New creates a [coordinator.Coordinator] with minimal configuration.
// At minimum, an invoker must be specified via [WithInvoker]; options
// are applied in order, so [WithConfigFile] should come before
// [WithRedisStore].
func New(opts ...Option) (*coordinator.Coordinator, error) {
	b := &builder{}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	if b.invoker == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "an agent invoker is required: use WithInvoker")
	}
	if b.supervisor == nil {
		b.supervisor = supervisor.NewScripted(b.logger)
	}
	return coordinator.New(b.cfg, coordinator.Dependencies{
		Supervisor: b.supervisor,
		Invoker:    b.invoker,
		Store:      b.store,
		Metrics:    b.metrics,
		Logger:     b.logger,
	})
}
