package worker

import (
	"fmt"

	"github.com/creasty/defaults"
	"go.uber.org/zap"

	"github.com/jzx17/goexecutor/pkg/queue"
	"github.com/jzx17/goexecutor/pkg/types"
)

// Config defines configuration for a Pool
type Config struct {
	// PoolSize is the maximum number of workers
	PoolSize int `default:"4"`

	// QueueCapacity bounds the task queue; 0 means unbounded (linked queue only)
	QueueCapacity int `default:"0"`

	// QueueKind selects the queue backing
	QueueKind queue.Kind `default:"linked"`

	// Prestart starts every worker at construction. Otherwise workers are
	// started lazily by submissions, up to PoolSize.
	Prestart bool `default:"false"`

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives lifecycle events (optional, defaults to a no-op logger)
	Logger *zap.Logger

	// ErrorHandler observes task failures (optional)
	ErrorHandler types.ErrorHandler
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	config := &Config{}
	if err := defaults.Set(config); err != nil {
		// tags are static; a failure here is a programming error
		panic(fmt.Sprintf("worker: invalid config defaults: %v", err))
	}
	config.Clock = types.NewRealClock()
	config.Logger = zap.NewNop()
	return config
}

// validate checks the configuration and fills unset optional fields
func (c *Config) validate() error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive, got %d", c.PoolSize)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity cannot be negative, got %d", c.QueueCapacity)
	}
	if c.QueueKind == "" {
		c.QueueKind = queue.KindLinked
	}
	if c.QueueKind == queue.KindArray && c.QueueCapacity == 0 {
		return fmt.Errorf("array queue requires a positive capacity")
	}
	if c.Clock == nil {
		c.Clock = types.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return nil
}
