package projectcmd

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

// DispatcherRegistry subscribes project handlers on the go-command
// dispatcher so messages can be sent with dispatcher.Dispatch.
type DispatcherRegistry struct {
	mu         sync.Mutex
	runnerOpts []runner.Option
	subs       []dispatcher.Subscription
}

// NewDispatcherRegistry returns a registry whose subscriptions run with opts.
// The runner's default log handlers are silenced; handlers log on their own.
func NewDispatcherRegistry(opts ...runner.Option) *DispatcherRegistry {
	base := []runner.Option{
		runner.WithErrorHandler(func(error) {}),
		runner.WithDoneHandler(func(*runner.Handler) {}),
	}
	return &DispatcherRegistry{runnerOpts: append(base, opts...)}
}

// RegisterCommand subscribes handler for its message type.
func (r *DispatcherRegistry) RegisterCommand(handler any) error {
	var sub dispatcher.Subscription
	switch h := handler.(type) {
	case *InitHandler:
		sub = dispatcher.SubscribeCommand[InitCommand](h, r.runnerOpts...)
	case *ExtractHandler:
		sub = dispatcher.SubscribeCommand[ExtractCommand](h, r.runnerOpts...)
	case *DevHandler:
		sub = dispatcher.SubscribeCommand[DevCommand](h, r.runnerOpts...)
	case *BuildHandler:
		sub = dispatcher.SubscribeCommand[BuildCommand](h, r.runnerOpts...)
	case *DeployHandler:
		sub = dispatcher.SubscribeCommand[DeployCommand](h, r.runnerOpts...)
	default:
		return fmt.Errorf("dispatcher registry: unsupported handler %T", handler)
	}

	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return nil
}

// Close drops every subscription made through the registry.
func (r *DispatcherRegistry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
