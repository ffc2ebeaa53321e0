package router

import (
	"context"

	"github.com/coterie-ai/coterie/types"
)

// Agent is the contract every locally-registered agent handle must satisfy.
// Capability checking is explicit through this interface rather than
// runtime attribute probing.
type Agent interface {
	// ID returns the agent's unique identifier.
	ID() string

	// Capabilities returns the capability tags the agent advertises.
	Capabilities() []string

	// ProcessTask processes a task synchronously from the router's
	// perspective. It may block on external I/O for arbitrarily long;
	// callers cancel through ctx.
	ProcessTask(ctx context.Context, task *types.Task) (*types.Result, error)

	// Status returns a snapshot of the agent's current state.
	Status() map[string]any
}

// hasAllCapabilities reports whether the handle advertises every required
// tag. An empty requirement set matches any agent.
func hasAllCapabilities(a Agent, required []string) bool {
	if len(required) == 0 {
		return true
	}
	advertised := make(map[string]struct{})
	for _, cap := range a.Capabilities() {
		advertised[cap] = struct{}{}
	}
	for _, cap := range required {
		if _, ok := advertised[cap]; !ok {
			return false
		}
	}
	return true
}
