package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/directory"
	"github.com/coterie-ai/coterie/llm"
	"github.com/coterie-ai/coterie/tool"
	"github.com/coterie-ai/coterie/types"
)

// Agent status values broadcast to subscribers.
const (
	StatusIdle         = "idle"
	StatusProcessing   = "processing"
	StatusError        = "error"
	StatusShuttingDown = "shutting_down"
)

// Config configures an agent.
type Config struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Description  string     `json:"description,omitempty" yaml:"description"`
	Capabilities []string   `json:"capabilities" yaml:"capabilities"`
	Tools        []string   `json:"tools,omitempty" yaml:"tools"`
	Model        llm.Config `json:"model" yaml:"model"`
}

// BaseAgent carries the identity, status lifecycle, memory, and delegation
// plumbing shared by all agent kinds.
type BaseAgent struct {
	config   Config
	provider llm.Provider
	tools    *tool.Registry
	client   *a2a.Client
	logger   *zap.Logger

	mu     sync.RWMutex
	status string
	memory map[string]any
}

// NewBaseAgent creates the shared agent core. tools and logger may be nil.
func NewBaseAgent(config Config, provider llm.Provider, tools *tool.Registry, client *a2a.Client, logger *zap.Logger) *BaseAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseAgent{
		config:   config,
		provider: provider,
		tools:    tools,
		client:   client,
		logger:   logger.With(zap.String("component", "agent"), zap.String("agent_id", config.ID)),
		status:   StatusIdle,
		memory:   make(map[string]any),
	}
}

// ID returns the agent's unique identifier.
func (a *BaseAgent) ID() string { return a.config.ID }

// Capabilities returns the capability tags the agent advertises.
func (a *BaseAgent) Capabilities() []string {
	return append([]string(nil), a.config.Capabilities...)
}

// Init registers the agent's card into the shared directory so it becomes
// discoverable.
func (a *BaseAgent) Init(ctx context.Context) error {
	card := &directory.AgentCard{
		ID:           a.config.ID,
		Name:         a.config.Name,
		Description:  a.description(),
		Capabilities: a.Capabilities(),
		Endpoints:    map[string]string{"local": "inproc://" + a.config.ID},
		Auth:         map[string]string{"type": "api_key"},
		Metadata:     map[string]any{"tools": a.config.Tools},
	}
	if err := a.client.Directory().Register(card); err != nil {
		return fmt.Errorf("agent %s: register: %w", a.config.ID, err)
	}
	a.logger.Info("agent initialized", zap.Strings("capabilities", a.config.Capabilities))
	return nil
}

// Shutdown broadcasts the shutdown status, unregisters the agent, and
// clears its memory.
func (a *BaseAgent) Shutdown(ctx context.Context) {
	a.SetStatus(ctx, StatusShuttingDown)
	a.client.Directory().Unregister(a.config.ID)
	a.ClearMemory()
	a.logger.Info("agent shut down")
}

func (a *BaseAgent) description() string {
	if a.config.Description != "" {
		return a.config.Description
	}
	return "Agent specialized in " + strings.Join(a.config.Capabilities, ", ")
}

// Status returns a snapshot of the agent's current state.
func (a *BaseAgent) Status() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]string, 0, len(a.memory))
	for k := range a.memory {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return map[string]any{
		"agent_id":     a.config.ID,
		"status":       a.status,
		"capabilities": a.Capabilities(),
		"tools":        append([]string(nil), a.config.Tools...),
		"memory_keys":  keys,
	}
}

// SetStatus updates the agent status and broadcasts the transition to
// subscribers.
func (a *BaseAgent) SetStatus(ctx context.Context, status string) {
	a.mu.Lock()
	a.status = status
	a.mu.Unlock()

	a.client.BroadcastStatus(ctx, map[string]any{
		"agent_id": a.config.ID,
		"status":   status,
	})
}

// Remember stores a value in agent memory.
func (a *BaseAgent) Remember(key string, value any) {
	a.mu.Lock()
	a.memory[key] = value
	a.mu.Unlock()
}

// Recall returns a value from agent memory.
func (a *BaseAgent) Recall(key string) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.memory[key]
	return v, ok
}

// ClearMemory drops all agent memory.
func (a *BaseAgent) ClearMemory() {
	a.mu.Lock()
	a.memory = make(map[string]any)
	a.mu.Unlock()
}

// ExecuteTool runs a tool from the agent's registry. Agents constructed
// without a registry cannot execute tools.
func (a *BaseAgent) ExecuteTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	if a.tools == nil {
		return nil, fmt.Errorf("agent %s: no tool registry", a.config.ID)
	}
	return a.tools.Execute(ctx, name, args)
}

// Client returns the agent's delegation client.
func (a *BaseAgent) Client() *a2a.Client { return a.client }

// Delegate hands a task to another agent through the delegation client.
func (a *BaseAgent) Delegate(ctx context.Context, targetID string, task *types.Task) (*a2a.DeliveryResult, error) {
	return a.client.DelegateTask(ctx, targetID, task)
}

// Collaborate delegates the task to each of the given agents, collecting a
// per-agent outcome. A failing delegation does not stop the fan-out.
func (a *BaseAgent) Collaborate(ctx context.Context, agentIDs []string, task *types.Task) map[string]*types.Result {
	results := make(map[string]*types.Result, len(agentIDs))
	for _, id := range agentIDs {
		delivery, err := a.Delegate(ctx, id, task)
		if err != nil {
			results[id] = types.FailResult(id, err)
			continue
		}
		results[id] = types.OKResult(id, delivery.Response)
	}
	return results
}

// generate runs a single-prompt completion against the agent's provider.
func (a *BaseAgent) generate(ctx context.Context, prompt string) (string, error) {
	return a.provider.Generate(ctx,
		[]types.Message{types.NewMessage(types.RoleUser, prompt)},
		a.config.Model,
	)
}

// runTask wraps a task handler with the status lifecycle and error folding
// shared by all agent kinds: processing while running, error status plus a
// failed result on handler failure, idle on success.
func (a *BaseAgent) runTask(ctx context.Context, task *types.Task, handler func(context.Context, *types.Task) (string, error)) (*types.Result, error) {
	a.SetStatus(ctx, StatusProcessing)

	output, err := handler(ctx, task)
	if err != nil {
		a.SetStatus(ctx, StatusError)
		a.logger.Warn("task processing failed",
			zap.String("task_type", task.Type),
			zap.Error(err),
		)
		return types.FailResult(a.config.ID, err), nil
	}

	a.SetStatus(ctx, StatusIdle)
	return types.OKResult(a.config.ID, output), nil
}
