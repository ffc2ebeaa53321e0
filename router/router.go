package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/directory"
	"github.com/coterie-ai/coterie/internal/metrics"
	"github.com/coterie-ai/coterie/types"
)

// selection source labels reported to metrics.
const (
	sourceRule      = "rule"
	sourceLocal     = "local"
	sourceDiscovery = "discovery"
)

// Router selects an agent for each task and invokes it, locally or through
// the delegation client. Safe for concurrent use.
type Router struct {
	mu      sync.RWMutex
	handles map[string]Agent
	order   []string // local handle registration order, kept for stable scans
	rules   map[string][]string

	dir       *directory.Directory
	client    *a2a.Client
	logger    *zap.Logger
	collector *metrics.Collector
}

// New creates a router over the shared directory and delegation client.
// logger and collector may be nil.
func New(dir *directory.Directory, client *a2a.Client, collector *metrics.Collector, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		handles:   make(map[string]Agent),
		rules:     make(map[string][]string),
		dir:       dir,
		client:    client,
		logger:    logger.With(zap.String("component", "task_router")),
		collector: collector,
	}
}

// RegisterAgent adds a local handle. Re-registering an ID replaces the
// handle but keeps its original scan position.
func (r *Router) RegisterAgent(agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := agent.ID()
	if _, exists := r.handles[id]; !exists {
		r.order = append(r.order, id)
	}
	r.handles[id] = agent
	r.logger.Info("local agent registered", zap.String("agent_id", id))
}

// UnregisterAgent removes a local handle; absent IDs are a no-op.
func (r *Router) UnregisterAgent(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[agentID]; !exists {
		return
	}
	delete(r.handles, agentID)
	for i, id := range r.order {
		if id == agentID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("local agent unregistered", zap.String("agent_id", agentID))
}

// AddRoutingRule sets the ordered preferred-agent list for a task type.
// Last writer wins.
func (r *Router) AddRoutingRule(taskType string, agentIDs []string) {
	r.mu.Lock()
	r.rules[taskType] = append([]string(nil), agentIDs...)
	r.mu.Unlock()
	r.logger.Info("routing rule added",
		zap.String("task_type", taskType),
		zap.Strings("agents", agentIDs),
	)
}

// RemoveRoutingRule deletes the rule for a task type; absent types are a
// no-op.
func (r *Router) RemoveRoutingRule(taskType string) {
	r.mu.Lock()
	delete(r.rules, taskType)
	r.mu.Unlock()
}

// Route selects an agent for the task and invokes it. Selection failures
// return a NoSuitableAgentError; invocation failures are converted into a
// textual error result and never raised.
func (r *Router) Route(ctx context.Context, task *types.Task) (string, error) {
	start := time.Now()
	defer func() {
		r.collector.ObserveRouteDuration(task.Type, time.Since(start).Seconds())
	}()

	agentID, local, source := r.selectAgent(task)
	if agentID == "" {
		r.collector.RecordRouteFailure(task.Type)
		return "", &NoSuitableAgentError{TaskType: task.Type}
	}

	r.collector.RecordRouteDecision(source, task.Type)
	r.logger.Debug("agent selected",
		zap.String("agent_id", agentID),
		zap.String("source", source),
		zap.Bool("local", local),
		zap.String("task_type", task.Type),
	)

	if local {
		return r.invokeLocal(ctx, agentID, task), nil
	}
	return r.delegate(ctx, agentID, task), nil
}

// selectAgent runs the three-stage selection protocol. It returns the
// chosen agent ID, whether it is a local handle, and which stage chose it;
// an empty ID means selection failed.
func (r *Router) selectAgent(task *types.Task) (agentID string, local bool, source string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Stage 1: rule table, in rule order.
	for _, id := range r.rules[task.Type] {
		if handle, ok := r.handles[id]; ok {
			if hasAllCapabilities(handle, task.Capabilities) {
				return id, true, sourceRule
			}
			continue
		}
		if card, ok := r.dir.Get(id); ok && card.HasAllCapabilities(task.Capabilities) {
			return id, false, sourceRule
		}
	}

	// Stage 2: local handles in registration order.
	for _, id := range r.order {
		if hasAllCapabilities(r.handles[id], task.Capabilities) {
			return id, true, sourceLocal
		}
	}

	// Stage 3: capability discovery against the directory. The first hit
	// for any single required capability wins; the full set is not
	// re-verified here.
	for _, tag := range task.Capabilities {
		if found := r.dir.FindByCapability(tag); len(found) > 0 {
			return found[0].ID, false, sourceDiscovery
		}
	}

	return "", false, ""
}

func (r *Router) invokeLocal(ctx context.Context, agentID string, task *types.Task) string {
	r.mu.RLock()
	handle, ok := r.handles[agentID]
	r.mu.RUnlock()
	if !ok {
		// Unregistered between selection and invocation.
		return fmt.Sprintf("Error executing task with agent %s: agent no longer registered", agentID)
	}

	result, err := safeProcess(ctx, handle, task)
	if err != nil {
		r.logger.Warn("local agent processing failed",
			zap.String("agent_id", agentID),
			zap.Error(err),
		)
		return fmt.Sprintf("Error executing task with agent %s: %v", agentID, err)
	}
	if result == nil {
		r.logger.Warn("local agent returned no result", zap.String("agent_id", agentID))
		return fmt.Sprintf("Error executing task with agent %s: agent returned no result", agentID)
	}
	if !result.Success {
		return fmt.Sprintf("Error executing task with agent %s: %s", agentID, result.Error)
	}
	return fmt.Sprintf("Task completed by %s: %s", agentID, result.Output)
}

func (r *Router) delegate(ctx context.Context, agentID string, task *types.Task) string {
	result, err := r.client.DelegateTask(ctx, agentID, task)
	if err != nil {
		r.collector.RecordDelegation("failed")
		r.logger.Warn("delegation failed",
			zap.String("agent_id", agentID),
			zap.Error(err),
		)
		return fmt.Sprintf("Error executing task with agent %s: %v", agentID, err)
	}
	r.collector.RecordDelegation(string(result.Status))
	return fmt.Sprintf("Task delegated to %s: %s", agentID, result.Response)
}

// safeProcess shields the router from a panicking handle.
func safeProcess(ctx context.Context, handle Agent, task *types.Task) (result *types.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("agent panic: %v", rec)
		}
	}()
	return handle.ProcessTask(ctx, task)
}

// Status returns a status snapshot per local handle. A handle that panics
// on status query yields an "error" entry rather than aborting the call.
func (r *Router) Status() map[string]map[string]any {
	r.mu.RLock()
	ids := append([]string(nil), r.order...)
	handles := make(map[string]Agent, len(r.handles))
	for id, h := range r.handles {
		handles[id] = h
	}
	r.mu.RUnlock()

	out := make(map[string]map[string]any, len(ids))
	for _, id := range ids {
		out[id] = safeStatus(handles[id])
	}
	return out
}

func safeStatus(handle Agent) (status map[string]any) {
	defer func() {
		if rec := recover(); rec != nil {
			status = map[string]any{"status": "error", "error": fmt.Sprint(rec)}
		}
	}()
	status = handle.Status()
	if status == nil {
		status = map[string]any{"status": "unknown"}
	}
	return status
}

// Capabilities returns the advertised capability tags per local handle.
func (r *Router) Capabilities() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.handles))
	for id, handle := range r.handles {
		out[id] = append([]string(nil), handle.Capabilities()...)
	}
	return out
}

// LocalAgents returns the IDs of local handles in registration order.
func (r *Router) LocalAgents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
