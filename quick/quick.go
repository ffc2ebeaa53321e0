// Package quick provides a convenience entry point for standing up a full
// in-process orchestrator — directory, loopback mesh, router, research and
// planning agents, session manager — with minimal boilerplate.
//
// Usage:
//
//	orc, err := quick.New(quick.WithOpenAI("gpt-4o-mini"))
//	reply := orc.Sessions.Process(ctx, "alice", "plan my week")
package quick

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/agents"
	"github.com/coterie-ai/coterie/directory"
	"github.com/coterie-ai/coterie/llm"
	"github.com/coterie-ai/coterie/router"
	"github.com/coterie-ai/coterie/session"
	"github.com/coterie-ai/coterie/tool"
)

// Orchestrator bundles the wired components. Agents are initialized and
// registered; call Shutdown when done.
type Orchestrator struct {
	Directory *directory.Directory
	Mesh      *a2a.LoopbackMesh
	Router    *router.Router
	Sessions  *session.Manager

	agents []*agents.BaseAgent
}

// Option configures the orchestrator created by New.
type Option func(*options)

type options struct {
	provider      llm.Provider
	model         string
	logger        *zap.Logger
	rules         map[string][]string
	historyWindow int
}

// WithProvider sets a pre-built LLM provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithOpenAI uses an OpenAI-compatible provider with the given model. The
// API key is read from the OPENAI_API_KEY environment variable.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.provider = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
		}, o.logger)
		o.model = model
	}
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRule adds a routing preference for a task type.
func WithRule(taskType string, agentIDs ...string) Option {
	return func(o *options) {
		if o.rules == nil {
			o.rules = make(map[string][]string)
		}
		o.rules[taskType] = agentIDs
	}
}

// WithHistoryWindow overrides how many history entries accompany each task.
func WithHistoryWindow(n int) Option {
	return func(o *options) { o.historyWindow = n }
}

// New wires up a complete in-process orchestrator. Without options it runs
// on a static provider with canned responses.
func New(opts ...Option) (*Orchestrator, error) {
	o := &options{
		model:  llm.DefaultConfig().Model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.provider == nil {
		o.provider = llm.NewStaticProvider("I can help with research, planning, analysis, and coding tasks.")
	}

	dir := directory.New(o.logger)
	mesh := a2a.NewLoopbackMesh()

	routerClient := a2a.NewClient("router", dir, mesh, nil, o.logger)
	mesh.Attach(routerClient)
	r := router.New(dir, routerClient, nil, o.logger)
	for taskType, agentIDs := range o.rules {
		r.AddRoutingRule(taskType, agentIDs)
	}

	tools := tool.NewRegistry(o.logger)
	tool.RegisterBuiltins(tools)

	modelConfig := llm.DefaultConfig()
	modelConfig.Model = o.model

	orc := &Orchestrator{Directory: dir, Mesh: mesh, Router: r}

	research := agents.NewResearchAgent(agents.Config{Model: modelConfig}, o.provider, tools,
		attach(mesh, "research-agent", dir, o.logger), o.logger)
	planning := agents.NewPlanningAgent(agents.Config{Model: modelConfig}, o.provider, tools,
		attach(mesh, "planning-agent", dir, o.logger), o.logger)

	for _, a := range []struct {
		base  *agents.BaseAgent
		agent router.Agent
	}{
		{research.BaseAgent, research},
		{planning.BaseAgent, planning},
	} {
		if err := a.base.Init(context.Background()); err != nil {
			return nil, fmt.Errorf("init agent %s: %w", a.agent.ID(), err)
		}
		r.RegisterAgent(a.agent)
		orc.agents = append(orc.agents, a.base)
	}

	sessionConfig := session.DefaultManagerConfig()
	if o.historyWindow > 0 {
		sessionConfig.HistoryWindow = o.historyWindow
	}
	orc.Sessions = session.NewManager(r, sessionConfig, nil, o.logger)

	return orc, nil
}

// Shutdown unregisters all agents.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	for _, a := range o.agents {
		a.Shutdown(ctx)
	}
}

func attach(mesh *a2a.LoopbackMesh, agentID string, dir *directory.Directory, logger *zap.Logger) *a2a.Client {
	c := a2a.NewClient(agentID, dir, mesh, nil, logger)
	mesh.Attach(c)
	return c
}
