package router

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/directory"
	"github.com/coterie-ai/coterie/types"
)

// fakeAgent is a minimal local handle for routing tests.
type fakeAgent struct {
	id       string
	caps     []string
	output   string
	err      error
	panicMsg string
	calls    int
}

func (f *fakeAgent) ID() string             { return f.id }
func (f *fakeAgent) Capabilities() []string { return f.caps }

func (f *fakeAgent) ProcessTask(ctx context.Context, task *types.Task) (*types.Result, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return types.OKResult(f.id, f.output), nil
}

func (f *fakeAgent) Status() map[string]any {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return map[string]any{"status": "idle"}
}

func newTestRouter(t *testing.T) (*Router, *directory.Directory) {
	t.Helper()
	dir := directory.New(zap.NewNop())
	client := a2a.NewClient("router", dir, a2a.NewLoopbackMesh(), nil, nil)
	return New(dir, client, nil, zap.NewNop()), dir
}

func task(taskType string, caps ...string) *types.Task {
	return &types.Task{Type: taskType, Message: "m", Capabilities: caps}
}

func TestRouter_RuleTableWins(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "generic", caps: []string{"web_search"}, output: "from generic"})
	r.RegisterAgent(&fakeAgent{id: "preferred", caps: []string{"web_search"}, output: "from preferred"})
	r.AddRoutingRule("research", []string{"preferred", "generic"})

	got, err := r.Route(context.Background(), task("research", "web_search"))
	require.NoError(t, err)
	assert.Equal(t, "Task completed by preferred: from preferred", got)
}

func TestRouter_RuleSkipsNonMatching(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "weak", caps: []string{"web_search"}, output: "weak"})
	r.RegisterAgent(&fakeAgent{id: "strong", caps: []string{"web_search", "data_analysis"}, output: "strong"})
	r.AddRoutingRule("research", []string{"weak", "strong"})

	got, err := r.Route(context.Background(), task("research", "web_search", "data_analysis"))
	require.NoError(t, err)
	assert.Equal(t, "Task completed by strong: strong", got)
}

func TestRouter_LocalScanRegistrationOrder(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "first", caps: []string{"data_analysis"}, output: "one"})
	r.RegisterAgent(&fakeAgent{id: "second", caps: []string{"data_analysis"}, output: "two"})

	// no rule for this type; local scan is deterministic by registration order
	for i := 0; i < 5; i++ {
		got, err := r.Route(context.Background(), task("analysis", "data_analysis"))
		require.NoError(t, err)
		assert.Equal(t, "Task completed by first: one", got)
	}
}

func TestRouter_EmptyCapabilitiesMatchAnyLocal(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "anything", caps: nil, output: "ok"})

	got, err := r.Route(context.Background(), task("general"))
	require.NoError(t, err)
	assert.Equal(t, "Task completed by anything: ok", got)
}

func TestRouter_NoSuitableAgent(t *testing.T) {
	r, _ := newTestRouter(t)

	_, err := r.Route(context.Background(), task("research", "web_search"))
	var noAgent *NoSuitableAgentError
	require.ErrorAs(t, err, &noAgent)
	assert.Equal(t, "research", noAgent.TaskType)
}

func TestRouter_DiscoveryFallbackDelegates(t *testing.T) {
	dir := directory.New(zap.NewNop())
	mesh := a2a.NewLoopbackMesh()
	client := a2a.NewClient("router", dir, mesh, nil, nil)
	r := New(dir, client, nil, zap.NewNop())

	remote := a2a.NewClient("remote-researcher", dir, mesh, nil, nil)
	mesh.Attach(remote)
	require.NoError(t, dir.Register(&directory.AgentCard{
		ID:           "remote-researcher",
		Name:         "Remote Researcher",
		Capabilities: []string{"web_search"},
	}))

	got, err := r.Route(context.Background(), task("research", "web_search"))
	require.NoError(t, err)
	assert.Contains(t, got, "Task delegated to remote-researcher")

	env, err := remote.Receive(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.Equal(t, a2a.KindTaskDelegation, env.Kind)
}

func TestRouter_DiscoveryFallbackIgnoresFullSet(t *testing.T) {
	// The discovery stage picks the first agent matching any single
	// required capability without re-verifying the full set. This mirrors
	// the shipped selection behavior; see DESIGN.md.
	dir := directory.New(zap.NewNop())
	mesh := a2a.NewLoopbackMesh()
	client := a2a.NewClient("router", dir, mesh, nil, nil)
	r := New(dir, client, nil, zap.NewNop())

	partial := a2a.NewClient("partial", dir, mesh, nil, nil)
	mesh.Attach(partial)
	require.NoError(t, dir.Register(&directory.AgentCard{
		ID:           "partial",
		Name:         "Partial Match",
		Capabilities: []string{"web_search"}, // missing data_analysis
	}))

	got, err := r.Route(context.Background(), task("research", "web_search", "data_analysis"))
	require.NoError(t, err)
	assert.Contains(t, got, "Task delegated to partial")
}

func TestRouter_InvocationErrorsBecomeText(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "flaky", caps: []string{"debugging"}, err: fmt.Errorf("out of memory")})

	got, err := r.Route(context.Background(), task("coding", "debugging"))
	require.NoError(t, err, "invocation failures never raise")
	assert.Equal(t, "Error executing task with agent flaky: out of memory", got)
}

func TestRouter_PanickingAgentBecomesText(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "crasher", caps: []string{"debugging"}, panicMsg: "nil deref"})

	got, err := r.Route(context.Background(), task("coding", "debugging"))
	require.NoError(t, err)
	assert.Contains(t, got, "Error executing task with agent crasher")
	assert.Contains(t, got, "nil deref")
}

func TestRouter_FailedResultBecomesText(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "a", caps: []string{"x"}})
	agent := &fakeAgent{id: "failer", caps: []string{"report_generation"}}
	r.RegisterAgent(agent)

	// agent returns an unsuccessful result without a Go error
	agent.output = ""
	agent.err = nil
	r.handles["failer"] = agentWithFailedResult{agent}

	got, err := r.Route(context.Background(), task("analysis", "report_generation"))
	require.NoError(t, err)
	assert.Contains(t, got, "Error executing task with agent failer")
}

type agentWithFailedResult struct{ *fakeAgent }

func (a agentWithFailedResult) ProcessTask(ctx context.Context, task *types.Task) (*types.Result, error) {
	return &types.Result{Success: false, Error: "validation failed", AgentID: a.id}, nil
}

func TestRouter_NilResultBecomesText(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(agentWithNilResult{&fakeAgent{id: "hollow", caps: []string{"debugging"}}})

	got, err := r.Route(context.Background(), task("coding", "debugging"))
	require.NoError(t, err, "a nil result without an error must not escape Route")
	assert.Equal(t, "Error executing task with agent hollow: agent returned no result", got)
}

type agentWithNilResult struct{ *fakeAgent }

func (a agentWithNilResult) ProcessTask(ctx context.Context, task *types.Task) (*types.Result, error) {
	return nil, nil
}

func TestRouter_UnregisterIdempotent(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "a", caps: []string{"x"}, output: "ok"})

	r.UnregisterAgent("a")
	r.UnregisterAgent("a") // second call is a no-op

	assert.Empty(t, r.LocalAgents())
	_, err := r.Route(context.Background(), task("general", "x"))
	assert.Error(t, err)
}

func TestRouter_Status(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "healthy", caps: []string{"x"}})
	r.RegisterAgent(&fakeAgent{id: "broken", caps: []string{"y"}, panicMsg: "status exploded"})

	status := r.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "idle", status["healthy"]["status"])
	assert.Equal(t, "error", status["broken"]["status"])
	assert.Contains(t, status["broken"]["error"], "status exploded")
}

func TestRouter_Capabilities(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "a", caps: []string{"x", "y"}})
	r.RegisterAgent(&fakeAgent{id: "b", caps: nil})

	caps := r.Capabilities()
	assert.Equal(t, []string{"x", "y"}, caps["a"])
	assert.Empty(t, caps["b"])
}

func TestRouter_RemoveRoutingRule(t *testing.T) {
	r, _ := newTestRouter(t)
	r.RegisterAgent(&fakeAgent{id: "local", caps: []string{"web_search"}, output: "local wins"})
	r.AddRoutingRule("research", []string{"nonexistent-remote"})
	r.RemoveRoutingRule("research")
	r.RemoveRoutingRule("research") // absent type is a no-op

	got, err := r.Route(context.Background(), task("research", "web_search"))
	require.NoError(t, err)
	assert.Equal(t, "Task completed by local: local wins", got)
}
