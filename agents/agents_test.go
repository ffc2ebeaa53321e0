package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/directory"
	"github.com/coterie-ai/coterie/llm"
	"github.com/coterie-ai/coterie/router"
	"github.com/coterie-ai/coterie/tool"
	"github.com/coterie-ai/coterie/types"
)

// Concrete agent kinds must satisfy the router's handle contract.
var (
	_ router.Agent = (*ResearchAgent)(nil)
	_ router.Agent = (*PlanningAgent)(nil)
)

func testHarness(t *testing.T) (*directory.Directory, *a2a.LoopbackMesh, *llm.StaticProvider) {
	t.Helper()
	return directory.New(zap.NewNop()), a2a.NewLoopbackMesh(), llm.NewStaticProvider("canned answer")
}

func TestResearchAgent_InitRegistersCard(t *testing.T) {
	dir, mesh, provider := testHarness(t)
	client := a2a.NewClient("research-agent", dir, mesh, nil, nil)
	agent := NewResearchAgent(Config{}, provider, tool.NewRegistry(nil), client, nil)

	require.NoError(t, agent.Init(context.Background()))

	card, ok := dir.Get("research-agent")
	require.True(t, ok)
	assert.Equal(t, "Research Agent", card.Name)
	assert.Contains(t, card.Capabilities, "web_search")
	assert.Contains(t, card.Capabilities, "data_analysis")

	agent.Shutdown(context.Background())
	_, ok = dir.Get("research-agent")
	assert.False(t, ok)
}

func TestResearchAgent_ProcessTask(t *testing.T) {
	dir, mesh, provider := testHarness(t)
	provider.Respond("research assistant", "search plan: three topics")
	client := a2a.NewClient("research-agent", dir, mesh, nil, nil)
	agent := NewResearchAgent(Config{}, provider, nil, client, nil)

	result, err := agent.ProcessTask(context.Background(), &types.Task{
		Type:    types.TaskTypeResearch,
		Message: "search for quantum computing trends",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "search plan: three topics", result.Output)
	assert.Equal(t, "research-agent", result.AgentID)

	// the query landed in agent memory
	query, ok := agent.Recall("last_search_query")
	require.True(t, ok)
	assert.Equal(t, "search for quantum computing trends", query)

	assert.Equal(t, StatusIdle, agent.Status()["status"])
}

func TestResearchAgent_ProviderFailureFolded(t *testing.T) {
	dir, mesh, provider := testHarness(t)
	provider.Fail(errors.New("rate limited"))
	client := a2a.NewClient("research-agent", dir, mesh, nil, nil)
	agent := NewResearchAgent(Config{}, provider, nil, client, nil)

	result, err := agent.ProcessTask(context.Background(), &types.Task{
		Type:    types.TaskTypeResearch,
		Message: "analyze the quarterly numbers",
	})
	require.NoError(t, err, "provider errors are folded into the result")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "rate limited")
	assert.Equal(t, StatusError, agent.Status()["status"])
}

func TestPlanningAgent_Dispatch(t *testing.T) {
	dir, mesh, provider := testHarness(t)
	provider.Respond("project manager", "1. subtask a 2. subtask b")
	provider.Respond("workflow planner", "step-by-step workflow")
	client := a2a.NewClient("planning-agent", dir, mesh, nil, nil)
	agent := NewPlanningAgent(Config{}, provider, nil, client, nil)

	tests := []struct {
		message string
		want    string
	}{
		{"break down the migration project", "1. subtask a 2. subtask b"},
		{"plan the release", "step-by-step workflow"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			result, err := agent.ProcessTask(context.Background(), &types.Task{
				Type:    types.TaskTypePlanning,
				Message: tt.message,
			})
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, tt.want, result.Output)
		})
	}
}

func TestBaseAgent_StatusBroadcast(t *testing.T) {
	dir, mesh, provider := testHarness(t)
	client := a2a.NewClient("planner", dir, mesh, nil, nil)
	observer := a2a.NewClient("observer", dir, mesh, nil, nil)
	mesh.Attach(client)
	mesh.Attach(observer)
	require.NoError(t, dir.Register(&directory.AgentCard{ID: "observer", Name: "Observer"}))

	agent := NewPlanningAgent(Config{ID: "planner"}, provider, nil, client, nil)
	client.Subscribe("observer")

	agent.SetStatus(context.Background(), StatusProcessing)

	status := observer.LastStatus("planner")
	require.NotNil(t, status)
	assert.Equal(t, StatusProcessing, status["status"])
}

func TestBaseAgent_Collaborate(t *testing.T) {
	dir, mesh, provider := testHarness(t)
	client := a2a.NewClient("lead", dir, mesh, nil, nil)
	peer := a2a.NewClient("peer", dir, mesh, nil, nil)
	mesh.Attach(peer)
	require.NoError(t, dir.Register(&directory.AgentCard{ID: "peer", Name: "Peer"}))

	agent := NewResearchAgent(Config{ID: "lead"}, provider, nil, client, nil)

	results := agent.Collaborate(context.Background(), []string{"peer", "ghost"}, &types.Task{Type: "general"})
	require.Len(t, results, 2)
	assert.True(t, results["peer"].Success)
	assert.False(t, results["ghost"].Success)
	assert.Contains(t, results["ghost"].Error, "not found")
}

func TestBaseAgent_ExecuteTool(t *testing.T) {
	dir, mesh, provider := testHarness(t)
	client := a2a.NewClient("a", dir, mesh, nil, nil)

	registry := tool.NewRegistry(nil)
	tool.RegisterBuiltins(registry)
	agent := NewBaseAgent(Config{ID: "a", Name: "A"}, provider, registry, client, nil)

	result, err := agent.ExecuteTool(context.Background(), "calculator", map[string]any{"expression": "6 * 7"})
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = agent.ExecuteTool(context.Background(), "no-such-tool", nil)
	assert.ErrorIs(t, err, tool.ErrToolNotFound)

	bare := NewBaseAgent(Config{ID: "b", Name: "B"}, provider, nil, client, nil)
	_, err = bare.ExecuteTool(context.Background(), "calculator", nil)
	assert.Error(t, err)
}

func TestBaseAgent_Memory(t *testing.T) {
	dir, mesh, provider := testHarness(t)
	client := a2a.NewClient("a", dir, mesh, nil, nil)
	agent := NewBaseAgent(Config{ID: "a", Name: "A"}, provider, nil, client, nil)

	agent.Remember("k", 42)
	v, ok := agent.Recall("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	status := agent.Status()
	assert.Equal(t, []string{"k"}, status["memory_keys"])

	agent.ClearMemory()
	_, ok = agent.Recall("k")
	assert.False(t, ok)
}
