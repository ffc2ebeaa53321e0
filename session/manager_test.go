package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/directory"
	"github.com/coterie-ai/coterie/router"
	"github.com/coterie-ai/coterie/types"
)

// echoAgent answers every task and records the last task it saw.
type echoAgent struct {
	mu   sync.Mutex
	id   string
	caps []string
	last *types.Task
}

func (e *echoAgent) ID() string             { return e.id }
func (e *echoAgent) Capabilities() []string { return e.caps }

func (e *echoAgent) ProcessTask(ctx context.Context, task *types.Task) (*types.Result, error) {
	e.mu.Lock()
	e.last = task
	e.mu.Unlock()
	return types.OKResult(e.id, "echo: "+task.Message), nil
}

func (e *echoAgent) Status() map[string]any { return map[string]any{"status": "idle"} }

func (e *echoAgent) lastTask() *types.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func newTestManager(t *testing.T, config *ManagerConfig) (*Manager, *echoAgent) {
	t.Helper()
	dir := directory.New(zap.NewNop())
	client := a2a.NewClient("router", dir, a2a.NewLoopbackMesh(), nil, nil)
	r := router.New(dir, client, nil, zap.NewNop())

	agent := &echoAgent{id: "echo", caps: []string{
		"web_search", "data_analysis", "task_decomposition", "workflow_planning",
		"report_generation", "code_generation", "debugging",
	}}
	r.RegisterAgent(agent)

	return NewManager(r, config, nil, zap.NewNop()), agent
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text     string
		taskType string
		caps     []string
	}{
		{"search for quantum computing papers", types.TaskTypeResearch, []string{"web_search", "data_analysis"}},
		{"please look up the old thread", types.TaskTypeResearch, []string{"web_search", "data_analysis"}},
		{"plan a project", types.TaskTypePlanning, []string{"task_decomposition", "workflow_planning"}},
		{"ORGANIZE my week", types.TaskTypePlanning, []string{"task_decomposition", "workflow_planning"}},
		{"summarize this document", types.TaskTypeAnalysis, []string{"data_analysis", "report_generation"}},
		{"implement the parser", types.TaskTypeCoding, []string{"code_generation", "debugging"}},
		{"hello there", types.TaskTypeGeneral, nil},
		// first matching category wins: research is scanned before planning
		{"plan a search strategy", types.TaskTypeResearch, []string{"web_search", "data_analysis"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			taskType, caps := Classify(tt.text)
			assert.Equal(t, tt.taskType, taskType)
			assert.Equal(t, tt.caps, caps)
		})
	}
}

func TestManager_ProcessAndHistoryOrder(t *testing.T) {
	m, _ := newTestManager(t, nil)

	r1 := m.Process(context.Background(), "alice", "hello")
	r2 := m.Process(context.Background(), "alice", "hello again")

	history := m.History("alice", 0)
	require.Len(t, history, 4)
	assert.Equal(t, types.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, types.RoleAssistant, history[1].Role)
	assert.Equal(t, r1, history[1].Content)
	assert.Equal(t, types.RoleUser, history[2].Role)
	assert.Equal(t, "hello again", history[2].Content)
	assert.Equal(t, r2, history[3].Content)
}

func TestManager_ProcessClassifiesAndRoutes(t *testing.T) {
	m, agent := newTestManager(t, nil)

	got := m.Process(context.Background(), "alice", "search for Go generics articles")
	assert.Contains(t, got, "echo: search for Go generics articles")

	task := agent.lastTask()
	require.NotNil(t, task)
	assert.Equal(t, types.TaskTypeResearch, task.Type)
	assert.Equal(t, []string{"web_search", "data_analysis"}, task.Capabilities)
	assert.Equal(t, "alice", task.UserID)
}

func TestManager_ProcessNeverFailsOutward(t *testing.T) {
	dir := directory.New(zap.NewNop())
	client := a2a.NewClient("router", dir, a2a.NewLoopbackMesh(), nil, nil)
	r := router.New(dir, client, nil, zap.NewNop())
	m := NewManager(r, nil, nil, zap.NewNop())

	// no agents anywhere: routing fails, the user still gets text back
	got := m.Process(context.Background(), "alice", "search for anything")
	assert.Contains(t, got, "No agent is currently able to handle this request")

	history := m.History("alice", 0)
	require.Len(t, history, 2)
	assert.Equal(t, types.RoleAssistant, history[1].Role)
}

func TestManager_HistoryWindowAttachedToTask(t *testing.T) {
	m, agent := newTestManager(t, nil)

	for i := 0; i < 4; i++ {
		m.Process(context.Background(), "alice", fmt.Sprintf("message %d", i))
	}

	task := agent.lastTask()
	require.NotNil(t, task)
	// eight entries logged so far, window carries the last five, ending with
	// the message being processed
	require.Len(t, task.History, 5)
	assert.Equal(t, "message 3", task.History[4].Content)
	assert.Equal(t, types.RoleUser, task.History[4].Role)
	assert.Equal(t, types.RoleAssistant, task.History[3].Role)
}

func TestManager_HistoryLimit(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Process(context.Background(), "alice", "one")
	m.Process(context.Background(), "alice", "two")

	assert.Len(t, m.History("alice", 3), 3)
	assert.Len(t, m.History("alice", 0), 4)
	assert.Nil(t, m.History("nobody", 0))
}

func TestManager_TokenBudgetTrimsWindow(t *testing.T) {
	m, agent := newTestManager(t, &ManagerConfig{
		HistoryWindow: 5,
		TokenBudget:   1, // too small for anything, only the newest survives
		Tokenizer:     types.NewEstimateTokenizer(),
	})

	for i := 0; i < 3; i++ {
		m.Process(context.Background(), "alice", fmt.Sprintf("message number %d", i))
	}

	task := agent.lastTask()
	require.NotNil(t, task)
	require.Len(t, task.History, 1)
	assert.Equal(t, "message number 2", task.History[0].Content)
}

func TestManager_UpdateContext(t *testing.T) {
	m, agent := newTestManager(t, nil)

	err := m.UpdateContext("alice", map[string]any{"k": "v"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	m.Process(context.Background(), "alice", "hello")
	require.NoError(t, m.UpdateContext("alice", map[string]any{"project": "coterie"}))
	require.NoError(t, m.UpdateContext("alice", map[string]any{"stage": "beta"}))

	m.Process(context.Background(), "alice", "hello again")
	task := agent.lastTask()
	require.NotNil(t, task)
	assert.Equal(t, "coterie", task.Context["project"])
	assert.Equal(t, "beta", task.Context["stage"])
}

func TestManager_SetPreferencesInitializes(t *testing.T) {
	m, _ := newTestManager(t, nil)

	m.SetPreferences("bob", map[string]any{"tone": "formal"})

	state, ok := m.State("bob")
	require.True(t, ok)
	assert.True(t, state.Active)
	assert.Equal(t, "formal", state.Preferences["tone"])
}

func TestManager_EndKeepsState(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Process(context.Background(), "alice", "hello")

	assert.True(t, m.End("alice"))
	assert.False(t, m.End("nobody"))

	state, ok := m.State("alice")
	require.True(t, ok)
	assert.False(t, state.Active)
	assert.Len(t, m.History("alice", 0), 2)
}

func TestManager_CleanupInactive(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Process(context.Background(), "stale", "hello")

	time.Sleep(20 * time.Millisecond)
	m.Process(context.Background(), "fresh", "hello")

	removed := m.CleanupInactive(10 * time.Millisecond)
	assert.Equal(t, 1, removed)

	_, ok := m.State("stale")
	assert.False(t, ok)
	_, ok = m.State("fresh")
	assert.True(t, ok)
	assert.Nil(t, m.History("stale", 0))
}

func TestManager_Stats(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Process(context.Background(), "alice", "hello")
	m.Process(context.Background(), "bob", "hi")
	m.End("bob")

	stats := m.Stats()
	assert.Equal(t, 2, stats["total_sessions"])
	assert.Equal(t, 1, stats["active_sessions"])
	assert.Equal(t, 4, stats["total_history_entries"])

	routerStatus, ok := stats["router_status"].(map[string]map[string]any)
	require.True(t, ok)
	assert.Contains(t, routerStatus, "echo")
}

func TestManager_StartMultiAgentConversation(t *testing.T) {
	m, _ := newTestManager(t, nil)

	got := m.StartMultiAgentConversation("alice", []string{"echo", "other"}, "launch readiness")
	assert.Equal(t, "Started multi-agent conversation with 2 agents on topic: launch readiness", got)

	state, ok := m.State("alice")
	require.True(t, ok)
	assert.Contains(t, state.Context, "multi_agent")
}

func TestManager_ConcurrentUsers(t *testing.T) {
	m, _ := newTestManager(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			for j := 0; j < 5; j++ {
				m.Process(context.Background(), userID, fmt.Sprintf("search item %d", j))
			}
		}()
	}
	wg.Wait()

	stats := m.Stats()
	assert.Equal(t, 8, stats["total_sessions"])
	assert.Equal(t, 80, stats["total_history_entries"])
	for i := 0; i < 8; i++ {
		assert.Len(t, m.History(fmt.Sprintf("user-%d", i), 0), 10)
	}
}
