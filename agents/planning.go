package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/llm"
	"github.com/coterie-ai/coterie/tool"
	"github.com/coterie-ai/coterie/types"
)

// PlanningAgent handles decomposition, workflow planning, scheduling, and
// resource allocation tasks.
type PlanningAgent struct {
	*BaseAgent
}

// NewPlanningAgent creates a planning agent with its standard capability
// set. Zero-value config fields are filled with defaults.
func NewPlanningAgent(config Config, provider llm.Provider, tools *tool.Registry, client *a2a.Client, logger *zap.Logger) *PlanningAgent {
	if config.ID == "" {
		config.ID = "planning-agent"
	}
	if config.Name == "" {
		config.Name = "Planning Agent"
	}
	if len(config.Capabilities) == 0 {
		config.Capabilities = []string{"task_decomposition", "workflow_planning", "resource_allocation"}
	}
	if len(config.Tools) == 0 {
		config.Tools = []string{"calculator", "clock"}
	}
	return &PlanningAgent{BaseAgent: NewBaseAgent(config, provider, tools, client, logger)}
}

// ProcessTask dispatches the task by type tag, falling back to keyword
// matching on the message, and runs the matching handler.
func (a *PlanningAgent) ProcessTask(ctx context.Context, task *types.Task) (*types.Result, error) {
	return a.runTask(ctx, task, func(ctx context.Context, task *types.Task) (string, error) {
		msg := strings.ToLower(task.Message)
		switch {
		case task.Type == "task_decomposition" || strings.Contains(msg, "break down"):
			return a.decompose(ctx, task)
		case task.Type == "workflow_planning" || strings.Contains(msg, "plan"):
			return a.planWorkflow(ctx, task)
		case task.Type == "resource_allocation" || strings.Contains(msg, "resource"):
			return a.allocateResources(ctx, task)
		case strings.Contains(msg, "schedule") || strings.Contains(msg, "timeline"):
			return a.buildTimeline(ctx, task)
		default:
			return a.generalPlanning(ctx, task)
		}
	})
}

func (a *PlanningAgent) decompose(ctx context.Context, task *types.Task) (string, error) {
	a.Remember("current_decomposition", task.Message)

	contextJSON, _ := json.Marshal(task.Context)
	prompt := fmt.Sprintf(`You are an expert project manager. Break down this complex task into manageable subtasks:

Main Task: %q
Context: %s

Provide a numbered list of subtasks with dependencies and rough effort estimates.`,
		task.Message, contextJSON)

	out, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("task decomposition: %w", err)
	}
	return out, nil
}

func (a *PlanningAgent) planWorkflow(ctx context.Context, task *types.Task) (string, error) {
	prompt := fmt.Sprintf(`You are a workflow planner. Design a step-by-step workflow for: %q

Include milestones, decision points, and the order of operations.`, task.Message)

	out, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("workflow planning: %w", err)
	}
	a.Remember("last_workflow_plan", out)
	return out, nil
}

func (a *PlanningAgent) allocateResources(ctx context.Context, task *types.Task) (string, error) {
	prompt := fmt.Sprintf(`You are a resource planner. Propose a resource allocation for: %q

Cover people, time, and budget, and call out constraints.`, task.Message)

	out, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("resource allocation: %w", err)
	}
	return out, nil
}

func (a *PlanningAgent) buildTimeline(ctx context.Context, task *types.Task) (string, error) {
	prompt := fmt.Sprintf(`You are a scheduler. Build a realistic timeline for: %q

List phases with start/end offsets and dependencies.`, task.Message)

	out, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("timeline: %w", err)
	}
	return out, nil
}

func (a *PlanningAgent) generalPlanning(ctx context.Context, task *types.Task) (string, error) {
	prompt := fmt.Sprintf("You are a planning assistant. Help with the following request: %q", task.Message)
	out, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("general planning: %w", err)
	}
	return out, nil
}
