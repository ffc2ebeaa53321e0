package types

import "time"

// Task type tags produced by the session classifier. The set is open-ended:
// routing treats the type as an opaque string and unknown types fall through
// to capability matching.
const (
	TaskTypeResearch = "research"
	TaskTypePlanning = "planning"
	TaskTypeAnalysis = "analysis"
	TaskTypeCoding   = "coding"
	TaskTypeGeneral  = "general"
)

// Task describes a routable unit of work derived from a user message.
type Task struct {
	// Type is the best-effort task category (research, planning, ...).
	Type string `json:"type"`

	// Message is the originating free-text user message.
	Message string `json:"message"`

	// UserID identifies the user the task originated from.
	UserID string `json:"user_id,omitempty"`

	// Capabilities lists the capability tags an agent must advertise to
	// handle this task.
	Capabilities []string `json:"capabilities,omitempty"`

	// Context carries accumulated conversation facts.
	Context map[string]any `json:"context,omitempty"`

	// History is a bounded chronological window of recent conversation
	// entries.
	History []Message `json:"history,omitempty"`

	// CreatedAt is when the task was built.
	CreatedAt time.Time `json:"created_at"`
}

// Result is the outcome of an agent processing a task.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
	AgentID string `json:"agent_id,omitempty"`
}

// OKResult builds a successful result attributed to the given agent.
func OKResult(agentID, output string) *Result {
	return &Result{Success: true, Output: output, AgentID: agentID}
}

// FailResult builds a failed result attributed to the given agent.
func FailResult(agentID string, err error) *Result {
	r := &Result{Success: false, AgentID: agentID}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
