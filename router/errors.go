package router

import "fmt"

// NoSuitableAgentError reports that selection exhausted every stage without
// finding an agent for the task.
type NoSuitableAgentError struct {
	TaskType string
}

// Error implements the error interface.
func (e *NoSuitableAgentError) Error() string {
	return fmt.Sprintf("router: no suitable agent found for task type: %s", e.TaskType)
}
