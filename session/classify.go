package session

import (
	"strings"

	"github.com/coterie-ai/coterie/types"
)

// classificationRule maps message keywords to a task category and the
// capabilities an agent needs to handle it.
type classificationRule struct {
	taskType     string
	keywords     []string
	capabilities []string
}

// classificationRules is scanned in order; the first rule with a matching
// keyword wins. Messages matching no rule classify as general with no
// required capabilities.
var classificationRules = []classificationRule{
	{
		taskType:     types.TaskTypeResearch,
		keywords:     []string{"search", "find", "research", "look up"},
		capabilities: []string{"web_search", "data_analysis"},
	},
	{
		taskType:     types.TaskTypePlanning,
		keywords:     []string{"plan", "schedule", "organize", "break down"},
		capabilities: []string{"task_decomposition", "workflow_planning"},
	},
	{
		taskType:     types.TaskTypeAnalysis,
		keywords:     []string{"analyze", "report", "summarize"},
		capabilities: []string{"data_analysis", "report_generation"},
	},
	{
		taskType:     types.TaskTypeCoding,
		keywords:     []string{"code", "program", "implement", "develop"},
		capabilities: []string{"code_generation", "debugging"},
	},
}

// Classify determines the task category and required capabilities for a
// user message by case-insensitive keyword substring match.
func Classify(text string) (taskType string, capabilities []string) {
	lower := strings.ToLower(text)
	for _, rule := range classificationRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.taskType, append([]string(nil), rule.capabilities...)
			}
		}
	}
	return types.TaskTypeGeneral, nil
}
