package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/llm"
	"github.com/coterie-ai/coterie/tool"
	"github.com/coterie-ai/coterie/types"
)

// ResearchAgent handles search, analysis, and report tasks.
type ResearchAgent struct {
	*BaseAgent
}

// NewResearchAgent creates a research agent with its standard capability
// set. Zero-value config fields are filled with defaults.
func NewResearchAgent(config Config, provider llm.Provider, tools *tool.Registry, client *a2a.Client, logger *zap.Logger) *ResearchAgent {
	if config.ID == "" {
		config.ID = "research-agent"
	}
	if config.Name == "" {
		config.Name = "Research Agent"
	}
	if len(config.Capabilities) == 0 {
		config.Capabilities = []string{"web_search", "data_analysis", "report_generation"}
	}
	if len(config.Tools) == 0 {
		config.Tools = []string{"web_search", "database_query", "text_summarizer"}
	}
	return &ResearchAgent{BaseAgent: NewBaseAgent(config, provider, tools, client, logger)}
}

// ProcessTask dispatches the task by type tag, falling back to keyword
// matching on the message, and runs the matching handler.
func (a *ResearchAgent) ProcessTask(ctx context.Context, task *types.Task) (*types.Result, error) {
	return a.runTask(ctx, task, func(ctx context.Context, task *types.Task) (string, error) {
		msg := strings.ToLower(task.Message)
		switch {
		case task.Type == "web_search" || strings.Contains(msg, "search"):
			return a.webSearch(ctx, task.Message)
		case task.Type == "data_analysis" || strings.Contains(msg, "analyze"):
			return a.analyzeData(ctx, task.Message)
		case task.Type == "report_generation" || strings.Contains(msg, "report"):
			return a.generateReport(ctx, task)
		default:
			return a.generalResearch(ctx, task)
		}
	})
}

func (a *ResearchAgent) webSearch(ctx context.Context, query string) (string, error) {
	a.Remember("last_search_query", query)

	prompt := fmt.Sprintf(`You are a research assistant. Given the query: %q

1. Break down the search into key topics
2. Suggest refined search terms
3. Identify what types of sources would be most valuable

Respond with a structured search plan.`, query)

	plan, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}

	a.Remember("last_search_plan", plan)
	return plan, nil
}

func (a *ResearchAgent) analyzeData(ctx context.Context, description string) (string, error) {
	a.Remember("last_analysis_request", description)

	prompt := fmt.Sprintf(`You are a data analyst. Analyze the following data description: %q

Provide:
1. Key patterns and trends
2. Statistical insights
3. Actionable recommendations
4. Potential limitations or caveats

Structure your analysis professionally.`, description)

	analysis, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("data analysis: %w", err)
	}

	a.Remember("last_analysis", analysis)
	return analysis, nil
}

func (a *ResearchAgent) generateReport(ctx context.Context, task *types.Task) (string, error) {
	prompt := fmt.Sprintf(`You are a research analyst. Write a structured research report on: %q

Known context: %v

Include an executive summary, key findings, and recommendations.`,
		task.Message, task.Context)

	report, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("report generation: %w", err)
	}
	return report, nil
}

func (a *ResearchAgent) generalResearch(ctx context.Context, task *types.Task) (string, error) {
	prompt := fmt.Sprintf("You are a research assistant. Help with the following request: %q", task.Message)
	out, err := a.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("general research: %w", err)
	}
	return out, nil
}
