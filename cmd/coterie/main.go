// Command coterie runs an in-process multi-agent orchestrator demo: a
// research and a planning agent behind a task router and session manager,
// driven by a line-based REPL on stdin.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/a2a"
	"github.com/coterie-ai/coterie/agents"
	"github.com/coterie-ai/coterie/config"
	"github.com/coterie-ai/coterie/directory"
	"github.com/coterie-ai/coterie/internal/metrics"
	"github.com/coterie-ai/coterie/internal/telemetry"
	"github.com/coterie-ai/coterie/llm"
	"github.com/coterie-ai/coterie/llm/tokenizer"
	"github.com/coterie-ai/coterie/router"
	"github.com/coterie-ai/coterie/session"
	"github.com/coterie-ai/coterie/tool"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	userID := flag.String("user", "demo-user", "user id for the REPL session")
	flag.Parse()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger, *userID); err != nil {
		logger.Fatal("orchestrator failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, userID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector(cfg.Metrics.Namespace, prometheus.NewRegistry(), logger)

	dir := directory.New(logger)
	if cfg.Redis.Enabled {
		store, err := directory.NewRedisStore(directory.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		})
		if err != nil {
			return fmt.Errorf("connect snapshot store: %w", err)
		}
		defer store.Close()

		if err := directory.Restore(ctx, dir, store); err != nil {
			logger.Warn("no directory snapshot restored", zap.Error(err))
		}
		defer func() {
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := directory.Save(saveCtx, dir, store); err != nil {
				logger.Warn("directory snapshot save failed", zap.Error(err))
			}
		}()
	}

	mesh := a2a.NewLoopbackMesh()
	clientConfig := &a2a.ClientConfig{
		InboxSize:      cfg.A2A.InboxSize,
		BroadcastRate:  cfg.A2A.BroadcastRate,
		BroadcastBurst: cfg.A2A.BroadcastBurst,
	}

	routerClient := a2a.NewClient("router", dir, mesh, clientConfig, logger)
	mesh.Attach(routerClient)

	r := router.New(dir, routerClient, collector, logger)
	for taskType, agentIDs := range cfg.Router.Rules {
		r.AddRoutingRule(taskType, agentIDs)
	}

	provider := demoProvider()
	tools := tool.NewRegistry(logger)
	tool.RegisterBuiltins(tools)

	modelConfig := llm.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}

	for _, agent := range []router.Agent{
		agents.NewResearchAgent(
			agents.Config{Model: modelConfig}, provider, tools,
			newAttachedClient(mesh, "research-agent", dir, clientConfig, logger), logger),
		agents.NewPlanningAgent(
			agents.Config{Model: modelConfig}, provider, tools,
			newAttachedClient(mesh, "planning-agent", dir, clientConfig, logger), logger),
	} {
		initable := agent.(interface {
			Init(context.Context) error
			Shutdown(context.Context)
		})
		if err := initable.Init(ctx); err != nil {
			return fmt.Errorf("init agent %s: %w", agent.ID(), err)
		}
		defer initable.Shutdown(context.Background())
		r.RegisterAgent(agent)
	}

	sessionConfig := &session.ManagerConfig{
		HistoryWindow: cfg.Session.HistoryWindow,
		TokenBudget:   cfg.Session.TokenBudget,
	}
	if cfg.Session.TokenBudget > 0 {
		sessionConfig.Tokenizer = tokenizer.New(cfg.LLM.Model)
	}
	manager := session.NewManager(r, sessionConfig, collector, logger)

	go cleanupLoop(ctx, manager, cfg.Session, logger)

	return repl(ctx, manager, userID, logger)
}

// demoProvider returns canned responses so the demo runs without
// credentials or network access.
func demoProvider() llm.Provider {
	return llm.NewStaticProvider("I can help with research, planning, analysis, and coding tasks.").
		Respond("research assistant", "Here is a structured search plan for your query.").
		Respond("data analyst", "Analysis complete: the data shows a steady upward trend.").
		Respond("project manager", "1. Scope the work\n2. Assign owners\n3. Review weekly").
		Respond("workflow planner", "Workflow: gather requirements, draft, review, ship.")
}

func newAttachedClient(mesh *a2a.LoopbackMesh, agentID string, dir *directory.Directory, cfg *a2a.ClientConfig, logger *zap.Logger) *a2a.Client {
	c := a2a.NewClient(agentID, dir, mesh, cfg, logger)
	mesh.Attach(c)
	return c
}

func cleanupLoop(ctx context.Context, manager *session.Manager, cfg config.SessionConfig, logger *zap.Logger) {
	if cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupInactive(cfg.InactiveAge); removed > 0 {
				logger.Info("swept inactive sessions", zap.Int("removed", removed))
			}
		}
	}
}

func repl(ctx context.Context, manager *session.Manager, userID string, logger *zap.Logger) error {
	fmt.Println("coterie orchestrator ready. Type a message, 'stats', or 'quit'.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			manager.End(userID)
			return nil
		case line == "stats":
			printStats(manager.Stats())
		case line == "history":
			for _, entry := range manager.History(userID, 0) {
				fmt.Printf("[%s] %s\n", entry.Role, entry.Content)
			}
		default:
			fmt.Println(manager.Process(ctx, userID, line))
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("stdin read failed", zap.Error(err))
	}
	manager.End(userID)
	return nil
}

func printStats(stats map[string]any) {
	fmt.Printf("sessions: %v total, %v active, %v history entries\n",
		stats["total_sessions"], stats["active_sessions"], stats["total_history_entries"])
	if status, ok := stats["router_status"].(map[string]map[string]any); ok {
		for id, s := range status {
			fmt.Printf("agent %s: %v\n", id, s["status"])
		}
	}
}
