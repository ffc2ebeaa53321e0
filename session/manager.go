package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coterie-ai/coterie/internal/metrics"
	"github.com/coterie-ai/coterie/router"
	"github.com/coterie-ai/coterie/types"
)

// ErrSessionNotFound is returned when an operation requires an existing
// session and none has been initialized for the user.
var ErrSessionNotFound = errors.New("session not found")

// HistoryEntry is one logged conversation turn.
type HistoryEntry struct {
	Role      types.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// State is the per-user conversation state snapshot.
type State struct {
	CreatedAt    time.Time      `json:"created_at"`
	Context      map[string]any `json:"context"`
	Preferences  map[string]any `json:"preferences"`
	LastActivity time.Time      `json:"last_activity"`
	Active       bool           `json:"active"`
}

// ManagerConfig configures a session manager.
type ManagerConfig struct {
	// HistoryWindow is how many recent history entries are attached to each
	// routed task.
	HistoryWindow int `json:"history_window" yaml:"history_window"`

	// TokenBudget, when positive, trims the attached history window from the
	// oldest entry down until it fits the budget. Requires a Tokenizer.
	TokenBudget int `json:"token_budget" yaml:"token_budget"`

	// Tokenizer counts tokens for budget trimming. Ignored when TokenBudget
	// is zero.
	Tokenizer types.Tokenizer `json:"-" yaml:"-"`
}

// DefaultManagerConfig returns a ManagerConfig with sensible defaults.
func DefaultManagerConfig() *ManagerConfig {
	return &ManagerConfig{HistoryWindow: 5}
}

// session pairs a user's state with its history log. Its mutex serializes
// all operations for that user.
type session struct {
	mu      sync.Mutex
	state   State
	history []HistoryEntry
}

// Manager owns conversation state for all users and turns user messages
// into routed tasks.
type Manager struct {
	config    *ManagerConfig
	router    *router.Router
	collector *metrics.Collector
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewManager creates a session manager on top of the given router.
// config, collector, and logger may be nil.
func NewManager(r *router.Router, config *ManagerConfig, collector *metrics.Collector, logger *zap.Logger) *Manager {
	if config == nil {
		config = DefaultManagerConfig()
	}
	if config.HistoryWindow <= 0 {
		config.HistoryWindow = DefaultManagerConfig().HistoryWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		config:    config,
		router:    r,
		collector: collector,
		logger:    logger.With(zap.String("component", "session_manager")),
		sessions:  make(map[string]*session),
	}
}

// Process handles one user message: it initializes the session if needed,
// logs the message, classifies it into a task, routes it, logs the
// response, and returns the response text. It never returns an error to
// the caller; routing failures come back as text.
func (m *Manager) Process(ctx context.Context, userID, text string) string {
	s := m.getOrCreate(userID)

	s.mu.Lock()
	m.appendEntry(s, types.RoleUser, text)

	taskType, capabilities := Classify(text)
	task := &types.Task{
		Type:         taskType,
		Message:      text,
		UserID:       userID,
		Capabilities: capabilities,
		Context:      cloneMap(s.state.Context),
		History:      m.historyWindow(s),
		CreatedAt:    time.Now(),
	}

	m.logger.Debug("message classified",
		zap.String("user_id", userID),
		zap.String("task_type", taskType),
		zap.Strings("capabilities", capabilities),
	)

	response, err := m.router.Route(ctx, task)
	if err != nil {
		m.logger.Warn("routing failed",
			zap.String("user_id", userID),
			zap.String("task_type", taskType),
			zap.Error(err),
		)
		response = fmt.Sprintf("No agent is currently able to handle this request: %v", err)
	}

	m.appendEntry(s, types.RoleAssistant, response)
	s.mu.Unlock()

	m.publishStats()
	return response
}

// History returns the user's conversation history, or the last limit
// entries when limit is positive. A missing session yields an empty slice.
func (m *Manager) History(userID string, limit int) []HistoryEntry {
	s := m.get(userID)
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.history
	if limit > 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	return append([]HistoryEntry(nil), entries...)
}

// UpdateContext merges patch into the session's context map, key-wise
// overwrite. Updating a session that was never initialized is an error.
func (m *Manager) UpdateContext(userID string, patch map[string]any) error {
	s := m.get(userID)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, userID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range patch {
		s.state.Context[k] = v
	}
	s.state.LastActivity = time.Now()
	return nil
}

// SetPreferences replaces the user's preferences wholesale, initializing
// the session first if absent.
func (m *Manager) SetPreferences(userID string, prefs map[string]any) {
	s := m.getOrCreate(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Preferences = cloneMap(prefs)
	s.state.LastActivity = time.Now()
}

// State returns a snapshot of the user's session state.
func (m *Manager) State(userID string) (State, bool) {
	s := m.get(userID)
	if s == nil {
		return State{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state
	snapshot.Context = cloneMap(s.state.Context)
	snapshot.Preferences = cloneMap(s.state.Preferences)
	return snapshot, true
}

// End marks the user's session inactive. State and history are kept.
// It reports whether a session existed.
func (m *Manager) End(userID string) bool {
	s := m.get(userID)
	if s == nil {
		return false
	}

	s.mu.Lock()
	s.state.Active = false
	s.mu.Unlock()

	m.logger.Info("session ended", zap.String("user_id", userID))
	m.publishStats()
	return true
}

// CleanupInactive removes all state and history for users whose last
// activity is older than age. It returns how many sessions were removed.
func (m *Manager) CleanupInactive(age time.Duration) int {
	cutoff := time.Now().Add(-age)

	m.mu.Lock()
	var removed []string
	for userID, s := range m.sessions {
		s.mu.Lock()
		stale := s.state.LastActivity.Before(cutoff)
		s.mu.Unlock()
		if stale {
			removed = append(removed, userID)
			delete(m.sessions, userID)
		}
	}
	m.mu.Unlock()

	for _, userID := range removed {
		m.logger.Info("cleaned up inactive session", zap.String("user_id", userID))
	}
	if len(removed) > 0 {
		m.publishStats()
	}
	return len(removed)
}

// StartMultiAgentConversation records a multi-agent discussion in the
// user's session context and returns a summary line.
func (m *Manager) StartMultiAgentConversation(userID string, agentIDs []string, topic string) string {
	s := m.getOrCreate(userID)

	s.mu.Lock()
	s.state.Context["multi_agent"] = map[string]any{
		"agents":     append([]string(nil), agentIDs...),
		"topic":      topic,
		"started_at": time.Now(),
	}
	s.state.LastActivity = time.Now()
	s.mu.Unlock()

	return fmt.Sprintf("Started multi-agent conversation with %d agents on topic: %s", len(agentIDs), topic)
}

// Stats returns session totals along with the router's per-agent status.
func (m *Manager) Stats() map[string]any {
	m.mu.RLock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	var active, entries int
	for _, s := range sessions {
		s.mu.Lock()
		if s.state.Active {
			active++
		}
		entries += len(s.history)
		s.mu.Unlock()
	}

	return map[string]any{
		"total_sessions":        len(sessions),
		"active_sessions":       active,
		"total_history_entries": entries,
		"router_status":         m.router.Status(),
	}
}

func (m *Manager) get(userID string) *session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID]
}

func (m *Manager) getOrCreate(userID string) *session {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}

	now := time.Now()
	s = &session{
		state: State{
			CreatedAt:    now,
			Context:      make(map[string]any),
			Preferences:  make(map[string]any),
			LastActivity: now,
			Active:       true,
		},
	}
	m.sessions[userID] = s
	m.logger.Info("session initialized", zap.String("user_id", userID))
	return s
}

// appendEntry logs a conversation turn. Caller holds s.mu.
func (m *Manager) appendEntry(s *session, role types.Role, content string) {
	s.history = append(s.history, HistoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	s.state.LastActivity = time.Now()
	m.collector.RecordMessage(string(role))
}

// historyWindow builds the chronological window of recent entries attached
// to a routed task. Caller holds s.mu. The entry just appended for the
// current message is part of the window.
func (m *Manager) historyWindow(s *session) []types.Message {
	entries := s.history
	if len(entries) > m.config.HistoryWindow {
		entries = entries[len(entries)-m.config.HistoryWindow:]
	}

	window := make([]types.Message, 0, len(entries))
	for _, e := range entries {
		window = append(window, types.Message{Role: e.Role, Content: e.Content, Timestamp: e.Timestamp})
	}

	if m.config.TokenBudget > 0 && m.config.Tokenizer != nil {
		window = trimToBudget(window, m.config.Tokenizer, m.config.TokenBudget)
	}
	return window
}

// trimToBudget drops the oldest messages until the window fits the token
// budget. The newest message is always kept.
func trimToBudget(window []types.Message, tok types.Tokenizer, budget int) []types.Message {
	for len(window) > 1 && tok.CountMessagesTokens(window) > budget {
		window = window[1:]
	}
	return window
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (m *Manager) publishStats() {
	if m.collector == nil {
		return
	}

	m.mu.RLock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	total := len(m.sessions)
	m.mu.RUnlock()

	var active, entries int
	for _, s := range sessions {
		s.mu.Lock()
		if s.state.Active {
			active++
		}
		entries += len(s.history)
		s.mu.Unlock()
	}
	m.collector.SetSessionStats(total, active, entries)
}
