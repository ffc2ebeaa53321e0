package directory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Directory is an in-memory agent directory. It is safe for concurrent use.
//
// Iteration-order-sensitive operations (FindByCapability, List, Search)
// return records sorted by agent ID so the order is stable within a call
// regardless of registration order.
type Directory struct {
	mu     sync.RWMutex
	agents map[string]*AgentCard
	logger *zap.Logger
}

// New creates an empty directory. logger may be nil.
func New(logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		agents: make(map[string]*AgentCard),
		logger: logger.With(zap.String("component", "agent_directory")),
	}
}

// Register inserts or overwrites the card by ID. Last writer wins; the whole
// record is replaced, there is no partial patch.
func (d *Directory) Register(card *AgentCard) error {
	if card == nil {
		return fmt.Errorf("directory: nil card")
	}
	if err := card.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	d.agents[card.ID] = card.Clone()
	d.mu.Unlock()

	d.logger.Info("agent registered",
		zap.String("agent_id", card.ID),
		zap.String("name", card.Name),
		zap.Int("capabilities", len(card.Capabilities)),
	)
	return nil
}

// Unregister removes the record if present; absent IDs are a no-op.
func (d *Directory) Unregister(agentID string) {
	d.mu.Lock()
	_, existed := d.agents[agentID]
	delete(d.agents, agentID)
	d.mu.Unlock()

	if existed {
		d.logger.Info("agent unregistered", zap.String("agent_id", agentID))
	}
}

// Get returns the card for the given ID. A miss returns ok=false, not an
// error.
func (d *Directory) Get(agentID string) (*AgentCard, bool) {
	d.mu.RLock()
	card, ok := d.agents[agentID]
	d.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return card.Clone(), true
}

// FindByCapability returns all cards advertising the given tag. Tags are
// case-sensitive exact-match strings.
func (d *Directory) FindByCapability(tag string) []*AgentCard {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*AgentCard
	for _, card := range d.agents {
		if card.HasCapability(tag) {
			out = append(out, card.Clone())
		}
	}
	sortCards(out)
	return out
}

// Search returns cards whose name or description contains the query,
// case-insensitively.
func (d *Directory) Search(query string) []*AgentCard {
	q := strings.ToLower(query)

	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*AgentCard
	for _, card := range d.agents {
		if strings.Contains(strings.ToLower(card.Name), q) ||
			strings.Contains(strings.ToLower(card.Description), q) {
			out = append(out, card.Clone())
		}
	}
	sortCards(out)
	return out
}

// List returns a snapshot of all current records.
func (d *Directory) List() []*AgentCard {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*AgentCard, 0, len(d.agents))
	for _, card := range d.agents {
		out = append(out, card.Clone())
	}
	sortCards(out)
	return out
}

// Len returns the number of registered agents.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.agents)
}

// ExportJSON serializes the whole directory as a map of agent ID to card.
func (d *Directory) ExportJSON() ([]byte, error) {
	d.mu.RLock()
	snapshot := make(map[string]*AgentCard, len(d.agents))
	for id, card := range d.agents {
		snapshot[id] = card
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	d.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("directory: export: %w", err)
	}
	return data, nil
}

// ImportJSON loads records from a snapshot produced by ExportJSON.
// Imported records overwrite existing ones by ID; records absent from the
// snapshot are left untouched.
func (d *Directory) ImportJSON(data []byte) error {
	var snapshot map[string]*AgentCard
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("directory: import: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for id, card := range snapshot {
		if card == nil {
			continue
		}
		if card.ID == "" {
			card.ID = id
		}
		if err := card.Validate(); err != nil {
			return fmt.Errorf("directory: import %q: %w", id, err)
		}
		d.agents[card.ID] = card
	}
	return nil
}

func sortCards(cards []*AgentCard) {
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
}
