package directory

import "errors"

// Agent card validation errors.
var (
	// ErrMissingID indicates the agent card is missing an ID.
	ErrMissingID = errors.New("agent card: missing id")
	// ErrMissingName indicates the agent card is missing a name.
	ErrMissingName = errors.New("agent card: missing name")
)

// AgentCard describes a discoverable agent: its identity, advertised
// capabilities, and how to reach it.
type AgentCard struct {
	// ID is the unique, stable identifier of the agent within a directory.
	ID string `json:"agent_id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Description is a free-form description of what the agent does.
	Description string `json:"description"`

	// Capabilities is the ordered set of capability tags the agent
	// advertises. Tags are case-sensitive exact-match strings.
	Capabilities []string `json:"capabilities"`

	// Endpoints maps transport names to endpoint addresses
	// (e.g. "http" -> "http://host:8000/agents/researcher").
	Endpoints map[string]string `json:"endpoints,omitempty"`

	// Auth maps auth scheme names to credential hints. The directory
	// carries this metadata but does not enforce it.
	Auth map[string]string `json:"authentication,omitempty"`

	// Metadata holds free-form key/value data.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks the card for required fields.
func (c *AgentCard) Validate() error {
	if c.ID == "" {
		return ErrMissingID
	}
	if c.Name == "" {
		return ErrMissingName
	}
	return nil
}

// HasCapability reports whether the card advertises the given tag.
func (c *AgentCard) HasCapability(tag string) bool {
	for _, cap := range c.Capabilities {
		if cap == tag {
			return true
		}
	}
	return false
}

// HasAllCapabilities reports whether the card advertises every tag in tags.
// An empty tag list always matches.
func (c *AgentCard) HasAllCapabilities(tags []string) bool {
	for _, tag := range tags {
		if !c.HasCapability(tag) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the card so callers cannot mutate directory
// state through a returned record.
func (c *AgentCard) Clone() *AgentCard {
	out := &AgentCard{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
	if c.Capabilities != nil {
		out.Capabilities = append([]string(nil), c.Capabilities...)
	}
	if c.Endpoints != nil {
		out.Endpoints = make(map[string]string, len(c.Endpoints))
		for k, v := range c.Endpoints {
			out.Endpoints[k] = v
		}
	}
	if c.Auth != nil {
		out.Auth = make(map[string]string, len(c.Auth))
		for k, v := range c.Auth {
			out.Auth[k] = v
		}
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
