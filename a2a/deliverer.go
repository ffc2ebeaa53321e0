package a2a

import (
	"context"
	"fmt"
	"sync"

	"github.com/coterie-ai/coterie/directory"
)

// Deliverer transports an envelope to the agent described by the target
// card. Implementations choose the transport from the card's endpoint
// configuration; delivery failures surface as errors to the client.
type Deliverer interface {
	Deliver(ctx context.Context, target *directory.AgentCard, env *Envelope) (*DeliveryResult, error)
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, target *directory.AgentCard, env *Envelope) (*DeliveryResult, error)

// Deliver implements Deliverer.
func (f DelivererFunc) Deliver(ctx context.Context, target *directory.AgentCard, env *Envelope) (*DeliveryResult, error) {
	return f(ctx, target, env)
}

// LoopbackMesh routes envelopes between clients in the same process. It is
// the deliverer used in tests and single-process deployments: delivery hands
// the envelope to the recipient client's inbound handler synchronously.
type LoopbackMesh struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewLoopbackMesh creates an empty mesh.
func NewLoopbackMesh() *LoopbackMesh {
	return &LoopbackMesh{clients: make(map[string]*Client)}
}

// Attach registers a client as reachable through this mesh. Last writer
// wins for duplicate identities.
func (m *LoopbackMesh) Attach(c *Client) {
	m.mu.Lock()
	m.clients[c.AgentID()] = c
	m.mu.Unlock()
}

// Detach removes a client from the mesh.
func (m *LoopbackMesh) Detach(agentID string) {
	m.mu.Lock()
	delete(m.clients, agentID)
	m.mu.Unlock()
}

// Deliver hands the envelope to the recipient's inbound handler.
func (m *LoopbackMesh) Deliver(ctx context.Context, target *directory.AgentCard, env *Envelope) (*DeliveryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	recipient, ok := m.clients[target.ID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, target.ID)
	}

	ack := recipient.HandleInbound(env)
	if ack.Status == AckError {
		return &DeliveryResult{Status: DeliveryFailed, Response: ack.Message},
			fmt.Errorf("a2a: recipient %s rejected envelope: %s", target.ID, ack.Message)
	}
	return &DeliveryResult{Status: DeliveryDelivered, Response: ack.Message}, nil
}

var _ Deliverer = (*LoopbackMesh)(nil)
var _ Deliverer = (DelivererFunc)(nil)
