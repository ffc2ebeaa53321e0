package a2a

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/coterie-ai/coterie/directory"
	"github.com/coterie-ai/coterie/types"
)

// ClientConfig holds configuration for a delegation client.
type ClientConfig struct {
	// InboxSize is the capacity of the inbound envelope queue.
	InboxSize int
	// BroadcastRate limits status broadcast deliveries per second.
	// Zero disables pacing.
	BroadcastRate float64
	// BroadcastBurst is the limiter burst when BroadcastRate is set.
	BroadcastBurst int
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		InboxSize:      64,
		BroadcastBurst: 8,
	}
}

// Client is an identity-scoped delegation gateway. It builds envelopes for
// outbound traffic, resolves targets through the shared directory, and
// demultiplexes inbound envelopes into a private inbox.
//
// Multiple producers may enqueue inbound envelopes concurrently and
// multiple consumers may call Receive; the inbox is a bounded buffered
// channel.
type Client struct {
	agentID   string
	dir       *directory.Directory
	deliverer Deliverer
	logger    *zap.Logger
	limiter   *rate.Limiter

	mu          sync.RWMutex
	subscribers map[string]struct{}
	lastStatus  map[string]map[string]any

	inbox chan *Envelope
}

// NewClient creates a delegation client for the given agent identity.
// The directory reference is shared by all clients in a process; the client
// does not own it. config and logger may be nil.
func NewClient(agentID string, dir *directory.Directory, deliverer Deliverer, config *ClientConfig, logger *zap.Logger) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	if config.InboxSize <= 0 {
		config.InboxSize = DefaultClientConfig().InboxSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if config.BroadcastRate > 0 {
		burst := config.BroadcastBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.BroadcastRate), burst)
	}

	return &Client{
		agentID:     agentID,
		dir:         dir,
		deliverer:   deliverer,
		logger:      logger.With(zap.String("component", "a2a_client"), zap.String("agent_id", agentID)),
		limiter:     limiter,
		subscribers: make(map[string]struct{}),
		lastStatus:  make(map[string]map[string]any),
		inbox:       make(chan *Envelope, config.InboxSize),
	}
}

// AgentID returns the identity this client is scoped to.
func (c *Client) AgentID() string {
	return c.agentID
}

// Directory returns the shared directory this client resolves targets
// against.
func (c *Client) Directory() *directory.Directory {
	return c.dir
}

// DelegateTask resolves the target through the directory and delivers a
// task_delegation envelope. A directory miss fails with ErrTargetNotFound;
// a delivery failure is wrapped in a DelegationError carrying the target ID.
func (c *Client) DelegateTask(ctx context.Context, targetID string, task *types.Task) (*DeliveryResult, error) {
	card, ok := c.dir.Get(targetID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, targetID)
	}

	env := NewTaskEnvelope(c.agentID, targetID, task)
	result, err := c.deliverer.Deliver(ctx, card, env)
	if err != nil {
		return nil, &DelegationError{TargetID: targetID, Err: err}
	}

	c.logger.Debug("task delegated",
		zap.String("target", targetID),
		zap.String("message_id", env.ID),
		zap.String("task_type", task.Type),
	)
	return result, nil
}

// SendDirect resolves the target and delivers a direct_message envelope.
// Resolution and error semantics match DelegateTask.
func (c *Client) SendDirect(ctx context.Context, targetID, text string) (*DeliveryResult, error) {
	card, ok := c.dir.Get(targetID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, targetID)
	}

	env := NewDirectEnvelope(c.agentID, targetID, text)
	result, err := c.deliverer.Deliver(ctx, card, env)
	if err != nil {
		return nil, &DelegationError{TargetID: targetID, Err: err}
	}
	return result, nil
}

// Subscribe adds an agent to this client's subscriber set. Idempotent.
func (c *Client) Subscribe(agentID string) {
	c.mu.Lock()
	c.subscribers[agentID] = struct{}{}
	c.mu.Unlock()
}

// Unsubscribe removes an agent from the subscriber set. Idempotent.
func (c *Client) Unsubscribe(agentID string) {
	c.mu.Lock()
	delete(c.subscribers, agentID)
	c.mu.Unlock()
}

// Subscribers returns a sorted snapshot of the subscriber set.
func (c *Client) Subscribers() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.subscribers))
	for id := range c.subscribers {
		out = append(out, id)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// BroadcastStatus delivers a status_update envelope to every current
// subscriber. Broadcast is best-effort, at-most-once per subscriber per
// call: per-subscriber failures are logged and do not abort the broadcast.
// The subscriber set is snapshotted before iteration, so concurrent
// Subscribe/Unsubscribe calls cannot corrupt the fan-out.
func (c *Client) BroadcastStatus(ctx context.Context, status map[string]any) {
	targets := c.Subscribers()
	if len(targets) == 0 {
		return
	}

	env := NewStatusEnvelope(c.agentID, status)

	g, ctx := errgroup.WithContext(ctx)
	for _, targetID := range targets {
		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx); err != nil {
					return nil
				}
			}

			card, ok := c.dir.Get(targetID)
			if !ok {
				c.logger.Warn("broadcast target missing from directory",
					zap.String("target", targetID))
				return nil
			}

			if _, err := c.deliverer.Deliver(ctx, card, env.withRecipient(targetID)); err != nil {
				c.logger.Warn("status broadcast delivery failed",
					zap.String("target", targetID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Receive pulls the next inbound envelope from this identity's inbox,
// waiting up to timeout. Expiry returns (nil, nil): an empty inbox is not
// an error.
func (c *Client) Receive(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env := <-c.inbox:
		return env, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HandleInbound dispatches an inbound envelope by kind and returns an
// acknowledgment. Unknown kinds yield an error acknowledgment naming the
// kind, not a Go error.
func (c *Client) HandleInbound(env *Envelope) *Ack {
	if env == nil {
		return &Ack{Status: AckError, Message: "nil envelope"}
	}

	switch env.Kind {
	case KindTaskDelegation:
		if !c.enqueue(env) {
			return &Ack{Status: AckError, Message: ErrInboxFull.Error()}
		}
		return &Ack{Status: AckAccepted, Message: "task delegation received"}

	case KindStatusUpdate:
		c.recordStatus(env)
		return &Ack{Status: AckReceived}

	case KindDirectMessage:
		if !c.enqueue(env) {
			return &Ack{Status: AckError, Message: ErrInboxFull.Error()}
		}
		return &Ack{Status: AckReceived}

	default:
		return &Ack{
			Status:  AckError,
			Message: fmt.Sprintf("unknown envelope kind: %s", env.Kind),
		}
	}
}

// LastStatus returns the most recent status received from the given sender,
// or nil if none was recorded.
func (c *Client) LastStatus(senderID string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastStatus[senderID]
}

func (c *Client) enqueue(env *Envelope) bool {
	select {
	case c.inbox <- env:
		return true
	default:
		c.logger.Warn("inbox full, dropping envelope",
			zap.String("from", env.From),
			zap.String("kind", string(env.Kind)),
			zap.String("message_id", env.ID),
		)
		return false
	}
}

func (c *Client) recordStatus(env *Envelope) {
	c.mu.Lock()
	c.lastStatus[env.From] = env.Status
	c.mu.Unlock()

	c.logger.Info("status update received",
		zap.String("from", env.From),
		zap.Any("status", env.Status),
	)
}
