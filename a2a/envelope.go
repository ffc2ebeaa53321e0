package a2a

import (
	"time"

	"github.com/google/uuid"

	"github.com/coterie-ai/coterie/types"
)

// Kind identifies the kind of an envelope.
type Kind string

const (
	// KindTaskDelegation carries a task for the recipient to process.
	KindTaskDelegation Kind = "task_delegation"
	// KindStatusUpdate carries an agent status snapshot to subscribers.
	KindStatusUpdate Kind = "status_update"
	// KindDirectMessage carries free text between two agents.
	KindDirectMessage Kind = "direct_message"
)

// Envelope is a transmissible protocol unit. Envelopes are immutable once
// constructed; ownership transfers to the deliverer.
type Envelope struct {
	// ID is the globally-unique message ID.
	ID string `json:"message_id"`

	// From is the sender agent ID.
	From string `json:"from"`

	// To is the recipient agent ID. Empty for broadcast envelopes.
	To string `json:"to,omitempty"`

	// Kind selects which payload field is populated.
	Kind Kind `json:"type"`

	// Task is the payload for task_delegation envelopes.
	Task *types.Task `json:"task,omitempty"`

	// Status is the payload for status_update envelopes.
	Status map[string]any `json:"status,omitempty"`

	// Content is the payload for direct_message envelopes.
	Content string `json:"content,omitempty"`

	// Timestamp is the envelope creation time.
	Timestamp time.Time `json:"timestamp"`
}

// NewTaskEnvelope builds a task_delegation envelope.
func NewTaskEnvelope(from, to string, task *types.Task) *Envelope {
	return &Envelope{
		ID:        uuid.New().String(),
		From:      from,
		To:        to,
		Kind:      KindTaskDelegation,
		Task:      task,
		Timestamp: time.Now(),
	}
}

// NewStatusEnvelope builds a status_update envelope. Status envelopes have
// no single recipient at construction time; the recipient is filled in per
// subscriber during broadcast.
func NewStatusEnvelope(from string, status map[string]any) *Envelope {
	return &Envelope{
		ID:        uuid.New().String(),
		From:      from,
		Kind:      KindStatusUpdate,
		Status:    status,
		Timestamp: time.Now(),
	}
}

// NewDirectEnvelope builds a direct_message envelope.
func NewDirectEnvelope(from, to, content string) *Envelope {
	return &Envelope{
		ID:        uuid.New().String(),
		From:      from,
		To:        to,
		Kind:      KindDirectMessage,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// withRecipient returns a copy of the envelope addressed to the given
// recipient. Used by broadcast, which fans one status out to many targets.
func (e *Envelope) withRecipient(to string) *Envelope {
	clone := *e
	clone.To = to
	return &clone
}

// DeliveryStatus reports the outcome of a delivery attempt.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryResult is returned by a Deliverer for each envelope.
type DeliveryResult struct {
	Status   DeliveryStatus `json:"status"`
	Response string         `json:"response,omitempty"`
}

// AckStatus reports how an inbound envelope was handled.
type AckStatus string

const (
	// AckAccepted acknowledges a task delegation queued for processing.
	AckAccepted AckStatus = "accepted"
	// AckReceived acknowledges a status update or direct message.
	AckReceived AckStatus = "received"
	// AckError reports that the envelope could not be handled.
	AckError AckStatus = "error"
)

// Ack is the acknowledgment returned by inbound envelope handling. An
// unhandled envelope yields an error acknowledgment, not a Go error.
type Ack struct {
	Status  AckStatus `json:"status"`
	Message string    `json:"message,omitempty"`
}
