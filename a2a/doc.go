// Package a2a implements the agent-to-agent delegation protocol: building
// envelopes for task delegation, status broadcast, and direct messaging,
// resolving targets through the shared agent directory, and demultiplexing
// inbound envelopes by message kind.
//
// Each Client is scoped to one agent identity and owns a private inbox of
// inbound envelopes. Delivery is abstract: the Deliverer interface hides the
// transport, and the in-process LoopbackMesh implementation routes envelopes
// between clients in the same process. Network transports are deliberately
// out of scope; any implementation of Deliverer can be plugged in.
package a2a
