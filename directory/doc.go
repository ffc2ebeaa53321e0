// Package directory provides the process-wide agent directory used for
// capability-based discovery and agent-to-agent target resolution.
//
// The directory maps stable agent IDs to AgentCard records and supports
// exact lookup, capability matching, and free-text search. It is shared by
// all delegation clients and the task router in a process: mutation is
// guarded by a read-write lock so registration stays safe under concurrent
// readers.
//
// Registration is last-writer-wins: re-registering an ID overwrites the
// whole card, there is no partial patch. A lookup miss is a normal outcome
// (ok=false), not an error.
//
// Live directory state is in-memory only. The optional Store interface
// persists whole-directory snapshots (for example to Redis) so a directory
// can be rebuilt across process restarts.
package directory
