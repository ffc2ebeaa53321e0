// Package agents provides the concrete agent kinds hosted by the router:
// a shared BaseAgent with identity, capability advertisement, status
// lifecycle, and delegation helpers, plus the specialized research and
// planning agents built on top of it.
//
// Every agent registers its card into the shared directory on Init,
// broadcasts status transitions to its subscribers, and unregisters on
// Shutdown. Task processing is backed by an llm.Provider; provider failures
// are folded into a failed result so ProcessTask never panics outward.
package agents
