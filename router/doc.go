// Package router implements capability-based task routing over a set of
// locally-hosted agent handles plus a shared agent directory for remote
// fallback.
//
// Selection is a fixed three-stage protocol: the static routing-rule table
// for the task type first, then the local handle set in registration order,
// then capability discovery against the directory. Selection failures
// (NoSuitableAgentError) propagate to the caller; invocation failures are
// converted into a textual error result so Route never raises once an agent
// has been selected.
package router
