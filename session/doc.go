// Package session manages per-user conversation state: initialization,
// append-only history, keyword-based task classification, and handoff to
// the task router.
//
// Process never fails outward. Classification always succeeds (the general
// category is the default), and routing or invocation failures arrive back
// as text. Calls for the same user are serialized by a per-session mutex;
// different users proceed in parallel.
package session
