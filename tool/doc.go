// Package tool provides the uniform tool-invocation boundary: a concurrent
// registry mapping tool names to functions and their schemas, invoked
// through Execute(name, args). Tool internals are external collaborators;
// the builtin tools here are lightweight stand-ins that give agents
// something real to call in tests and demos.
package tool
