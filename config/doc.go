// Package config loads the orchestrator configuration from defaults, an
// optional YAML file, and environment variable overrides, in that order
// of precedence.
package config
