package config

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the complete orchestrator configuration.
type Config struct {
	// Log controls zap logger construction.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Session controls conversation state management.
	Session SessionConfig `yaml:"session" env:"SESSION"`

	// Router holds routing preferences.
	Router RouterConfig `yaml:"router" env:"-"`

	// A2A controls the delegation clients.
	A2A A2AConfig `yaml:"a2a" env:"A2A"`

	// Redis configures the directory snapshot store.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// LLM holds the default model settings handed to agents.
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Metrics configures the prometheus collector.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Telemetry configures the OTel SDK.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths are zap sink URLs.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// EnableCaller annotates entries with file:line.
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// EnableStacktrace attaches stack traces at error level.
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// SessionConfig controls conversation state management.
type SessionConfig struct {
	// HistoryWindow is how many recent entries are attached to routed tasks.
	HistoryWindow int `yaml:"history_window" env:"HISTORY_WINDOW"`
	// TokenBudget, when positive, trims the attached window to a token count.
	TokenBudget int `yaml:"token_budget" env:"TOKEN_BUDGET"`
	// CleanupInterval is how often inactive sessions are swept.
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL"`
	// InactiveAge is how long a session may idle before the sweep removes it.
	InactiveAge time.Duration `yaml:"inactive_age" env:"INACTIVE_AGE"`
}

// RouterConfig holds routing preferences. Rules maps a task type to agent
// IDs tried in order before capability scanning.
type RouterConfig struct {
	Rules map[string][]string `yaml:"rules" env:"-"`
}

// A2AConfig controls the delegation clients.
type A2AConfig struct {
	// InboxSize is the per-client inbound queue capacity.
	InboxSize int `yaml:"inbox_size" env:"INBOX_SIZE"`
	// BroadcastRate limits status broadcasts per second. Zero disables.
	BroadcastRate float64 `yaml:"broadcast_rate" env:"BROADCAST_RATE"`
	// BroadcastBurst is the limiter burst when BroadcastRate is set.
	BroadcastBurst int `yaml:"broadcast_burst" env:"BROADCAST_BURST"`
}

// RedisConfig configures the directory snapshot store.
type RedisConfig struct {
	// Enabled turns the snapshot store on.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Addr is the redis host:port.
	Addr string `yaml:"addr" env:"ADDR"`
	// Password is optional.
	Password string `yaml:"password" env:"PASSWORD"`
	// DB is the redis database number.
	DB int `yaml:"db" env:"DB"`
	// KeyPrefix namespaces snapshot keys.
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// TTL expires snapshots. Zero keeps them forever.
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// LLMConfig holds the default model settings handed to agents.
type LLMConfig struct {
	// Model is the default model identifier.
	Model string `yaml:"model" env:"MODEL"`
	// Temperature is the sampling temperature.
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	// MaxTokens caps completion length.
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
}

// MetricsConfig configures the prometheus collector.
type MetricsConfig struct {
	// Namespace prefixes all metric names.
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TelemetryConfig configures the OTel SDK.
type TelemetryConfig struct {
	// Enabled turns exporters on; disabled keeps noop providers.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLPEndpoint is the collector host:port.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// ServiceName identifies this process in traces.
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			OutputPaths: []string{"stderr"},
		},
		Session: SessionConfig{
			HistoryWindow:   5,
			CleanupInterval: time.Hour,
			InactiveAge:     24 * time.Hour,
		},
		Router: RouterConfig{
			Rules: map[string][]string{},
		},
		A2A: A2AConfig{
			InboxSize:      64,
			BroadcastBurst: 8,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "coterie:",
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   2048,
		},
		Metrics: MetricsConfig{
			Namespace: "coterie",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "coterie",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for values no component can run with.
func (c *Config) Validate() error {
	var errs []string

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q", c.Log.Level))
	}
	if c.Session.HistoryWindow <= 0 {
		errs = append(errs, "session history_window must be positive")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "telemetry sample_rate must be in [0, 1]")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis addr required when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// BuildLogger constructs a zap logger from the log section.
func (c LogConfig) BuildLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if c.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if len(c.OutputPaths) > 0 {
		zcfg.OutputPaths = c.OutputPaths
	}
	zcfg.DisableCaller = !c.EnableCaller
	zcfg.DisableStacktrace = !c.EnableStacktrace

	return zcfg.Build()
}
