// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and OVERCALL_* env vars over those defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers accepted by StoreDriver.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CORSAllowedOrigins is a comma separated origin list; "*" allows any.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// MaxBodyBytes caps advice request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Evaluator endpoints. An empty URL leaves that agent unconfigured.
	FatigueAgentURL    string `koanf:"fatigue_agent_url"`
	RiskAgentURL       string `koanf:"risk_agent_url"`
	TacticalAgentURL   string `koanf:"tactical_agent_url"`
	EvaluatorTimeoutMS int    `koanf:"evaluator_timeout_ms"`

	// RouterServiceURL enables the remote router when set.
	RouterServiceURL string `koanf:"router_service_url"`
	RouterTimeoutMS  int    `koanf:"router_timeout_ms"`

	// BaselineTimeoutMS bounds the baseline store lookup per request.
	BaselineTimeoutMS int `koanf:"baseline_timeout_ms"`

	// StoreDriver selects memory or sqlite; StorePath is the sqlite file.
	StoreDriver string `koanf:"store_driver"`
	StorePath   string `koanf:"store_path"`

	// Audit pipeline sizing.
	AuditQueueSize   int `koanf:"audit_queue_size"`
	AuditWorkerCount int `koanf:"audit_worker_count"`
	AuditDedupeSize  int `koanf:"audit_dedupe_size"`

	// CandidateLimit is the most candidates a request may ask for; requests default to 3.
	CandidateLimit int `koanf:"candidate_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		CORSAllowedOrigins: "*",
		MaxBodyBytes:       1 << 20,
		EvaluatorTimeoutMS: 12_000,
		RouterTimeoutMS:    3_000,
		BaselineTimeoutMS:  2_000,
		StoreDriver:        StoreMemory,
		StorePath:          "overcall.db",
		AuditQueueSize:     1024,
		AuditWorkerCount:   2,
		AuditDedupeSize:    10_000,
		CandidateLimit:     5,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EvaluatorTimeoutMS <= 0:
		return fmt.Errorf("%w: evaluator_timeout_ms must be positive", ErrInvalidConfig)
	case c.RouterTimeoutMS <= 0:
		return fmt.Errorf("%w: router_timeout_ms must be positive", ErrInvalidConfig)
	case c.BaselineTimeoutMS <= 0:
		return fmt.Errorf("%w: baseline_timeout_ms must be positive", ErrInvalidConfig)
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == StoreSQLite && strings.TrimSpace(c.StorePath) == "":
		return fmt.Errorf("%w: store_path required for sqlite", ErrInvalidConfig)
	case c.AuditQueueSize <= 0:
		return fmt.Errorf("%w: audit_queue_size must be positive", ErrInvalidConfig)
	case c.AuditWorkerCount <= 0:
		return fmt.Errorf("%w: audit_worker_count must be positive", ErrInvalidConfig)
	case c.AuditDedupeSize <= 0:
		return fmt.Errorf("%w: audit_dedupe_size must be positive", ErrInvalidConfig)
	case c.CandidateLimit <= 0:
		return fmt.Errorf("%w: candidate_limit must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}

// AllowedOrigins splits CORSAllowedOrigins into trimmed entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// EvaluatorTimeout returns the per-evaluator deadline.
func (c *Config) EvaluatorTimeout() time.Duration {
	return time.Duration(c.EvaluatorTimeoutMS) * time.Millisecond
}

// RouterTimeout returns the remote router deadline.
func (c *Config) RouterTimeout() time.Duration {
	return time.Duration(c.RouterTimeoutMS) * time.Millisecond
}

// BaselineTimeout returns the baseline lookup deadline.
func (c *Config) BaselineTimeout() time.Duration {
	return time.Duration(c.BaselineTimeoutMS) * time.Millisecond
}

// AgentURLs maps configured agent names to their endpoints.
func (c *Config) AgentURLs() map[string]string {
	out := map[string]string{}
	for name, u := range map[string]string{
		"fatigue":  c.FatigueAgentURL,
		"risk":     c.RiskAgentURL,
		"tactical": c.TacticalAgentURL,
	} {
		if u = strings.TrimSpace(u); u != "" {
			out[name] = u
		}
	}
	return out
}
