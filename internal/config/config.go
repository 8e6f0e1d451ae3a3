// Package config provides configuration loading for graphmemd.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for graphmemd.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Neo4j         Neo4jConfig         `koanf:"neo4j"`
	Auth          AuthConfig          `koanf:"auth"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Neo4jConfig carries the graph store connection settings.
type Neo4jConfig struct {
	URI      string `koanf:"uri"`
	Username string `koanf:"username"`
	Password Secret `koanf:"password"`
	Database string `koanf:"database"`
}

// AuthConfig controls credential validation. At least one of
// IntrospectionURL or StaticKeys must be configured.
type AuthConfig struct {
	IntrospectionURL     string      `koanf:"introspection_url"`
	IntrospectionTimeout Duration    `koanf:"introspection_timeout"`
	StateTTL             Duration    `koanf:"state_ttl"`
	StaticKeys           []StaticKey `koanf:"static_keys"`
}

// StaticKey is a pre-shared API key with its subject and granted scopes.
type StaticKey struct {
	Key     Secret   `koanf:"key"`
	Subject string   `koanf:"subject"`
	Scopes  []string `koanf:"scopes"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig controls telemetry.
type ObservabilityConfig struct {
	ServiceName     string `koanf:"service_name"`
	EnableTelemetry bool   `koanf:"enable_telemetry"`
}

// RateLimitConfig controls per-client request throttling on the HTTP layer.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri is required")
	}
	if c.Auth.IntrospectionURL == "" && len(c.Auth.StaticKeys) == 0 {
		return fmt.Errorf("auth requires introspection_url or at least one static key")
	}
	for i, k := range c.Auth.StaticKeys {
		if !k.Key.IsSet() {
			return fmt.Errorf("auth.static_keys[%d].key is empty", i)
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("ratelimit.rps must be positive when rate limiting is enabled")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = "bolt://localhost:7687"
	}
	if cfg.Neo4j.Username == "" {
		cfg.Neo4j.Username = "neo4j"
	}

	if cfg.Auth.IntrospectionTimeout == 0 {
		cfg.Auth.IntrospectionTimeout = Duration(5 * time.Second)
	}
	if cfg.Auth.StateTTL == 0 {
		cfg.Auth.StateTTL = Duration(15 * time.Minute)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "graphmemd"
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RPS == 0 {
			cfg.RateLimit.RPS = 20
		}
		if cfg.RateLimit.Burst == 0 {
			cfg.RateLimit.Burst = 40
		}
	}
}
