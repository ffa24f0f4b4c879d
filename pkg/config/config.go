// Package config provides unified configuration for the kanzel gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (KANZEL_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the kanzel gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	LLM           LLMConfig           `yaml:"llm"`
	Upstream      UpstreamConfig      `yaml:"upstream"`
	Tools         ToolsConfig         `yaml:"tools"`
	Engine        EngineConfig        `yaml:"engine"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// LLMConfig holds chat completion endpoint settings.
type LLMConfig struct {
	BaseURL      string        `yaml:"base_url"`     // required
	APIKey       string        `yaml:"api_key"`      // optional
	APIKeyFile   string        `yaml:"api_key_file"` // _file variant for api_key
	DefaultModel string        `yaml:"default_model"`
	Timeout      time.Duration `yaml:"timeout"` // default: 120s
}

// UpstreamConfig holds tool-resource server settings.
type UpstreamConfig struct {
	Endpoint      string        `yaml:"endpoint"`       // required
	MaxRetries    int           `yaml:"max_retries"`    // default: 3
	BaseDelay     time.Duration `yaml:"base_delay"`     // default: 1s
	BackoffFactor float64       `yaml:"backoff_factor"` // default: 2
	Timeout       time.Duration `yaml:"timeout"`        // default: 30s

	// RetryableStatuses overrides the default retryable status set
	// {408, 429, 500, 502, 503, 504} when non-empty.
	RetryableStatuses []int `yaml:"retryable_statuses"`
}

// ToolsConfig holds catalog policy settings.
type ToolsConfig struct {
	// Allowed names the tools exposed to the model. Empty allows all.
	Allowed []string `yaml:"allowed"`

	// HiddenParams are removed from every tool's input schema before it
	// reaches the model. Values for hidden params come from
	// engine.argument_overrides.
	HiddenParams []string `yaml:"hidden_params"`

	// SuppressAnnotations filters non-verse-level annotation records
	// out of list results. default: true
	SuppressAnnotations bool `yaml:"suppress_annotations"`
}

// EngineConfig holds tool-calling loop settings.
type EngineConfig struct {
	MaxToolIterations int            `yaml:"max_tool_iterations"` // default: 5
	ArgumentOverrides map[string]any `yaml:"argument_overrides"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type    string         `yaml:"type"`     // "none", "apikey", "jwt", default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys"` // for type=apikey
	JWT     JWTConfig      `yaml:"jwt"`      // for type=jwt
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"` // _file variant for key
	Subject string `yaml:"subject"`
}

// JWTConfig holds JWT bearer validation settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		LLM: LLMConfig{
			Timeout: 120 * time.Second,
		},
		Upstream: UpstreamConfig{
			MaxRetries:    3,
			BaseDelay:     time.Second,
			BackoffFactor: 2,
			Timeout:       30 * time.Second,
		},
		Tools: ToolsConfig{
			SuppressAnnotations: true,
		},
		Engine: EngineConfig{
			MaxToolIterations: 5,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
