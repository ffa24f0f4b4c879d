package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, KANZEL_CONFIG env, ./config.yaml, /etc/kanzel/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg, err := LoadUnvalidated(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated loads the layered configuration without the final
// validation step. Callers that merge further overrides on top, such
// as command-line flags, validate themselves once merging is done.
func LoadUnvalidated(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. KANZEL_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/kanzel/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("KANZEL_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/kanzel/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps KANZEL_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KANZEL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("KANZEL_LLM_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("KANZEL_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("KANZEL_MODEL"); v != "" {
		cfg.LLM.DefaultModel = v
	}
	if v := os.Getenv("KANZEL_UPSTREAM_URL"); v != "" {
		cfg.Upstream.Endpoint = v
	}
	if v := os.Getenv("KANZEL_UPSTREAM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Upstream.MaxRetries = n
		}
	}
	if v := os.Getenv("KANZEL_ALLOWED_TOOLS"); v != "" {
		cfg.Tools.Allowed = splitList(v)
	}
	if v := os.Getenv("KANZEL_HIDDEN_PARAMS"); v != "" {
		cfg.Tools.HiddenParams = splitList(v)
	}
	if v := os.Getenv("KANZEL_SUPPRESS_ANNOTATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tools.SuppressAnnotations = b
		}
	}
	if v := os.Getenv("KANZEL_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxToolIterations = n
		}
	}
	if v := os.Getenv("KANZEL_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}

	// KANZEL_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("KANZEL_API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}

	// KANZEL_ARGUMENT_OVERRIDES: JSON object of forced tool arguments.
	if v := os.Getenv("KANZEL_ARGUMENT_OVERRIDES"); v != "" {
		var overrides map[string]any
		if err := json.Unmarshal([]byte(v), &overrides); err == nil && len(overrides) > 0 {
			cfg.Engine.ArgumentOverrides = overrides
		}
	}
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. The file wins only when the value field is empty.
func resolveFileReferences(cfg *Config) error {
	if cfg.LLM.APIKeyFile != "" && cfg.LLM.APIKey == "" {
		val, err := readSecretFile(cfg.LLM.APIKeyFile)
		if err != nil {
			return fmt.Errorf("llm.api_key_file: %w", err)
		}
		cfg.LLM.APIKey = val
	}

	if cfg.Auth.JWT.SecretFile != "" && cfg.Auth.JWT.Secret == "" {
		val, err := readSecretFile(cfg.Auth.JWT.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt.secret_file: %w", err)
		}
		cfg.Auth.JWT.Secret = val
	}

	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding
// whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
