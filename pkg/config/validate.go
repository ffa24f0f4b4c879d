package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.LLM.BaseURL == "" {
		errs = append(errs, fmt.Errorf("llm.base_url is required"))
	}

	if c.Upstream.Endpoint == "" {
		errs = append(errs, fmt.Errorf("upstream.endpoint is required"))
	}

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// The fetcher falls back to its default for non-positive values, so
	// an explicit zero would silently re-enable retries. Reject it here.
	if c.Upstream.MaxRetries <= 0 {
		errs = append(errs, fmt.Errorf("upstream.max_retries must be > 0, got %d", c.Upstream.MaxRetries))
	}

	if c.Upstream.BackoffFactor < 1 {
		errs = append(errs, fmt.Errorf("upstream.backoff_factor must be >= 1, got %v", c.Upstream.BackoffFactor))
	}

	if c.Engine.MaxToolIterations <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_tool_iterations must be > 0, got %d", c.Engine.MaxToolIterations))
	}

	switch c.Auth.Type {
	case "none", "apikey", "jwt":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys is required when auth.type is \"apikey\""))
	}

	if c.Auth.Type == "jwt" && c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
	}

	return errors.Join(errs...)
}
