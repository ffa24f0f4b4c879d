// Command server runs the kanzel chat gateway.
//
// Configuration is layered: built-in defaults, a YAML config file
// (-config flag, KANZEL_CONFIG env, ./config.yaml or
// /etc/kanzel/config.yaml), then KANZEL_* environment overrides.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rhuss/kanzel/pkg/auth"
	"github.com/rhuss/kanzel/pkg/auth/apikey"
	authjwt "github.com/rhuss/kanzel/pkg/auth/jwt"
	"github.com/rhuss/kanzel/pkg/config"
	"github.com/rhuss/kanzel/pkg/engine"
	"github.com/rhuss/kanzel/pkg/fetch"
	"github.com/rhuss/kanzel/pkg/llm"
	"github.com/rhuss/kanzel/pkg/observability"
	"github.com/rhuss/kanzel/pkg/tools"
	"github.com/rhuss/kanzel/pkg/transport"
	"github.com/rhuss/kanzel/pkg/upstream"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := upstream.NewClient(cfg.Upstream.Endpoint, fetch.New(fetch.Config{
		MaxRetries:        cfg.Upstream.MaxRetries,
		BaseDelay:         cfg.Upstream.BaseDelay,
		BackoffFactor:     cfg.Upstream.BackoffFactor,
		Timeout:           cfg.Upstream.Timeout,
		RetryableStatuses: cfg.Upstream.RetryableStatuses,
	}))

	// Warm the catalog cache before taking traffic. A cold or slow
	// upstream is not fatal here; the first request populates it instead.
	warmupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if catalog, err := client.ListTools(warmupCtx); err != nil {
		slog.Warn("catalog warmup failed", "error", err.Error())
	} else {
		slog.Info("catalog warmed", "tools", len(catalog))
	}
	cancel()

	endpoint := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Timeout: cfg.LLM.Timeout,
	})

	policy := buildPolicy(cfg.Tools)

	eng, err := engine.New(endpoint, client, policy, engine.Config{
		MaxToolIterations: cfg.Engine.MaxToolIterations,
		ArgumentOverrides: cfg.Engine.ArgumentOverrides,
		DefaultModel:      cfg.LLM.DefaultModel,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	adapter := transport.NewAdapter(eng, client, policy, transport.DefaultConfig())

	chain, err := buildAuthChain(cfg.Auth)
	if err != nil {
		return fmt.Errorf("configuring auth: %w", err)
	}

	serverCfg := transport.DefaultServerConfig()
	serverCfg.Addr = fmt.Sprintf(":%d", cfg.Server.Port)
	serverCfg.ReadTimeout = cfg.Server.ReadTimeout
	serverCfg.WriteTimeout = cfg.Server.WriteTimeout
	if !cfg.Observability.Metrics.Enabled {
		serverCfg.MetricsPath = ""
	} else {
		serverCfg.MetricsPath = cfg.Observability.Metrics.Path
	}

	srv := transport.NewServer(adapter, serverCfg,
		observability.MetricsMiddleware,
		auth.Middleware(chain, auth.DefaultBypassEndpoints),
	)

	slog.Info("gateway configured",
		"port", cfg.Server.Port,
		"llm", cfg.LLM.BaseURL,
		"upstream", cfg.Upstream.Endpoint,
		"auth", cfg.Auth.Type,
	)
	return srv.ListenAndServe()
}

// buildPolicy maps the tools config onto a catalog policy.
func buildPolicy(cfg config.ToolsConfig) tools.Policy {
	policy := tools.Policy{
		Allowed:      cfg.Allowed,
		HiddenParams: cfg.HiddenParams,
	}
	if cfg.SuppressAnnotations {
		policy.Suppress = tools.VerseLevelOnly
	}
	return policy
}

// buildAuthChain assembles the authenticator chain for the configured
// auth type.
func buildAuthChain(cfg config.AuthConfig) (*auth.Chain, error) {
	switch cfg.Type {
	case "none", "":
		return &auth.Chain{DefaultDecision: auth.Yes}, nil

	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key:      k.Key,
				Identity: auth.Identity{Subject: k.Subject},
			})
		}
		return &auth.Chain{
			Authenticators:  []auth.Authenticator{apikey.New(entries)},
			DefaultDecision: auth.No,
		}, nil

	case "jwt":
		return &auth.Chain{
			Authenticators: []auth.Authenticator{authjwt.New(authjwt.Config{
				Secret:   []byte(cfg.JWT.Secret),
				Issuer:   cfg.JWT.Issuer,
				Audience: cfg.JWT.Audience,
			})},
			DefaultDecision: auth.No,
		}, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}
