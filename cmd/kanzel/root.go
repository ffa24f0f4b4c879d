package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rhuss/kanzel/pkg/config"
	"github.com/rhuss/kanzel/pkg/engine"
	"github.com/rhuss/kanzel/pkg/fetch"
	"github.com/rhuss/kanzel/pkg/llm"
	"github.com/rhuss/kanzel/pkg/tools"
	"github.com/rhuss/kanzel/pkg/upstream"
)

var (
	cfgFile string
	cfg     *config.Config

	flagLLMURL        string
	flagLLMAPIKey     string
	flagUpstreamURL   string
	flagModel         string
	flagAllowTools    []string
	flagHideParams    []string
	flagSuppress      bool
	flagMaxIterations int
)

var rootCmd = &cobra.Command{
	Use:           "kanzel",
	Short:         "Tool-calling chat client for scripture servers",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Validation happens after the flag merge so that endpoints
		// supplied only via flags satisfy the required fields.
		loaded, err := config.LoadUnvalidated(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		// Flags win over config file and environment.
		if cmd.Flags().Changed("llm-url") {
			cfg.LLM.BaseURL = flagLLMURL
		}
		if cmd.Flags().Changed("llm-api-key") {
			cfg.LLM.APIKey = flagLLMAPIKey
		}
		if cmd.Flags().Changed("upstream-url") {
			cfg.Upstream.Endpoint = flagUpstreamURL
		}
		if cmd.Flags().Changed("model") {
			cfg.LLM.DefaultModel = flagModel
		}
		if cmd.Flags().Changed("allow-tool") {
			cfg.Tools.Allowed = flagAllowTools
		}
		if cmd.Flags().Changed("hide-param") {
			cfg.Tools.HiddenParams = flagHideParams
		}
		if cmd.Flags().Changed("suppress-annotations") {
			cfg.Tools.SuppressAnnotations = flagSuppress
		}
		if cmd.Flags().Changed("max-iterations") {
			cfg.Engine.MaxToolIterations = flagMaxIterations
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagLLMURL, "llm-url", "", "chat completion endpoint URL")
	rootCmd.PersistentFlags().StringVar(&flagLLMAPIKey, "llm-api-key", "", "chat completion endpoint API key")
	rootCmd.PersistentFlags().StringVar(&flagUpstreamURL, "upstream-url", "", "tool-resource server URL")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", "", "model name")
	rootCmd.PersistentFlags().StringArrayVar(&flagAllowTools, "allow-tool", nil, "tool to expose to the model (repeatable, default all)")
	rootCmd.PersistentFlags().StringArrayVar(&flagHideParams, "hide-param", nil, "tool parameter to hide from the model (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagSuppress, "suppress-annotations", true, "filter non-verse-level annotations from tool results")
	rootCmd.PersistentFlags().IntVar(&flagMaxIterations, "max-iterations", 0, "maximum tool-executing rounds per request")
}

// newUpstreamClient builds the tool-resource client from the merged config.
func newUpstreamClient() *upstream.Client {
	return upstream.NewClient(cfg.Upstream.Endpoint, fetch.New(fetch.Config{
		MaxRetries:        cfg.Upstream.MaxRetries,
		BaseDelay:         cfg.Upstream.BaseDelay,
		BackoffFactor:     cfg.Upstream.BackoffFactor,
		Timeout:           cfg.Upstream.Timeout,
		RetryableStatuses: cfg.Upstream.RetryableStatuses,
	}))
}

// currentPolicy maps the merged tools config onto a catalog policy.
func currentPolicy() tools.Policy {
	policy := tools.Policy{
		Allowed:      cfg.Tools.Allowed,
		HiddenParams: cfg.Tools.HiddenParams,
	}
	if cfg.Tools.SuppressAnnotations {
		policy.Suppress = tools.VerseLevelOnly
	}
	return policy
}

// newEngine wires the orchestration engine for CLI use.
func newEngine(client *upstream.Client) (*engine.Engine, error) {
	endpoint := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Timeout: cfg.LLM.Timeout,
	})
	return engine.New(endpoint, client, currentPolicy(), engine.Config{
		MaxToolIterations: cfg.Engine.MaxToolIterations,
		ArgumentOverrides: cfg.Engine.ArgumentOverrides,
		DefaultModel:      cfg.LLM.DefaultModel,
	})
}
