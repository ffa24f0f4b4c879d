package main

import (
	"github.com/spf13/cobra"

	"github.com/rhuss/kanzel/pkg/mcpbridge"
)

// stdioCmd serves the filtered catalog as an MCP server over stdio.
var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve the filtered tool catalog over stdio",
	Long: `Runs an MCP server on stdin/stdout exposing the filtered tool
catalog. Tool calls are validated, argument overrides injected, and
results flattened the same way the chat gateway does it. Intended to be
launched as a subprocess by MCP-capable clients.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bridge := mcpbridge.New(newUpstreamClient(), currentPolicy(), cfg.Engine.ArgumentOverrides)
		return bridge.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}
