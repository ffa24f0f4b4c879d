package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var toolNameColor = color.New(color.FgYellow, color.Bold).SprintFunc()

// toolsCmd lists the catalog as the model would see it.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog after filtering",
	Long: `Fetches the tool catalog from the tool-resource server and prints
it with the allow-list and hidden-parameter policy applied, exactly as
the model sees it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newUpstreamClient()

		catalog, err := client.ListTools(cmd.Context())
		if err != nil {
			return err
		}
		restricted := currentPolicy().Restrict(catalog)

		out := cmd.OutOrStdout()
		if len(restricted) == 0 {
			fmt.Fprintln(out, "no tools available")
			return nil
		}

		for _, desc := range restricted {
			fmt.Fprintf(out, "%s\n  %s\n", toolNameColor(desc.Name), desc.Description)
		}
		fmt.Fprintf(out, "\n%d tool(s)\n", len(restricted))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
