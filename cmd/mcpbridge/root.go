package main

import (
	"github.com/spf13/cobra"

	"github.com/MrWong99/mcpbridge/internal/buildinfo"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "mcpbridge",
		Short: "Expose MCP tool servers to LLM agents as function calls",
		Long: `mcpbridge offers every configured MCP server to a planner as a single
callable function and routes the planner's function calls to the named
tool on that server, answering with function_call_output records.`,
		Version: buildinfo.ResolvedVersion(),
		// Errors are reported by us; usage would only add noise.
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(`{{printf "mcpbridge version %s\n" .Version}}`)
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the YAML configuration file")

	cmd.AddCommand(
		newToolsCmd(opts),
		newCallCmd(opts),
		newAskCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
