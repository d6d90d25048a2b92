package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/MrWong99/mcpbridge/internal/mcp/schema"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the function descriptors offered to the planner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schema.Definitions(rt.router.Registry()))
		},
	}
}
