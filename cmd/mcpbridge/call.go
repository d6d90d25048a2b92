package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/MrWong99/mcpbridge/internal/gateway"
	"github.com/MrWong99/mcpbridge/internal/mcp/router"
)

func newCallCmd(opts *rootOptions) *cobra.Command {
	var callID string

	cmd := &cobra.Command{
		Use:   "call <server> [arguments]",
		Short: "Dispatch one function call and print its output record",
		Long: `Dispatch one function call to an MCP server and print the resulting
function_call_output record as JSON.

The arguments are the JSON string the planner would send, for example:

  mcpbridge call docs '{"name":"search","args":{"query":"otel"}}'

Omitting the arguments sends an absent argument string.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			call := router.Call{Server: args[0], CallID: callID}
			if len(args) == 2 {
				call.Arguments = &args[1]
			}
			if call.CallID == "" {
				call.CallID = gateway.NewCallID()
			}

			out, err := rt.router.Dispatch(cmd.Context(), call)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&callID, "call-id", "", "call ID echoed in the output record (default: generated)")
	return cmd
}
