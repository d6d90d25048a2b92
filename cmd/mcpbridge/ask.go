package main

import (
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/MrWong99/mcpbridge/internal/agentloop"
	"github.com/MrWong99/mcpbridge/internal/mcp/schema"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Run an agent that can call the configured MCP servers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer rt.close()

			oa := rt.cfg.OpenAI
			if model == "" {
				model = oa.Model
			}
			var clientOpts []option.RequestOption
			if oa.APIKey != "" {
				clientOpts = append(clientOpts, option.WithAPIKey(oa.APIKey))
			}
			if oa.BaseURL != "" {
				clientOpts = append(clientOpts, option.WithBaseURL(oa.BaseURL))
			}
			client := openai.NewClient(clientOpts...)

			loop, err := agentloop.New(&client.Responses, rt.router, agentloop.Config{
				Model:        model,
				Instructions: oa.Instructions,
				Functions:    schema.Definitions(rt.router.Registry()),
				MaxTurns:     oa.MaxTurns,
				Logger:       rt.logger,
			})
			if err != nil {
				return err
			}

			res, err := loop.Run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			rt.logger.Info("agent finished", "turns", res.Turns, "function_calls", len(res.Outputs))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "responses model (default: openai.model from config)")
	return cmd
}
