// Package agentloop runs a minimal agent against the OpenAI Responses API,
// offering every configured MCP server as a function and answering the
// model's function calls through a [Dispatcher].
//
// Each turn sends the pending function-call outputs back to the model,
// chained to the previous response, until the model replies without calling
// a function or the turn limit is reached.
package agentloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/mcpbridge/internal/mcp"
	"github.com/MrWong99/mcpbridge/internal/mcp/router"
)

// ErrMaxTurns is returned when the model is still calling functions after
// the configured number of turns.
var ErrMaxTurns = errors.New("agentloop: turn limit reached")

// defaultMaxTurns applies when [Config.MaxTurns] is zero.
const defaultMaxTurns = 8

// ResponsesAPI is the subset of the OpenAI responses service used by the loop.
// *responses.ResponseService satisfies it.
type ResponsesAPI interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// Dispatcher answers a single function call. *router.Router satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, call router.Call) ([]mcp.OutputRecord, error)
}

// Config configures a [Loop].
type Config struct {
	// Model is the responses model name. Required.
	Model string

	// Instructions is sent as the system prompt. Optional.
	Instructions string

	// Functions are offered to the model on every turn.
	Functions []mcp.FunctionDefinition

	// MaxTurns bounds the number of model requests per [Loop.Run].
	MaxTurns int

	// Logger receives per-turn diagnostics. Default: [slog.Default].
	Logger *slog.Logger
}

// Loop drives the model and the dispatcher. It is safe for concurrent use as
// long as the API and dispatcher are.
type Loop struct {
	api          ResponsesAPI
	dispatcher   Dispatcher
	model        string
	instructions string
	tools        []responses.ToolUnionParam
	maxTurns     int
	logger       *slog.Logger
}

// Result is the outcome of a completed [Loop.Run].
type Result struct {
	// Text is the model's final answer.
	Text string

	// Outputs holds every function-call-output record sent to the model,
	// in order.
	Outputs []mcp.OutputRecord

	// Turns is the number of model requests made.
	Turns int
}

// New creates a Loop.
func New(api ResponsesAPI, dispatcher Dispatcher, cfg Config) (*Loop, error) {
	if api == nil {
		return nil, errors.New("agentloop: api must not be nil")
	}
	if dispatcher == nil {
		return nil, errors.New("agentloop: dispatcher must not be nil")
	}
	if cfg.Model == "" {
		return nil, errors.New("agentloop: model must not be empty")
	}
	l := &Loop{
		api:          api,
		dispatcher:   dispatcher,
		model:        cfg.Model,
		instructions: cfg.Instructions,
		tools:        ToolParams(cfg.Functions),
		maxTurns:     cfg.MaxTurns,
		logger:       cfg.Logger,
	}
	if l.maxTurns <= 0 {
		l.maxTurns = defaultMaxTurns
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l, nil
}

// Run sends prompt to the model and resolves its function calls until it
// answers with text.
//
// A server that cannot be reached is reported to the model as an exit_code 1
// output instead of aborting the run.
func (l *Loop) Run(ctx context.Context, prompt string) (*Result, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(l.model),
		Input: responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
		Tools: l.tools,
	}
	if l.instructions != "" {
		params.Instructions = openai.String(l.instructions)
	}

	res := &Result{}
	for res.Turns < l.maxTurns {
		resp, err := l.api.New(ctx, params)
		res.Turns++
		if err != nil {
			return nil, fmt.Errorf("agentloop: turn %d: %w", res.Turns, err)
		}

		pending := l.resolveCalls(ctx, resp, res)
		if len(pending) == 0 {
			res.Text = resp.OutputText()
			return res, nil
		}
		l.logger.Debug("returning function outputs to model",
			"response_id", resp.ID,
			"outputs", len(pending),
			"turn", res.Turns,
		)

		params.PreviousResponseID = openai.String(resp.ID)
		params.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: pending}
	}
	return nil, ErrMaxTurns
}

// resolveCalls dispatches every function call in resp and returns the
// resulting input items.
func (l *Loop) resolveCalls(ctx context.Context, resp *responses.Response, res *Result) responses.ResponseInputParam {
	var items responses.ResponseInputParam
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		fc := item.AsFunctionCall()
		args := fc.Arguments

		records, err := l.dispatcher.Dispatch(ctx, router.Call{
			Server:    fc.Name,
			Arguments: &args,
			CallID:    fc.CallID,
		})
		if err != nil {
			l.logger.Warn("function call failed", "function", fc.Name, "call_id", fc.CallID, "err", err)
			records = []mcp.OutputRecord{router.ErrorRecord(fc.CallID, err)}
		}
		for _, rec := range records {
			res.Outputs = append(res.Outputs, rec)
			items = append(items, InputItem(rec))
		}
	}
	return items
}

// ToolParams converts function descriptors into responses tool parameters.
func ToolParams(defs []mcp.FunctionDefinition) []responses.ToolUnionParam {
	tools := make([]responses.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  d.Parameters,
				Strict:      openai.Bool(d.Strict),
			},
		})
	}
	return tools
}

// InputItem converts an output record into a responses input item.
func InputItem(rec mcp.OutputRecord) responses.ResponseInputItemUnionParam {
	return responses.ResponseInputItemUnionParam{
		OfFunctionCallOutput: &responses.ResponseInputItemFunctionCallOutputParam{
			CallID: rec.CallID,
			Output: rec.Output,
		},
	}
}
