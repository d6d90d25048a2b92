// Package schema turns the MCP server registry into callable-function
// descriptors for the agent's planner.
//
// Every server becomes one function named after its registry key. The
// function takes the target tool name in "name" and the tool's arguments in
// "args"; validating the arguments against the tool's own schema is left to
// the remote server.
package schema

import (
	"fmt"

	"github.com/MrWong99/mcpbridge/internal/mcp"
)

// descriptionTemplate is formatted with the server name.
const descriptionTemplate = "Call a tool on the MCP server %q. Pass the tool name in `name` and the tool arguments as an object in `args`."

// Definitions returns one function descriptor per server in reg, in registry
// order. A nil or empty registry yields an empty slice.
//
// Server names are used verbatim as function names.
func Definitions(reg *mcp.Registry) []mcp.FunctionDefinition {
	servers := reg.Servers()
	defs := make([]mcp.FunctionDefinition, 0, len(servers))
	for _, s := range servers {
		defs = append(defs, Definition(s.Name))
	}
	return defs
}

// Definition returns the descriptor for a single server name.
func Definition(server string) mcp.FunctionDefinition {
	return mcp.FunctionDefinition{
		Type:        "function",
		Name:        server,
		Description: fmt.Sprintf(descriptionTemplate, server),
		Parameters:  Parameters(),
		Strict:      false,
	}
}

// Parameters returns a fresh copy of the parameter schema shared by all
// server functions.
func Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Name of the tool to invoke on the server.",
			},
			"args": map[string]any{
				"type":        "object",
				"description": "Arguments passed to the tool.",
			},
		},
		"required":             []string{"name", "args"},
		"additionalProperties": false,
	}
}
