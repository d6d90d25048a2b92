package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// invocation is a parsed function-call payload.
type invocation struct {
	tool string
	args any
}

// parseInvocation decodes a function-call argument string. Two shapes are
// accepted:
//
//	{"name": "search", "args": {"q": "otel"}}
//	{"name": "search", "q": "otel"}
//
// In the second shape every top-level field except "name" becomes a tool
// argument. A null "args" counts as absent. A non-object "args" is forwarded
// as is; rejecting it is up to the server. ok is false when raw is not a
// single JSON object or "name" is missing or not a string.
func parseInvocation(raw string) (inv invocation, ok bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return invocation{}, false
	}
	// Anything but whitespace after the object is malformed input.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return invocation{}, false
	}

	tool, isString := fields["name"].(string)
	if !isString {
		return invocation{}, false
	}

	if v, present := fields["args"]; present && v != nil {
		return invocation{tool: tool, args: v}, true
	}

	args := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "name" || k == "args" {
			continue
		}
		args[k] = v
	}
	return invocation{tool: tool, args: args}, true
}
