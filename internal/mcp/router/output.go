package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MrWong99/mcpbridge/internal/mcp"
)

// errorPrefix is prepended to the message of a failed remote call.
const errorPrefix = "MCP error: "

// toolOutput is the classified response of a successful tool call.
type toolOutput interface {
	text() string
}

// textualContent is a response that carried a content list, possibly empty.
type textualContent struct {
	parts []string
}

func (t textualContent) text() string { return strings.Join(t.parts, "\n") }

// opaqueJSON is a response without a content list, rendered as JSON.
type opaqueJSON struct {
	value any
}

func (o opaqueJSON) text() string {
	data, err := marshal(o.value)
	if err != nil {
		return fmt.Sprintf("%v", o.value)
	}
	return string(data)
}

// classify picks the rendering for res.
func classify(res *mcp.CallResult) toolOutput {
	if res == nil {
		return opaqueJSON{value: nil}
	}
	if res.HasContent || len(res.Content) > 0 {
		return textualContent{parts: res.Content}
	}
	return opaqueJSON{value: res.Raw}
}

// roundDuration converts d to seconds with 100ms resolution.
func roundDuration(d time.Duration) float64 {
	return math.Round(float64(d.Milliseconds())/100) / 10
}

// passthrough returns the fallback record carrying raw unchanged.
func passthrough(callID, raw string) mcp.OutputRecord {
	return mcp.OutputRecord{Type: mcp.OutputType, CallID: callID, Output: raw}
}

// wrapped returns a record embedding output and its metadata as JSON.
func wrapped(callID, output string, exitCode int, elapsed time.Duration) (mcp.OutputRecord, error) {
	data, err := marshal(mcp.ToolOutput{
		Output: output,
		Metadata: mcp.CallMetadata{
			ExitCode:        exitCode,
			DurationSeconds: roundDuration(elapsed),
		},
	})
	if err != nil {
		return mcp.OutputRecord{}, err
	}
	return mcp.OutputRecord{Type: mcp.OutputType, CallID: callID, Output: string(data)}, nil
}

// marshal encodes v without HTML escaping and without a trailing newline.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ErrorRecord returns an exit_code 1 record for a call whose server could not
// be reached. Callers that prefer a well-formed record over the error
// returned by [Router.Dispatch] use it to degrade connection failures.
func ErrorRecord(callID string, err error) mcp.OutputRecord {
	rec, encErr := wrapped(callID, errorPrefix+err.Error(), 1, 0)
	if encErr != nil {
		return passthrough(callID, errorPrefix+err.Error())
	}
	return rec
}
