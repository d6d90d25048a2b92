package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/MrWong99/mcpbridge/internal/mcp"
	"github.com/MrWong99/mcpbridge/internal/mcp/schema"
)

func mustRegistry(t *testing.T, servers ...mcp.ServerConfig) *mcp.Registry {
	t.Helper()
	reg, err := mcp.NewRegistry(servers...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestDefinitions_NilRegistry(t *testing.T) {
	t.Parallel()
	defs := schema.Definitions(nil)
	if defs == nil {
		t.Fatal("Definitions(nil) returned nil, want empty slice")
	}
	if len(defs) != 0 {
		t.Errorf("len = %d, want 0", len(defs))
	}
}

func TestDefinitions_EmptyRegistry(t *testing.T) {
	t.Parallel()
	if got := schema.Definitions(mustRegistry(t)); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestDefinitions_PreservesOrder(t *testing.T) {
	t.Parallel()
	reg := mustRegistry(t,
		mcp.ServerConfig{Name: "a", URL: "http://a.example/mcp"},
		mcp.ServerConfig{Name: "b", URL: "http://b.example/mcp"},
	)

	defs := schema.Definitions(reg)
	if len(defs) != 2 {
		t.Fatalf("len = %d, want 2", len(defs))
	}
	for i, want := range []string{"a", "b"} {
		if defs[i].Name != want {
			t.Errorf("defs[%d].Name = %q, want %q", i, defs[i].Name, want)
		}
	}
}

func TestDefinitions_Shape(t *testing.T) {
	t.Parallel()
	reg := mustRegistry(t, mcp.ServerConfig{Name: "docs_server", URL: "http://x"})
	def := schema.Definitions(reg)[0]

	if def.Type != "function" {
		t.Errorf("Type = %q, want function", def.Type)
	}
	if def.Strict {
		t.Error("Strict = true, want false")
	}
	if def.Description == "" {
		t.Error("Description is empty")
	}

	params := def.Parameters
	if params["type"] != "object" {
		t.Errorf("parameters.type = %v, want object", params["type"])
	}
	if params["additionalProperties"] != false {
		t.Errorf("additionalProperties = %v, want false", params["additionalProperties"])
	}
	if got := params["required"]; !reflect.DeepEqual(got, []string{"name", "args"}) {
		t.Errorf("required = %v, want [name args]", got)
	}

	props, ok := params["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties has type %T", params["properties"])
	}
	for field, typ := range map[string]string{"name": "string", "args": "object"} {
		p, ok := props[field].(map[string]any)
		if !ok {
			t.Fatalf("properties.%s missing", field)
		}
		if p["type"] != typ {
			t.Errorf("properties.%s.type = %v, want %s", field, p["type"], typ)
		}
	}
}

func TestDefinitions_NameIsVerbatim(t *testing.T) {
	t.Parallel()
	reg := mustRegistry(t, mcp.ServerConfig{Name: "My-Server.v2", URL: "http://x"})
	if got := schema.Definitions(reg)[0].Name; got != "My-Server.v2" {
		t.Errorf("Name = %q, want verbatim server name", got)
	}
}

func TestDefinitions_ParametersAreIndependent(t *testing.T) {
	t.Parallel()
	reg := mustRegistry(t,
		mcp.ServerConfig{Name: "a", URL: "http://a"},
		mcp.ServerConfig{Name: "b", URL: "http://b"},
	)
	defs := schema.Definitions(reg)
	defs[0].Parameters["type"] = "mutated"
	if defs[1].Parameters["type"] != "object" {
		t.Error("mutating one descriptor's parameters affected another")
	}
}

func TestDefinition_JSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(schema.Definition("search"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["type"] != "function" || got["name"] != "search" || got["strict"] != false {
		t.Errorf("unexpected JSON: %s", data)
	}
}
