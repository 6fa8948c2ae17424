package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/grantix/internal/domain"
)

// --- Helpers ---

func stubTool(name string, outcome ToolOutcome, err error) Tool {
	return Tool{
		Schema: domain.ToolSchema{Name: name, Description: name},
		Execute: func(ctx context.Context, args json.RawMessage) (ToolOutcome, error) {
			return outcome, err
		},
	}
}

// --- Tests ---

func TestRegistry_RegisterAndExecute(t *testing.T) {
	reg := NewRegistry()
	want := ToolOutcome{Payload: `{"ok":true}`, RecordIDs: []string{"r1"}}
	if err := reg.Register(stubTool("lookup", want, nil)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := reg.Execute(context.Background(), "lookup", nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.Payload != want.Payload {
		t.Errorf("expected payload %q, got %q", want.Payload, got.Payload)
	}
	if len(got.RecordIDs) != 1 || got.RecordIDs[0] != "r1" {
		t.Errorf("expected record ids [r1], got %v", got.RecordIDs)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 registered tool, got %d", reg.Len())
	}
}

func TestRegistry_RejectsInvalidRegistrations(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(stubTool("", ToolOutcome{}, nil)); err == nil {
		t.Error("expected error for empty tool name")
	}
	if err := reg.Register(Tool{Schema: domain.ToolSchema{Name: "noop"}}); err == nil {
		t.Error("expected error for nil executor")
	}

	if err := reg.Register(stubTool("dup", ToolOutcome{}, nil)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(stubTool("dup", ToolOutcome{}, nil)); err == nil {
		t.Error("expected error for duplicate tool name")
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Execute(context.Background(), "missing", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestRegistry_SchemasSortedByName(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(stubTool(name, ToolOutcome{}, nil)); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}

	schemas := reg.Schemas()
	want := []string{"alpha", "mid", "zeta"}
	if len(schemas) != len(want) {
		t.Fatalf("expected %d schemas, got %d", len(want), len(schemas))
	}
	for i, name := range want {
		if schemas[i].Name != name {
			t.Errorf("schema [%d]: expected %q, got %q", i, name, schemas[i].Name)
		}
	}
}
