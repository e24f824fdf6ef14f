package catalog

import (
	"strings"
	"testing"
)

func TestOperationsStableAndComplete(t *testing.T) {
	ops := Operations()
	want := []string{OpReadFile, OpListDirectory, OpWriteFile}
	if len(ops) != len(want) {
		t.Fatalf("Operations() returned %d entries, want %d", len(ops), len(want))
	}
	for i, name := range want {
		if ops[i].Name != name {
			t.Fatalf("Operations()[%d].Name = %s, want %s", i, ops[i].Name, name)
		}
		if ops[i].Description == "" {
			t.Fatalf("operation %s has no description", name)
		}
	}

	// Two snapshots must be identical: the catalogue is static.
	again := Operations()
	for i := range ops {
		if ops[i].Name != again[i].Name || len(ops[i].Params) != len(again[i].Params) {
			t.Fatalf("catalogue changed between snapshots at index %d", i)
		}
	}
}

func TestLookup(t *testing.T) {
	op, ok := Lookup(OpWriteFile)
	if !ok {
		t.Fatalf("Lookup(%s) not found", OpWriteFile)
	}
	if len(op.Params) != 2 {
		t.Fatalf("write_file params = %d, want 2", len(op.Params))
	}

	if _, ok := Lookup("delete_file"); ok {
		t.Fatal("Lookup(delete_file) found = true, want false")
	}
}

func TestToolDeclaration(t *testing.T) {
	op, _ := Lookup(OpWriteFile)
	tool := op.Tool()

	if tool.Name != OpWriteFile {
		t.Fatalf("tool.Name = %s, want %s", tool.Name, OpWriteFile)
	}
	if tool.InputSchema.Type != "object" {
		t.Fatalf("input schema type = %s, want object", tool.InputSchema.Type)
	}
	for _, name := range []string{"path", "content"} {
		if _, ok := tool.InputSchema.Properties[name]; !ok {
			t.Fatalf("input schema missing property %q", name)
		}
	}
	required := strings.Join(tool.InputSchema.Required, ",")
	if !strings.Contains(required, "path") || !strings.Contains(required, "content") {
		t.Fatalf("input schema required = %q, want path and content", required)
	}
}

func TestCheckArgs(t *testing.T) {
	op, _ := Lookup(OpReadFile)

	if err := op.CheckArgs(map[string]any{"path": "a.txt"}); err != nil {
		t.Fatalf("CheckArgs(valid) error = %v", err)
	}

	err := op.CheckArgs(map[string]any{})
	if err == nil || !strings.Contains(err.Error(), `"path"`) {
		t.Fatalf("CheckArgs(missing path) error = %v, want mention of path", err)
	}

	err = op.CheckArgs(map[string]any{"path": 42})
	if err == nil || !strings.Contains(err.Error(), "must be string") {
		t.Fatalf("CheckArgs(wrong type) error = %v, want type error", err)
	}

	err = op.CheckArgs(map[string]any{"path": "a.txt", "mode": "fast"})
	if err == nil || !strings.Contains(err.Error(), `"mode"`) {
		t.Fatalf("CheckArgs(unknown arg) error = %v, want mention of mode", err)
	}
}
