// Package catalog holds the static table of filesystem operations the server
// exposes. The table is data, not dispatch: each operation is a descriptor
// with a typed parameter list, and handler wiring happens elsewhere by name.
package catalog

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Operation names.
const (
	OpReadFile      = "read_file"
	OpListDirectory = "list_directory"
	OpWriteFile     = "write_file"
)

// Param describes one named argument of an operation.
type Param struct {
	Name        string
	Type        string // JSON schema primitive: "string", "integer", ...
	Description string
	Required    bool
}

// Operation is one entry of the catalogue: a callable unit with a declared
// input shape. Immutable after process start.
type Operation struct {
	Name        string
	Description string
	Params      []Param
}

// operations is the catalogue. Order here is the order advertised to callers
// and is identical for every session of a server instance.
var operations = []Operation{
	{
		Name:        OpReadFile,
		Description: "Read the complete contents of a text file. Returns file content as string.",
		Params: []Param{
			{Name: "path", Type: "string", Description: "Path to the file to read (relative or absolute)", Required: true},
		},
	},
	{
		Name:        OpListDirectory,
		Description: "List all files and directories in a given directory path.",
		Params: []Param{
			{Name: "path", Type: "string", Description: "Directory path to list (relative or absolute). Use '.' for current directory.", Required: true},
		},
	},
	{
		Name:        OpWriteFile,
		Description: "Write content to a file. Creates file if it doesn't exist, overwrites if it does.",
		Params: []Param{
			{Name: "path", Type: "string", Description: "Path where to write the file", Required: true},
			{Name: "content", Type: "string", Description: "Content to write to the file", Required: true},
		},
	},
}

// Operations returns the catalogue in advertised order. The returned slice is
// a copy; the catalogue itself is never mutated.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Lookup returns the descriptor for name.
func Lookup(name string) (Operation, bool) {
	for _, op := range operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// Tool converts an operation descriptor into its MCP tool declaration.
func (o Operation) Tool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(o.Description)}
	for _, p := range o.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		switch p.Type {
		case "integer":
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(p.Name, popts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, popts...))
		}
	}
	return mcp.NewTool(o.Name, opts...)
}

// CheckArgs verifies args against the operation's declared parameters: every
// required parameter present, every supplied value of the declared type, no
// undeclared names. The first offending parameter is reported.
func (o Operation) CheckArgs(args map[string]any) error {
	for _, p := range o.Params {
		v, ok := args[p.Name]
		if !ok {
			if p.Required {
				return fmt.Errorf("missing required argument %q", p.Name)
			}
			continue
		}
		if !typeMatches(p.Type, v) {
			return fmt.Errorf("argument %q must be %s, got %T", p.Name, p.Type, v)
		}
	}
	for name := range args {
		if !o.hasParam(name) {
			return fmt.Errorf("unknown argument %q", name)
		}
	}
	return nil
}

func (o Operation) hasParam(name string) bool {
	for _, p := range o.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func typeMatches(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "integer", "number":
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	default:
		return true
	}
}
