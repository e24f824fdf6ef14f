// Package client is the consumer side of the filesystem protocol: it launches
// the server as a subprocess sharing its stdio streams, performs the MCP
// handshake, caches the operation catalogue, and exposes each operation as a
// callable. Argument validation mirrors the server's checks so obviously
// invalid calls fail before the round trip.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"fsgate/internal/response"
)

// Sentinel errors for caller-side fail-fast rejection. These never reach the
// wire.
var (
	ErrUnknownOperation = errors.New("UNKNOWN_OPERATION")
	ErrInvalidArguments = errors.New("INVALID_ARGUMENTS")
)

// ConnError marks a dead session: the stream closed, the handshake failed, or
// a call could not be delivered. Distinct from an operation Failure, which is
// a live session reporting a failed call.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("CONNECTION_LOST: %v", e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// ToolInfo is a simplified operation descriptor returned by Operations.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Result is the outcome of one operation call: a text payload, flagged when
// the server reported a failure.
type Result struct {
	Text    string
	IsError bool
}

// connection wraps an MCP client with its transport.
type connection struct {
	listTools func(ctx context.Context) ([]mcp.Tool, error)
	callTool  func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
	close     func() error
}

// Client is one session against a filesystem server. Invoke calls are
// serialized internally: the session carries one request at a time.
type Client struct {
	mu    sync.Mutex
	conn  *connection
	tools []ToolInfo
}

// Connect spawns the server process and completes the handshake. The
// subprocess's stdout is the protocol stream; its stderr passes through for
// diagnostics. Any failure here is a *ConnError.
func Connect(ctx context.Context, command string, env []string, args ...string) (*Client, error) {
	c, err := mcpclient.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, &ConnError{Err: fmt.Errorf("creating stdio client: %w", err)}
	}

	if _, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: "2025-11-25",
			ClientInfo: mcp.Implementation{
				Name:    "fsgate",
				Version: "0.1.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}); err != nil {
		c.Close()
		return nil, &ConnError{Err: fmt.Errorf("initializing: %w", err)}
	}

	return &Client{
		conn: &connection{
			listTools: func(ctx context.Context) ([]mcp.Tool, error) {
				result, err := c.ListTools(ctx, mcp.ListToolsRequest{})
				if err != nil {
					return nil, err
				}
				return result.Tools, nil
			},
			callTool: func(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
				return c.CallTool(ctx, mcp.CallToolRequest{
					Params: mcp.CallToolParams{
						Name:      name,
						Arguments: args,
					},
				})
			},
			close: func() error {
				return c.Close()
			},
		},
	}, nil
}

// Operations returns the server's catalogue. Fetched once per session and
// cached; the catalogue is static for the lifetime of the server.
func (c *Client) Operations(ctx context.Context) ([]ToolInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.operationsLocked(ctx)
}

func (c *Client) operationsLocked(ctx context.Context) ([]ToolInfo, error) {
	if c.tools != nil {
		return c.tools, nil
	}
	if c.conn == nil {
		return nil, &ConnError{Err: errors.New("session closed")}
	}

	tools, err := c.conn.listTools(ctx)
	if err != nil {
		return nil, &ConnError{Err: fmt.Errorf("listing operations: %w", err)}
	}

	infos := make([]ToolInfo, len(tools))
	for i, t := range tools {
		schema := t.RawInputSchema
		if len(schema) == 0 {
			schema, _ = json.Marshal(t.InputSchema)
		}
		infos[i] = ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}
	}
	c.tools = infos
	return infos, nil
}

// Invoke calls one catalogued operation. Unknown names and argument shape
// violations are rejected locally with ErrUnknownOperation or
// ErrInvalidArguments; transport failures come back as *ConnError; an
// operation-level failure is a Result with IsError set, not an error.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]any) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tools, err := c.operationsLocked(ctx)
	if err != nil {
		return Result{}, err
	}

	var schema json.RawMessage
	found := false
	for _, t := range tools {
		if t.Name == name {
			schema = t.InputSchema
			found = true
			break
		}
	}
	if !found {
		return Result{}, fmt.Errorf("%w: no such operation %q", ErrUnknownOperation, name)
	}

	compiled, err := compileArgs(args, schema)
	if err != nil {
		return Result{}, err
	}

	result, err := c.conn.callTool(ctx, name, compiled)
	if err != nil {
		return Result{}, &ConnError{Err: fmt.Errorf("calling %s: %w", name, err)}
	}

	text, isErr := response.Unwrap(result)
	return Result{Text: text, IsError: isErr}, nil
}

// Close tears down the session. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	if conn.close != nil {
		return conn.close()
	}
	return nil
}
