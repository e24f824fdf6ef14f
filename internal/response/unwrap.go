// Package response extracts the plain-text payload from MCP call results.
package response

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Unwrap flattens a CallToolResult into its text payload. The boolean is true
// when the result marks an operation failure. A nil result counts as a
// failure with no payload.
func Unwrap(result *mcp.CallToolResult) (string, bool) {
	if result == nil {
		return "", true
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := renderContent(content); ok {
			parts = append(parts, text)
			continue
		}
		// Unknown content kind: keep the raw JSON rather than dropping it.
		if raw, err := json.Marshal(content); err == nil {
			parts = append(parts, string(raw))
		}
	}

	return strings.Join(parts, "\n"), result.IsError
}

func renderContent(content mcp.Content) (string, bool) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, true
	case *mcp.TextContent:
		return c.Text, true
	case mcp.EmbeddedResource:
		return renderResource(c.Resource)
	case *mcp.EmbeddedResource:
		return renderResource(c.Resource)
	default:
		var typed struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		raw, err := json.Marshal(content)
		if err != nil || json.Unmarshal(raw, &typed) != nil {
			return "", false
		}
		if typed.Type == "text" {
			return typed.Text, true
		}
		return "", false
	}
}

func renderResource(resource mcp.ResourceContents) (string, bool) {
	switch r := resource.(type) {
	case mcp.TextResourceContents:
		return r.Text, true
	case *mcp.TextResourceContents:
		return r.Text, true
	default:
		return "", false
	}
}
