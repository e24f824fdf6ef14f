package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"fsgate/internal/client"
	"fsgate/internal/config"
)

type scriptedChat struct {
	responses []openai.ChatCompletionResponse
	requests  []openai.ChatCompletionRequest
}

func (s *scriptedChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("script exhausted")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

type fakeInvoker struct {
	ops     []client.ToolInfo
	invoked []string
	invoke  func(name string, args map[string]any) (client.Result, error)
}

func (f *fakeInvoker) Operations(context.Context) ([]client.ToolInfo, error) {
	return f.ops, nil
}

func (f *fakeInvoker) Invoke(_ context.Context, name string, args map[string]any) (client.Result, error) {
	f.invoked = append(f.invoked, name)
	return f.invoke(name, args)
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func toolCallResponse(id, name, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:       id,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: name, Arguments: args},
				}},
			}},
		},
	}
}

func testOps() []client.ToolInfo {
	return []client.ToolInfo{
		{
			Name:        "read_file",
			Description: "Read a file.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
		},
	}
}

func newTestAgent(chat ChatClient, fs Invoker, maxTurns int) *Agent {
	return NewWithChatClient(config.AgentConfig{Model: "test-model", MaxTurns: maxTurns}, chat, fs, zerolog.Nop())
}

func TestRunPlainAnswerWithoutTools(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{textResponse("done")}}
	fs := &fakeInvoker{ops: testOps()}

	got, err := newTestAgent(chat, fs, 4).Run(context.Background(), "say done")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "done" {
		t.Fatalf("Run() = %q, want %q", got, "done")
	}
	if len(fs.invoked) != 0 {
		t.Fatalf("invoked = %v, want none", fs.invoked)
	}

	// Catalogue must have been converted into tool declarations.
	if len(chat.requests) != 1 || len(chat.requests[0].Tools) != 1 {
		t.Fatalf("request tools = %+v, want 1", chat.requests)
	}
	fn := chat.requests[0].Tools[0].Function
	if fn.Name != "read_file" || fn.Description == "" {
		t.Fatalf("tool definition = %+v", fn)
	}
}

func TestRunExecutesToolCallAndFeedsResultBack(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call-1", "read_file", `{"path":"a.txt"}`),
		textResponse("the file says hi"),
	}}
	fs := &fakeInvoker{
		ops: testOps(),
		invoke: func(name string, args map[string]any) (client.Result, error) {
			if args["path"] != "a.txt" {
				t.Fatalf("Invoke args = %v", args)
			}
			return client.Result{Text: "hi"}, nil
		},
	}

	got, err := newTestAgent(chat, fs, 4).Run(context.Background(), "read a.txt")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "the file says hi" {
		t.Fatalf("Run() = %q", got)
	}
	if len(fs.invoked) != 1 || fs.invoked[0] != "read_file" {
		t.Fatalf("invoked = %v", fs.invoked)
	}

	// Second request must carry the tool result message.
	second := chat.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != openai.ChatMessageRoleTool || last.Content != "hi" || last.ToolCallID != "call-1" {
		t.Fatalf("tool message = %+v", last)
	}
}

func TestRunFeedsOperationFailureToModel(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call-1", "read_file", `{"path":"missing.txt"}`),
		textResponse("that file does not exist"),
	}}
	fs := &fakeInvoker{
		ops: testOps(),
		invoke: func(string, map[string]any) (client.Result, error) {
			return client.Result{Text: "read_file: NOT_FOUND: file not found: missing.txt", IsError: true}, nil
		},
	}

	got, err := newTestAgent(chat, fs, 4).Run(context.Background(), "read missing.txt")
	if err != nil {
		t.Fatalf("Run() error = %v, want failure fed back to the model", err)
	}
	if got != "that file does not exist" {
		t.Fatalf("Run() = %q", got)
	}

	last := chat.requests[1].Messages[len(chat.requests[1].Messages)-1]
	if !strings.Contains(last.Content, "NOT_FOUND") {
		t.Fatalf("tool message = %q, want failure text", last.Content)
	}
}

func TestRunAbortsOnDeadSession(t *testing.T) {
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call-1", "read_file", `{"path":"a.txt"}`),
	}}
	fs := &fakeInvoker{
		ops: testOps(),
		invoke: func(string, map[string]any) (client.Result, error) {
			return client.Result{}, &client.ConnError{Err: errors.New("broken pipe")}
		},
	}

	_, err := newTestAgent(chat, fs, 4).Run(context.Background(), "read a.txt")
	var connErr *client.ConnError
	if !errors.As(err, &connErr) {
		t.Fatalf("Run() error = %v, want *client.ConnError", err)
	}
}

func TestRunStopsAfterMaxTurns(t *testing.T) {
	loop := toolCallResponse("call-1", "read_file", `{"path":"a.txt"}`)
	chat := &scriptedChat{responses: []openai.ChatCompletionResponse{loop, loop}}
	fs := &fakeInvoker{
		ops: testOps(),
		invoke: func(string, map[string]any) (client.Result, error) {
			return client.Result{Text: "hi"}, nil
		},
	}

	_, err := newTestAgent(chat, fs, 2).Run(context.Background(), "loop forever")
	if err == nil || !strings.Contains(err.Error(), "no final answer") {
		t.Fatalf("Run() error = %v, want turn limit error", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(config.AgentConfig{}, &fakeInvoker{}, zerolog.Nop())
	if err == nil {
		t.Fatal("New() error = nil, want missing API key error")
	}
}
