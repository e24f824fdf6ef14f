// Package agent drives the filesystem catalogue from an OpenAI tool-calling
// loop: the model decides which operations to call, the connector executes
// them, and the loop feeds results back until the model answers in plain text.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"fsgate/internal/client"
	"fsgate/internal/config"
)

const systemPrompt = "You are a helpful assistant with access to filesystem tools. " +
	"All paths are relative to a sandboxed working directory. " +
	"Use the tools to read, list, and write files as needed, then answer the user in plain text."

// ChatClient abstracts the OpenAI client so tests can inject a double.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

var _ ChatClient = (*openai.Client)(nil)

// Invoker is the slice of the client connector the agent needs: list the
// operations, call one by name. Nothing about transport or sandbox.
type Invoker interface {
	Operations(ctx context.Context) ([]client.ToolInfo, error)
	Invoke(ctx context.Context, name string, args map[string]any) (client.Result, error)
}

var _ Invoker = (*client.Client)(nil)

// Agent runs bounded tool-calling conversations against one connector session.
type Agent struct {
	chat     ChatClient
	fs       Invoker
	model    string
	maxTurns int
	logger   zerolog.Logger
}

// New builds an agent from config, constructing the real OpenAI client.
func New(cfg config.AgentConfig, fs Invoker, logger zerolog.Logger) (*Agent, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("agent: no API key configured (set agent.api_key or OPENAI_API_KEY)")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return NewWithChatClient(cfg, openai.NewClientWithConfig(clientConfig), fs, logger), nil
}

// NewWithChatClient builds an agent around an injected chat client.
func NewWithChatClient(cfg config.AgentConfig, chat ChatClient, fs Invoker, logger zerolog.Logger) *Agent {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 8
	}
	return &Agent{
		chat:     chat,
		fs:       fs,
		model:    cfg.Model,
		maxTurns: maxTurns,
		logger:   logger,
	}
}

// Run executes one prompt to completion and returns the model's final answer.
// Operation failures are fed back to the model as tool output so it can
// recover; a dead session (*client.ConnError) aborts the run.
func (a *Agent) Run(ctx context.Context, prompt string) (string, error) {
	tools, err := a.toolDefinitions(ctx)
	if err != nil {
		return "", err
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		resp, err := a.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("chat completion returned no choices")
		}

		msg := resp.Choices[0].Message
		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})

		if len(msg.ToolCalls) == 0 {
			a.logger.Debug().Int("turns", turn+1).Msg("agent finished")
			return msg.Content, nil
		}

		for _, call := range msg.ToolCalls {
			output, err := a.executeToolCall(ctx, call)
			if err != nil {
				return "", err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("no final answer after %d turns", a.maxTurns)
}

func (a *Agent) executeToolCall(ctx context.Context, call openai.ToolCall) (string, error) {
	a.logger.Info().
		Str("operation", call.Function.Name).
		Str("arguments", call.Function.Arguments).
		Msg("executing tool call")

	var args map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return fmt.Sprintf("Error: invalid tool arguments: %v", err), nil
		}
	}

	res, err := a.fs.Invoke(ctx, call.Function.Name, args)
	if err != nil {
		var connErr *client.ConnError
		if errors.As(err, &connErr) {
			return "", fmt.Errorf("executing %s: %w", call.Function.Name, err)
		}
		// Local validation failure: let the model see it and retry.
		return fmt.Sprintf("Error: %v", err), nil
	}
	if res.IsError {
		return fmt.Sprintf("Error: %s", res.Text), nil
	}
	return res.Text, nil
}

// toolDefinitions converts the catalogue into OpenAI tool declarations. The
// input schemas pass through unchanged; both sides speak JSON schema.
func (a *Agent) toolDefinitions(ctx context.Context) ([]openai.Tool, error) {
	ops, err := a.fs.Operations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	tools := make([]openai.Tool, len(ops))
	for i, op := range ops {
		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        op.Name,
				Description: op.Description,
				Parameters:  op.InputSchema,
			},
		}
	}
	return tools, nil
}
