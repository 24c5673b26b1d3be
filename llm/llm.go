// Package llm holds the model-facing message shapes and clients. The rest of
// the codebase talks to a Client and never sees provider wire formats.
package llm

import "context"

// Client is the single capability the agent and the extraction pipeline need
// from a model provider.
type Client interface {
	Invoke(ctx context.Context, prompt Prompt) (Response, error)
}

type Prompt struct {
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

type Message struct {
	Role    string       `json:"role"`
	Content MessageParts `json:"content"`
}

type MessagePart struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

type MessageParts []MessagePart

func (mp MessageParts) Join() string {
	var result string
	for _, part := range mp {
		if part.Type == "text" {
			result += part.Text
		}
	}
	return result
}

// SystemMessage, UserMessage, and AssistantMessage build single-text-part
// messages, which is the common case everywhere outside the tool loop.
func SystemMessage(text string) Message {
	return Message{Role: "system", Content: MessageParts{{Type: "text", Text: text}}}
}

func UserMessage(text string) Message {
	return Message{Role: "user", Content: MessageParts{{Type: "text", Text: text}}}
}

func AssistantMessage(text string) Message {
	return Message{Role: "assistant", Content: MessageParts{{Type: "text", Text: text}}}
}

type ToolResult struct {
	ToolUseID string
	ToolName  string
	Data      map[string]any
}

// NewToolResultMessage wraps tool results in the user-role message the
// Converse API expects them in.
func NewToolResultMessage(results []ToolResult) Message {
	var parts MessageParts
	for _, result := range results {
		parts = append(parts, MessagePart{
			Type:      "tool_result",
			ToolUseID: result.ToolUseID,
			ToolName:  result.ToolName,
			Data:      result.Data,
		})
	}
	return Message{
		Role:    "user",
		Content: parts,
	}
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

type Response struct {
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}
