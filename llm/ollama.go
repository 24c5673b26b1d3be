package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	aichef "github.com/prasha-au/aichef"
)

type ollamaOptions struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

// OllamaClient implements Client against a local Ollama server. Useful for
// development without AWS credentials.
type OllamaClient struct {
	endpoint   string
	model      string
	httpClient aichef.HTTPClient
	options    ollamaOptions
}

type OllamaOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   aichef.HTTPClient
}

func NewOllamaClient(opts OllamaOpts) (*OllamaClient, error) {
	if opts.BaseEndpoint == "" {
		return nil, fmt.Errorf("base endpoint is required")
	}
	if opts.ModelID == "" {
		return nil, fmt.Errorf("model id is required")
	}
	return &OllamaClient{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   opts.BaseEndpoint + "/api/chat",
		options: ollamaOptions{
			Temperature:   0.3,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384,
		},
	}, nil
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Name      string           `json:"name,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}

type ollamaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

func (c *OllamaClient) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	msgs := c.buildMessages(prompt)

	tools := make([]ollamaTool, 0, len(prompt.Tools))
	for _, t := range prompt.Tools {
		var ot ollamaTool
		ot.Type = "function"
		ot.Function.Name = t.Name
		ot.Function.Description = t.Description

		schemaJSON, err := json.Marshal(t.InputSchema)
		if err != nil {
			slog.Error("LLM_CLIENT: Failed to marshal tool schema", "tool", t.Name, "error", err)
			continue
		}
		var params map[string]any
		if err := json.Unmarshal(schemaJSON, &params); err != nil {
			slog.Error("LLM_CLIENT: Failed to unmarshal tool schema", "tool", t.Name, "error", err)
			continue
		}
		ot.Function.Parameters = params
		tools = append(tools, ot)
	}

	reqBody := ollamaRequest{
		Model:    c.model,
		Messages: msgs,
		Tools:    tools,
		Stream:   false,
		Options:  c.options,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr ollamaResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "err", err, "body", string(body))
		return Response{Content: string(body)}, nil
	}

	if len(wr.Message.ToolCalls) > 0 {
		tc := make([]ToolCall, 0, len(wr.Message.ToolCalls))
		for _, call := range wr.Message.ToolCalls {
			tc = append(tc, ToolCall{
				Name:  call.Function.Name,
				Input: call.Function.Arguments,
			})
		}
		return Response{Content: wr.Message.Content, ToolCalls: tc}, nil
	}

	return Response{Content: wr.Message.Content}, nil
}

// buildMessages flattens the content-part message model into Ollama's single
// string per message shape. Tool results become role=tool messages with the
// serialized result as content.
func (c *OllamaClient) buildMessages(prompt Prompt) []ollamaMessage {
	messages := make([]ollamaMessage, 0, len(prompt.Messages))

	for _, m := range prompt.Messages {
		switch m.Role {
		case "system", "user", "assistant":
			var pending []ollamaMessage
			for _, part := range m.Content {
				if part.Type != "tool_result" {
					continue
				}
				content, err := json.Marshal(part.Data)
				if err != nil {
					slog.Warn("LLM_CLIENT: dropping unserializable tool result", "tool", part.ToolName)
					continue
				}
				pending = append(pending, ollamaMessage{
					Role:    "tool",
					Name:    part.ToolName,
					Content: string(content),
				})
			}

			if text := m.Content.Join(); text != "" {
				messages = append(messages, ollamaMessage{Role: m.Role, Content: text})
			}
			messages = append(messages, pending...)

		default:
			slog.Warn("LLM_CLIENT: unknown role, coercing to user", "role", m.Role)
			messages = append(messages, ollamaMessage{Role: "user", Content: m.Content.Join()})
		}
	}

	return messages
}
