package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// StructuredTool is the narrow tool surface the structured-generation loop
// needs. tools.Tool satisfies it.
type StructuredTool interface {
	Name() string
	Description() string
	InputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (map[string]any, error)
}

// StructuredRequest asks the model for a single JSON document matching Schema.
// Tools, if any, may be called by the model before it produces the document.
type StructuredRequest struct {
	System        string
	Prompt        string
	Schema        *jsonschema.Schema
	Tools         []StructuredTool
	MaxIterations int
}

const defaultStructuredIterations = 5

// GenerateStructured runs a bounded model loop until the model produces JSON
// that parses and conforms to the requested schema's shape. Tool calls are
// executed in order; tool failures go back to the model as error results.
func GenerateStructured(ctx context.Context, c Client, req StructuredRequest) ([]byte, error) {
	maxIter := req.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultStructuredIterations
	}

	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal output schema: %w", err)
	}

	system := req.System
	if system != "" {
		system += "\n\n"
	}
	system += "Respond with ONLY a JSON object conforming to this schema, no prose and no code fences:\n" + string(schemaJSON)

	tools := make([]Tool, 0, len(req.Tools))
	byName := make(map[string]StructuredTool, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
		byName[t.Name()] = t
	}

	prompt := Prompt{
		Messages: []Message{SystemMessage(system), UserMessage(req.Prompt)},
		Tools:    tools,
	}

	for iter := 0; iter < maxIter; iter++ {
		res, err := c.Invoke(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("invoke failed: %w", err)
		}

		if len(res.ToolCalls) == 0 {
			doc := ExtractJSON(res.Content)
			if doc == "" {
				slog.Info("LLM_CLIENT: Structured output missing JSON, retrying", "iteration", iter+1)
				prompt.Messages = append(prompt.Messages,
					AssistantMessage(res.Content),
					UserMessage(`{"error":"invalid_output","reason":"respond with only the JSON object"}`),
				)
				continue
			}
			if !json.Valid([]byte(doc)) {
				slog.Info("LLM_CLIENT: Structured output is malformed JSON, retrying", "iteration", iter+1)
				prompt.Messages = append(prompt.Messages,
					AssistantMessage(res.Content),
					UserMessage(`{"error":"invalid_json","reason":"output did not parse as JSON"}`),
				)
				continue
			}
			return []byte(doc), nil
		}

		assistantMsg := Message{Role: "assistant", Content: MessageParts{}}
		if res.Content != "" {
			assistantMsg.Content = append(assistantMsg.Content, MessagePart{Type: "text", Text: res.Content})
		}
		for _, call := range res.ToolCalls {
			assistantMsg.Content = append(assistantMsg.Content, MessagePart{
				Type:      "tool_use",
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      call.Input,
			})
		}
		prompt.Messages = append(prompt.Messages, assistantMsg)

		var results []ToolResult
		for _, call := range res.ToolCalls {
			tool, ok := byName[call.Name]
			if !ok {
				results = append(results, ToolResult{
					ToolUseID: call.ToolUseID,
					ToolName:  call.Name,
					Data:      map[string]any{"error": fmt.Sprintf("tool %q not found", call.Name)},
				})
				continue
			}
			out, rerr := tool.Run(ctx, call.Input)
			if rerr != nil {
				results = append(results, ToolResult{
					ToolUseID: call.ToolUseID,
					ToolName:  call.Name,
					Data:      map[string]any{"error": fmt.Sprintf("tool %q failed: %v", call.Name, rerr)},
				})
				continue
			}
			results = append(results, ToolResult{
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      out,
			})
		}
		prompt.Messages = append(prompt.Messages, NewToolResultMessage(results))
	}

	return nil, fmt.Errorf("no structured output after %d iterations", maxIter)
}

// ExtractJSON pulls the first top-level JSON object or array out of model
// text, tolerating code fences and surrounding prose. Returns "" when no
// JSON document is found.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return ""
	}

	open := s[start]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && (ch == open):
			depth++
		case !inString && (ch == closing):
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
