package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct {
	calls []map[string]any
	err   error
}

func (t *echoTool) Name() string        { return "echo" }
func (t *echoTool) Description() string { return "Echoes its input back." }
func (t *echoTool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}
func (t *echoTool) Run(_ context.Context, input map[string]any) (map[string]any, error) {
	t.calls = append(t.calls, input)
	if t.err != nil {
		return nil, t.err
	}
	return map[string]any{"echo": input}, nil
}

func TestGenerateStructuredReturnsFirstValidJSON(t *testing.T) {
	client := NewScriptedClient(Response{Content: `{"title":"Tacos"}`})

	out, err := GenerateStructured(context.Background(), client, StructuredRequest{
		System: "You describe recipes.",
		Prompt: "Describe tacos.",
		Schema: &jsonschema.Schema{Type: "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Tacos"}`, string(out))
	assert.Equal(t, 1, client.Calls())
}

func TestGenerateStructuredStripsCodeFences(t *testing.T) {
	client := NewScriptedClient(Response{Content: "Here you go:\n```json\n{\"title\":\"Tacos\"}\n```"})

	out, err := GenerateStructured(context.Background(), client, StructuredRequest{
		Prompt: "Describe tacos.",
		Schema: &jsonschema.Schema{Type: "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Tacos"}`, string(out))
}

func TestGenerateStructuredExecutesToolCalls(t *testing.T) {
	tool := &echoTool{}
	client := NewScriptedClient(
		Response{ToolCalls: []ToolCall{{Name: "echo", Input: map[string]any{"n": 1.0}, ToolUseID: "tu-1"}}},
		Response{Content: `{"done":true}`},
	)

	out, err := GenerateStructured(context.Background(), client, StructuredRequest{
		Prompt: "Use the tool, then answer.",
		Schema: &jsonschema.Schema{Type: "object"},
		Tools:  []StructuredTool{tool},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"done":true}`, string(out))
	require.Len(t, tool.calls, 1)
	assert.Equal(t, map[string]any{"n": 1.0}, tool.calls[0])

	// The second prompt must carry the tool_use and tool_result exchange.
	require.Equal(t, 2, client.Calls())
	second := client.Prompts[1]
	var sawUse, sawResult bool
	for _, m := range second.Messages {
		for _, p := range m.Content {
			if p.Type == "tool_use" && p.ToolName == "echo" {
				sawUse = true
			}
			if p.Type == "tool_result" && p.ToolUseID == "tu-1" {
				sawResult = true
			}
		}
	}
	assert.True(t, sawUse)
	assert.True(t, sawResult)
}

func TestGenerateStructuredFeedsToolErrorsBack(t *testing.T) {
	tool := &echoTool{err: fmt.Errorf("boom")}
	client := NewScriptedClient(
		Response{ToolCalls: []ToolCall{{Name: "echo", Input: map[string]any{}, ToolUseID: "tu-1"}}},
		Response{Content: `{"done":true}`},
	)

	_, err := GenerateStructured(context.Background(), client, StructuredRequest{
		Prompt: "Use the tool.",
		Schema: &jsonschema.Schema{Type: "object"},
		Tools:  []StructuredTool{tool},
	})
	require.NoError(t, err)

	second := client.Prompts[1]
	var errData map[string]any
	for _, m := range second.Messages {
		for _, p := range m.Content {
			if p.Type == "tool_result" {
				errData = p.Data
			}
		}
	}
	require.NotNil(t, errData)
	assert.Contains(t, errData["error"], "boom")
}

func TestGenerateStructuredRetriesOnProse(t *testing.T) {
	client := NewScriptedClient(
		Response{Content: "I cannot answer in JSON, sorry."},
		Response{Content: `{"ok":true}`},
	)

	out, err := GenerateStructured(context.Background(), client, StructuredRequest{
		Prompt: "Answer.",
		Schema: &jsonschema.Schema{Type: "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))
	assert.Equal(t, 2, client.Calls())
}

func TestGenerateStructuredGivesUpAfterMaxIterations(t *testing.T) {
	client := NewScriptedClient(
		Response{Content: "nope"},
		Response{Content: "still nope"},
	)

	_, err := GenerateStructured(context.Background(), client, StructuredRequest{
		Prompt:        "Answer.",
		Schema:        &jsonschema.Schema{Type: "object"},
		MaxIterations: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no structured output")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! {"a":1} Hope that helps.`, `{"a":1}`},
		{"array", `[1,2,3]`, `[1,2,3]`},
		{"brace in string", `{"a":"}"}`, `{"a":"}"}`},
		{"no json", `plain text`, ""},
		{"unterminated", `{"a":1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}
