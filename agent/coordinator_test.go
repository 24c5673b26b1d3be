package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
	"github.com/prasha-au/aichef/tools"
)

func testRegistry(t *testing.T, state *aichef.ChatState, deps tools.Deps) *tools.Registry {
	t.Helper()
	registry, err := tools.NewRegistry(state, deps)
	require.NoError(t, err)
	return registry
}

func TestRunReturnsFinalTextWithoutTools(t *testing.T) {
	client := llm.NewScriptedClient(llm.Response{Content: "Happy to help with dinner ideas!"})
	coord := NewCoordinator(client, 5, nil)

	state := &aichef.ChatState{}
	out, err := coord.Run(context.Background(), llm.Prompt{Messages: []llm.Message{llm.UserMessage("hi")}}, testRegistry(t, state, tools.Deps{}))
	require.NoError(t, err)
	assert.Equal(t, "Happy to help with dinner ideas!", out)
}

func TestRunExecutesToolThenReturnsReply(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Response{ToolCalls: []llm.ToolCall{{
			Name:      "redirect_to_search",
			Input:     map[string]any{"query": "beef tacos"},
			ToolUseID: "tu-1",
		}}},
		llm.Response{Content: "Taking you to some beef taco recipes now."},
	)
	coord := NewCoordinator(client, 5, nil)

	state := &aichef.ChatState{}
	out, err := coord.Run(context.Background(), llm.Prompt{Messages: []llm.Message{llm.UserMessage("beef tacos please")}}, testRegistry(t, state, tools.Deps{}))
	require.NoError(t, err)

	assert.Equal(t, "Taking you to some beef taco recipes now.", out)
	assert.Equal(t, "/search?q=beef%20tacos", state.RequestedRedirect)

	// The tool result must have been fed back before the final reply.
	require.Equal(t, 2, client.Calls())
	var sawResult bool
	for _, m := range client.Prompts[1].Messages {
		for _, p := range m.Content {
			if p.Type == "tool_result" && p.ToolUseID == "tu-1" {
				sawResult = true
				assert.Equal(t, true, p.Data["success"])
			}
		}
	}
	assert.True(t, sawResult)
}

func TestRunFeedsToolErrorBackToModel(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Response{ToolCalls: []llm.ToolCall{{
			Name:      "redirect_to_search",
			Input:     map[string]any{},
			ToolUseID: "tu-1",
		}}},
		llm.Response{Content: "What would you like to search for?"},
	)
	coord := NewCoordinator(client, 5, nil)

	state := &aichef.ChatState{}
	out, err := coord.Run(context.Background(), llm.Prompt{Messages: []llm.Message{llm.UserMessage("search")}}, testRegistry(t, state, tools.Deps{}))
	require.NoError(t, err)
	assert.Equal(t, "What would you like to search for?", out)

	var errData map[string]any
	for _, m := range client.Prompts[1].Messages {
		for _, p := range m.Content {
			if p.Type == "tool_result" {
				errData = p.Data
			}
		}
	}
	require.NotNil(t, errData)
	assert.Contains(t, errData["error"], "query is required")
}

func TestRunUnknownToolBecomesErrorResult(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Response{ToolCalls: []llm.ToolCall{{
			Name:      "order_takeout",
			Input:     map[string]any{},
			ToolUseID: "tu-1",
		}}},
		llm.Response{Content: "I can only help with recipes."},
	)
	coord := NewCoordinator(client, 5, nil)

	out, err := coord.Run(context.Background(), llm.Prompt{Messages: []llm.Message{llm.UserMessage("order food")}}, testRegistry(t, &aichef.ChatState{}, tools.Deps{}))
	require.NoError(t, err)
	assert.Equal(t, "I can only help with recipes.", out)
}

func TestRunNudgesOnEmptyReply(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Response{Content: "   "},
		llm.Response{Content: "Here to help!"},
	)
	coord := NewCoordinator(client, 5, nil)

	out, err := coord.Run(context.Background(), llm.Prompt{Messages: []llm.Message{llm.UserMessage("hi")}}, testRegistry(t, &aichef.ChatState{}, tools.Deps{}))
	require.NoError(t, err)
	assert.Equal(t, "Here to help!", out)
	assert.Equal(t, 2, client.Calls())
}

func TestRunGivesUpAfterMaxIterations(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Response{Content: ""},
		llm.Response{Content: ""},
	)
	coord := NewCoordinator(client, 2, nil)

	_, err := coord.Run(context.Background(), llm.Prompt{Messages: []llm.Message{llm.UserMessage("hi")}}, testRegistry(t, &aichef.ChatState{}, tools.Deps{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no final reply")
}

func TestRunPropagatesInvokeFailure(t *testing.T) {
	client := llm.NewScriptedClient(llm.Response{}).FailAt(0, fmt.Errorf("bedrock down"))
	coord := NewCoordinator(client, 5, nil)

	_, err := coord.Run(context.Background(), llm.Prompt{Messages: []llm.Message{llm.UserMessage("hi")}}, testRegistry(t, &aichef.ChatState{}, tools.Deps{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bedrock down")
}
