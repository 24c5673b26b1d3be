// Package agent runs the conversational tool-calling loop and the service
// surface built on top of it.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
	"github.com/prasha-au/aichef/tools"
)

// ToolProvider hands the coordinator its tool set for one turn.
type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

// Coordinator manages the interaction between the model and the tools within
// a single chat turn.
type Coordinator struct {
	llm           llm.Client
	maxIterations int
	logger        aichef.CoordinationLogger
}

func NewCoordinator(llmClient llm.Client, maxIterations int, logger aichef.CoordinationLogger) *Coordinator {
	if logger == nil {
		logger = aichef.NewNoOpCoordinationLogger()
	}
	return &Coordinator{
		llm:           llmClient,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Run drives the loop until the model produces a final text reply. Tool
// failures are fed back to the model as error results; only transport
// failures abort the turn.
func (c *Coordinator) Run(ctx context.Context, prompt llm.Prompt, tp ToolProvider) (string, error) {
	ctx, span := otel.Tracer(aichef.TracerNameAgent).Start(ctx, "Coordinator.Run")
	defer span.End()

	slog.Info("COORDINATOR: Starting run", "messages", len(prompt.Messages), "tools", len(prompt.Tools))

	for iter := 0; iter < c.maxIterations; iter++ {
		iterLog := aichef.IterationLog{Iteration: iter + 1, Timestamp: time.Now()}
		if b, merr := json.Marshal(prompt); merr == nil {
			iterLog.LLMInput = string(b)
		}

		res, err := c.llm.Invoke(ctx, prompt)
		if err != nil {
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			return "", fmt.Errorf("invoke failed: %w", err)
		}
		iterLog.LLMOutput = res

		slog.Info("COORDINATOR: LLM response received",
			"iteration", iter+1,
			"content_length", len(res.Content),
			"tool_calls", len(res.ToolCalls),
		)

		if len(res.ToolCalls) == 0 {
			reply := strings.TrimSpace(res.Content)
			if reply == "" {
				// The user always gets a textual reply, even alongside a redirect.
				slog.Info("COORDINATOR: Empty reply, nudging model", "iteration", iter+1)
				prompt.Messages = append(prompt.Messages, llm.UserMessage(
					`{"error":"empty_reply","hint":"Always include a short response to the user."}`,
				))
				iterLog.Error = "empty reply"
				c.logIteration(iterLog)
				continue
			}
			c.logIteration(iterLog)
			return reply, nil
		}

		assistantMsg := llm.Message{Role: "assistant", Content: llm.MessageParts{}}
		if res.Content != "" {
			assistantMsg.Content = append(assistantMsg.Content, llm.MessagePart{Type: "text", Text: res.Content})
		}
		for _, call := range res.ToolCalls {
			slog.Info("COORDINATOR: Handling tool call", "name", call.Name, "iteration", iter+1)
			assistantMsg.Content = append(assistantMsg.Content, llm.MessagePart{
				Type:      "tool_use",
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      call.Input,
			})
		}
		prompt.Messages = append(prompt.Messages, assistantMsg)

		var toolCallLogs []aichef.ToolCallLog
		var toolResults []llm.ToolResult

		for _, call := range res.ToolCalls {
			tlog := aichef.ToolCallLog{Name: call.Name, Input: call.Input}
			tool, gerr := tp.GetTool(call.Name)
			if gerr != nil {
				tlog.Error = gerr.Error()
				toolCallLogs = append(toolCallLogs, tlog)
				toolResults = append(toolResults, llm.ToolResult{
					ToolUseID: call.ToolUseID,
					ToolName:  call.Name,
					Data:      map[string]any{"error": fmt.Sprintf("tool %q not found: %v", call.Name, gerr)},
				})
				continue
			}

			result, rerr := tool.Run(ctx, call.Input)
			if rerr != nil {
				tlog.Error = rerr.Error()
				toolCallLogs = append(toolCallLogs, tlog)
				toolResults = append(toolResults, llm.ToolResult{
					ToolUseID: call.ToolUseID,
					ToolName:  tool.Name(),
					Data:      map[string]any{"error": fmt.Sprintf("tool %q failed: %v", call.Name, rerr)},
				})
				continue
			}

			tlog.Output = result
			toolCallLogs = append(toolCallLogs, tlog)
			toolResults = append(toolResults, llm.ToolResult{
				ToolUseID: call.ToolUseID,
				ToolName:  tool.Name(),
				Data:      result,
			})
		}

		if len(toolResults) > 0 {
			prompt.Messages = append(prompt.Messages, llm.NewToolResultMessage(toolResults))
		}

		iterLog.ToolCalls = toolCallLogs
		c.logIteration(iterLog)
	}

	return "", fmt.Errorf("no final reply after %d iterations", c.maxIterations)
}

func (c *Coordinator) logIteration(iter aichef.IterationLog) {
	if err := c.logger.LogIteration(iter); err != nil {
		slog.Error("Failed to log coordination iteration", "error", err, "iteration", iter.Iteration)
	}
}
