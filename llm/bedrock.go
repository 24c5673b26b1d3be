package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// 2k leaves room for a full structured recipe in one response.
	defaultMaxTokens = 2048

	// Low temperature and top_p keep tool use and JSON output consistent.
	defaultTemperature = 0.3
	defaultTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type BedrockOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// BedrockClient implements Client on the Bedrock Converse API.
type BedrockClient struct {
	brc  bedrockRuntimeClient
	opts BedrockOptions
}

func NewBedrockClient(brc bedrockRuntimeClient, opts BedrockOptions) *BedrockClient {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &BedrockClient{
		brc:  brc,
		opts: opts,
	}
}

func (c *BedrockClient) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	// Build system block
	var sys []types.SystemContentBlock
	for _, m := range prompt.Messages {
		if m.Role == "system" {
			sys = append(sys, &types.SystemContentBlockMemberText{Value: m.Content.Join()})
		}
	}

	// Build messages
	var msgs []types.Message
	for _, m := range prompt.Messages {
		if m.Role == "system" {
			continue // already handled above
		}
		msg := types.Message{Role: types.ConversationRole(m.Role)}

		for _, part := range m.Content {
			switch part.Type {
			case "text":
				msg.Content = append(msg.Content, &types.ContentBlockMemberText{Value: part.Text})

			case "tool_use":
				input := freshMap(part.Data)
				tub := types.ToolUseBlock{
					ToolUseId: aws.String(part.ToolUseID),
					Name:      aws.String(part.ToolName),
					Input:     document.NewLazyDocument(input),
				}
				msg.Content = append(msg.Content, &types.ContentBlockMemberToolUse{Value: tub})

			case "tool_result":
				if part.Data == nil {
					return Response{}, fmt.Errorf("tool result data cannot be nil (tool_use_id %s)", part.ToolUseID)
				}
				result := freshMap(part.Data)
				tr := types.ToolResultBlock{
					ToolUseId: aws.String(part.ToolUseID),
					Status:    types.ToolResultStatusSuccess,
					Content: []types.ToolResultContentBlock{
						&types.ToolResultContentBlockMemberJson{
							Value: document.NewLazyDocument(result),
						},
					},
				}
				msg.Content = append(msg.Content, &types.ContentBlockMemberToolResult{Value: tr})
			}
		}

		msgs = append(msgs, msg)
	}

	// Build tools
	var toolCfg *types.ToolConfiguration
	if len(prompt.Tools) > 0 {
		var tools []types.Tool
		for _, t := range prompt.Tools {
			spec, err := buildToolSpec(t)
			if err != nil {
				slog.Error("LLM_CLIENT: Failed to build tool spec", "error", err)
				continue
			}
			tools = append(tools, &types.ToolMemberToolSpec{Value: spec})
		}
		toolCfg = &types.ToolConfiguration{Tools: tools, ToolChoice: &types.ToolChoiceMemberAuto{}}
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  &c.opts.ModelID,
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
		ToolConfig: toolCfg,
	}
	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "error", err)
		return Response{}, err
	}

	slog.Info("LLM_CLIENT: Bedrock invoke succeeded",
		"stop_reason", out.StopReason,
		"latency_ms", aws.ToInt64(out.Metrics.LatencyMs),
		"input_tokens", aws.ToInt32(out.Usage.InputTokens),
		"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
	)

	switch out.StopReason {
	case "tool_use":
		calls, err := toolCallsFromOutput(out)
		if err != nil {
			return Response{}, fmt.Errorf("failed to parse tool calls: %w", err)
		}
		slog.Info("LLM_CLIENT: Extracted tool calls", "calls_len", len(calls))
		return Response{ToolCalls: calls}, nil

	case "end_turn", "stop_sequence":
		text, err := textFromOutput(out)
		if err != nil {
			return Response{}, fmt.Errorf("failed to extract final text: %w", err)
		}
		return Response{Content: text}, nil

	case "max_tokens":
		return Response{}, fmt.Errorf("model hit MaxTokens limit; consider increasing MaxTokens or chunking")

	case "safety", "content_filtered":
		return Response{}, fmt.Errorf("model response blocked by Bedrock safety filters")

	default:
		// Fallback if the model didn't specify a stop reason
		text, err := textFromOutput(out)
		if err != nil {
			return Response{}, fmt.Errorf("failed to extract text: %w", err)
		}
		calls, err := toolCallsFromOutput(out)
		if err != nil {
			return Response{}, fmt.Errorf("failed to parse tool calls: %w", err)
		}
		return Response{Content: text, ToolCalls: calls}, nil
	}
}

// freshMap round-trips a map through JSON so the document system never sees
// shared references or unmarshalable concrete types.
func freshMap(in map[string]any) map[string]any {
	out := make(map[string]any)
	b, _ := json.Marshal(in)
	if err := json.Unmarshal(b, &out); err != nil {
		out = make(map[string]any, len(in))
		for k, v := range in {
			out[k] = v
		}
	}
	return out
}

// buildToolSpec constructs a ToolSpecification for a tool.
func buildToolSpec(t Tool) (types.ToolSpecification, error) {
	// Pre-marshal the schema to JSON so its custom MarshalJSON applies before
	// the document system takes over.
	schemaJSON, err := json.Marshal(t.InputSchema)
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema for %s: %w", t.Name, err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema for %s: %w", t.Name, err)
	}

	return types.ToolSpecification{
		Name:        aws.String(t.Name),
		Description: aws.String(t.Description),
		InputSchema: &types.ToolInputSchemaMemberJson{
			Value: document.NewLazyDocument(schemaMap),
		},
	}, nil
}

// textFromOutput returns assistant text:
// 1) If any text block looks like a single JSON object, return the last such block.
// 2) Else, if there's only one text block, return it.
// 3) Else, join all text blocks with '\n'.
func textFromOutput(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil || out.Output == nil {
		return "", nil
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil || len(msg.Value.Content) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	if len(texts) == 0 {
		return "", nil
	}

	// Prefer a single JSON object if present (typical for structured output)
	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s, nil
		}
	}

	if len(texts) == 1 {
		return texts[0], nil
	}

	return strings.Join(texts, "\n"), nil
}

// toolCallsFromOutput extracts tool uses emitted by the assistant.
func toolCallsFromOutput(out *bedrockruntime.ConverseOutput) ([]ToolCall, error) {
	var calls []ToolCall

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil || msg.Value.Content == nil {
		return calls, nil
	}

	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil {
			continue
		}

		var input map[string]any
		if err := tu.Value.Input.UnmarshalSmithyDocument(&input); err != nil {
			input = map[string]any{}
		}

		calls = append(calls, ToolCall{
			Name:      aws.ToString(tu.Value.Name),
			Input:     input,
			ToolUseID: aws.ToString(tu.Value.ToolUseId),
		})
	}

	return calls, nil
}
