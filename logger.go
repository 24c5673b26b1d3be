package aichef

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// CoordinationLogger records the inner iterations of a chat turn for offline
// inspection: what the model saw, what it said, and which tools ran.
type CoordinationLogger interface {
	LogIteration(iteration IterationLog) error
}

// NewCoordinationLogFilePath returns a per-session log path, with the model id
// cleaned up so logs from different models are easy to tell apart.
func NewCoordinationLogFilePath(sessionID, model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.%s.json",
		time.Now().Unix(),
		sessionID,
		strings.ReplaceAll(strings.ToLower(model), ":", "_"),
	)
}

// IterationLog is a single pass through the tool-calling loop.
type IterationLog struct {
	Iteration int           `json:"iteration"`
	Timestamp time.Time     `json:"timestamp"`
	LLMInput  string        `json:"llm_input,omitempty"`
	LLMOutput any           `json:"llm_output"`
	ToolCalls []ToolCallLog `json:"tool_calls,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ToolCallLog is one tool execution within an iteration.
type ToolCallLog struct {
	Name   string         `json:"name"`
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
	Error  string         `json:"error,omitempty"`
}

// FileCoordinationLogger accumulates iterations and flushes them as one JSON
// document at the end of the turn.
type FileCoordinationLogger struct {
	iterations []IterationLog
	writer     io.Writer
}

func NewFileCoordinationLogger(writer io.Writer) *FileCoordinationLogger {
	return &FileCoordinationLogger{
		iterations: make([]IterationLog, 0),
		writer:     writer,
	}
}

func (l *FileCoordinationLogger) LogIteration(iteration IterationLog) error {
	l.iterations = append(l.iterations, iteration)
	return nil
}

// Flush writes all accumulated iterations to the writer and clears the buffer.
func (l *FileCoordinationLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"chat_turn": map[string]any{
			"timestamp":  time.Now(),
			"iterations": l.iterations,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal coordination log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write coordination log: %w", err)
	}

	l.iterations = l.iterations[:0]
	return nil
}

// NoOpCoordinationLogger discards all entries.
type NoOpCoordinationLogger struct{}

func NewNoOpCoordinationLogger() *NoOpCoordinationLogger { return &NoOpCoordinationLogger{} }

func (*NoOpCoordinationLogger) LogIteration(IterationLog) error { return nil }

// StdoutCoordinationLogger writes each iteration as a JSON line to stdout, for
// environments where logs are scraped (Lambda/CloudWatch).
type StdoutCoordinationLogger struct{}

func NewStdoutCoordinationLogger() *StdoutCoordinationLogger { return &StdoutCoordinationLogger{} }

func (*StdoutCoordinationLogger) LogIteration(iteration IterationLog) error {
	data, err := json.Marshal(iteration)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
