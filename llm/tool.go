package llm

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

// Tool describes a tool offered to the model for a single invocation.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}
